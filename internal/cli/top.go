package cli

import (
	"context"
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/codecity/pkg/layout"
	"github.com/matzehuels/codecity/pkg/pipeline"
)

// topCommand creates the top command for browsing file metrics
// interactively.
func (c *CLI) topCommand() *cobra.Command {
	var (
		noCache bool
		skipGit bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "top [repo]",
		Short: "Browse the largest files in a repository",
		Long: `Browse the largest files in a repository.

Collects per-file metrics and opens an interactive browser sorted by
line count. Selecting a file prints its metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTop(cmd.Context(), args[0], noCache, skipGit, limit)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&skipGit, "skip-git-times", false, "skip per-file git timestamps")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum number of files to show")

	return cmd
}

// runTop collects metrics and launches the interactive file browser.
func (c *CLI) runTop(ctx context.Context, repo string, noCache, skipGit bool, limit int) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	files, err := runner.Collect(ctx, pipeline.Options{
		RepoPath:     repo,
		SkipGitTimes: skipGit,
		Logger:       loggerFromContext(ctx),
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Collected %d files", len(files)))

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].LinesOfCode > files[j].LinesOfCode
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	m := NewFileListModel(files)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(FileListModel)
	if !ok || fm.Selected == nil {
		return nil
	}

	f := fm.Selected.File
	printNewline()
	printKeyValue("File", f.Path)
	printKeyValue("Language", f.Language)
	printKeyValue("Lines", fmt.Sprintf("%d", f.LinesOfCode))
	printKeyValue("Avg length", fmt.Sprintf("%.1f chars", f.AvgLineLength))
	printKeyValue("Tiers", fmt.Sprintf("%d", layout.NumTiers(f.LinesOfCode)))
	printKeyValue("Height", fmt.Sprintf("%.1f", layout.InterpolateHeight(f.LinesOfCode)))
	if !f.CreatedAt.IsZero() {
		printKeyValue("Created", f.CreatedAt.Format("Jan 2, 2006"))
	}
	if !f.LastModified.IsZero() {
		printKeyValue("Modified", formatRelativeTime(f.LastModified))
	}

	return nil
}
