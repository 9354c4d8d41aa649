package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/codecity/pkg/pipeline"
)

// buildCommand creates the build command for exporting a city as GeoJSON.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:     "build [repo]",
		Aliases: []string{"layout"},
		Short:   "Build a city layout from a repository",
		Long: `Build a city layout from a repository.

The build command scans the repository's tracked files, collects per-file
metrics, computes the city layout, and writes the result as a GeoJSON
feature collection. Streets follow the folder hierarchy and buildings
represent files, stacked in tiers proportional to line count.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RepoPath = args[0]
			return c.runBuild(cmd.Context(), opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file (default: <repo>.city.geojson, "-" for stdout)`)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached results exist")
	cmd.Flags().BoolVar(&opts.SkipGitTimes, "skip-git-times", false, "skip per-file git timestamps (faster on large histories)")

	// Layout flags
	cmd.Flags().StringVar(&opts.RootName, "root-name", "", "main street name (default: repository directory name)")
	cmd.Flags().Float64Var(&opts.CellSize, "cell-size", 0, "grid cell size in world units")
	cmd.Flags().IntVar(&opts.MaxSearchRadius, "max-search-radius", 0, "placement search radius in cells")

	return cmd
}

// runBuild executes the pipeline and writes the GeoJSON output.
func (c *CLI) runBuild(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.CellSize == 0 {
		opts.CellSize = cfg.Layout.CellSize
	}
	if opts.MaxSearchRadius == 0 {
		opts.MaxSearchRadius = cfg.Layout.MaxSearchRadius
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = loggerFromContext(ctx)

	spinner := newSpinnerWithContext(ctx, "Building city...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if result.Stats.FileCount == 0 {
		printWarning("No tracked files in %s", opts.RepoPath)
	}

	if output == "-" {
		if _, err := os.Stdout.Write(result.GeoJSON); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	outputPath := output
	if outputPath == "" {
		outputPath = filepath.Base(filepath.Clean(opts.RepoPath)) + ".city.geojson"
	}
	if err := os.WriteFile(outputPath, result.GeoJSON, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("City built")
	printFile(outputPath)
	printStats(result.Stats.StreetCount, result.Stats.BuildingCount, result.CacheInfo.ExportHit)
	printNewline()
	printNextStep("Serve", appName+" serve "+opts.RepoPath)

	return nil
}
