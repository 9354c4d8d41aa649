package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/codecity/internal/server"
	"github.com/matzehuels/codecity/pkg/pipeline"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		host    string
		port    int
		noCache bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve [repo]",
		Short: "Serve city layouts over HTTP",
		Long: `Serve city layouts over HTTP.

Starts an HTTP server exposing /api/city for on-demand builds and /ws
for websocket clients. When a repository argument is given together with
--watch, the server rebuilds the city after file changes and pushes the
fresh GeoJSON to all connected websocket clients.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := ""
			if len(args) > 0 {
				repo = args[0]
			}
			return c.runServe(cmd.Context(), repo, host, port, noCache, watch)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind address (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&watch, "watch", false, "rebuild and broadcast on file changes (requires repo argument)")

	return cmd
}

// runServe starts the HTTP server, optionally with a file watcher.
func (c *CLI) runServe(ctx context.Context, repo, host string, port int, noCache, watch bool) error {
	if watch && repo == "" {
		return fmt.Errorf("--watch requires a repository argument")
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(cfg, runner, loggerFromContext(ctx))

	printInfo("Serving on http://%s", cfg.Server.Addr())
	if watch {
		printDetail("Watching %s for changes", repo)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if watch {
		g.Go(func() error {
			return srv.Watch(gctx, pipeline.Options{RepoPath: repo})
		})
	}
	return g.Wait()
}
