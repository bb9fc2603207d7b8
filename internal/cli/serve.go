package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowpack/internal/server"
	"github.com/matzehuels/flowpack/pkg/observability"
	"github.com/matzehuels/flowpack/pkg/observability/prom"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Routes:
  POST /api/v1/layout      lay out diagram text
  POST /api/v1/parse       parse diagram text
  GET  /api/v1/algorithms  list algorithms
  GET  /healthz            liveness
  GET  /metrics            Prometheus metrics

The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache, !noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache, metrics bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	runner := c.newRunner(ctx, cfg, noCache)
	defer runner.Close()

	srv := server.New(runner, cfg.PipelineOptions(), c.Logger)
	if metrics {
		reg := prom.DefaultRegistry()
		reg.Install()
		defer observability.Reset()
		srv.Metrics = reg
	}

	printInfo("Listening on %s", StyleValue.Render(cfg.Server.Addr))
	printDetail("cache: %s", cacheBackend(cfg.Cache.Backend, noCache))
	return srv.ListenAndServe(ctx, cfg.Server)
}

func cacheBackend(backend string, noCache bool) string {
	if noCache {
		return "disabled"
	}
	return backend
}
