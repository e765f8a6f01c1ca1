package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/multilevel/internal/server"
	"github.com/matzehuels/multilevel/pkg/metrics"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var maxBody int64
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes the build and render pipeline over HTTP:

  POST /v1/hierarchy   document body (JSON, YAML or TOML by Content-Type)
  GET  /healthz        liveness and version
  GET  /metrics        Prometheus metrics

Query parameters of /v1/hierarchy mirror the render flags, e.g.
/v1/hierarchy?format=svg&level=1&direction=LR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("max-body") {
				maxBody = c.Config.Server.MaxBodyBytes
			}
			return c.runServe(cmd.Context(), addr, maxBody, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().Int64Var(&maxBody, "max-body", 0, "maximum request body size in bytes (default 8 MiB)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, maxBody int64, noCache bool) error {
	logger := loggerFromContext(ctx)

	reg := metrics.DefaultRegistry()
	reg.Install()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := server.New(server.Config{
		Runner:       runner,
		Metrics:      reg,
		Logger:       logger,
		MaxBodyBytes: maxBody,
		Defaults:     c.Config.PipelineOptions(),
	})

	printInfo("Serving on %s", StyleLink.Render("http://"+displayAddr(addr)))
	printKeyValue("Cache", c.Config.Cache.Backend)
	printKeyValue("Metrics", "/metrics")

	err = srv.ListenAndServe(ctx, addr)
	if errors.Is(err, context.Canceled) {
		printSuccess("Server stopped")
	}
	return err
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
