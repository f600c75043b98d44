package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depstatus/internal/server"
	"github.com/matzehuels/depstatus/pkg/observability/prometheus"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP badge and status service",
		Long: `Run the HTTP service answering status and shields.io badge requests.

The listen address comes from --addr, then $PORT, then the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch {
			case addr != "":
				cfg.Server.Addr = addr
			case os.Getenv("PORT") != "":
				cfg.Server.Addr = ":" + os.Getenv("PORT")
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			opts := []server.Option{
				server.WithLogger(logger),
				server.WithAnalysisTimeout(cfg.Server.AnalysisTimeout.Duration),
			}
			if cfg.Server.Metrics {
				prometheus.Register()
				opts = append(opts, server.WithMetrics())
			}

			srv := server.New(newEngine(ctx, cfg, logger), opts...)
			return srv.ListenAndServe(ctx, cfg.Server.Addr,
				cfg.Server.ReadTimeout.Duration, cfg.Server.WriteTimeout.Duration, cfg.Server.ShutdownTimeout.Duration)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (e.g. :8080)")
	return cmd
}
