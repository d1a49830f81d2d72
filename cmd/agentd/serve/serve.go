package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"agentplatform/internal/app"
	"agentplatform/internal/gateway"
	"agentplatform/internal/reload"
)

var (
	addr    string
	noWatch bool
)

var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := app.LoadConfig(cmd)
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.Gateway.Addr = addr
		}

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if _, err := a.Manager.Reload(ctx); err != nil {
			return fmt.Errorf("initial agent load: %w", err)
		}

		if cfg.Orchestrator.Watch && !noWatch {
			w, err := reload.NewWatcher(cfg.Orchestrator.AgentsFile, cfg.Orchestrator.Debounce.Duration, a.Manager)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
		}

		srv := gateway.NewServer(a.Manager, a.Catalog, gateway.WithMetrics(a.MetricsHandler))
		slog.Info("starting gateway", "addr", cfg.Gateway.Addr, "agents", len(a.Manager.Agents()))
		return srv.ListenAndServe(ctx, cfg.Gateway.Addr)
	},
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "override gateway listen address")
	Cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the agents file changes")
}
