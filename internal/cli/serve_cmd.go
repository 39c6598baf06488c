package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"opsdash/internal/jobs"
	appLog "opsdash/internal/log"
	"opsdash/internal/metrics"
	"opsdash/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			loc := cfg.Location()
			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", loc.String(),
				"refresh", cfg.RefreshCron,
				"cache_ttl", cfg.CacheTTL().String(),
				"ics_count", len(cfg.Sources.ICS),
				"file_count", len(cfg.Sources.Files),
				"sqlite", cfg.Sources.SQLite != "",
			)

			sources, release, err := buildSources(cfg)
			if err != nil {
				return err
			}
			defer release()

			collector := metrics.NewCollector()
			srv := web.NewServer(cfg, jobs.NewFetcher(collector, sources...), collector)

			refresher, err := web.NewRefresher(srv, cfg.RefreshCron, loc)
			if err != nil {
				return err
			}
			refresher.Start()
			defer refresher.Stop()
			if next := refresher.Next(); next.IsZero() {
				appLog.Info("scheduled refresh disabled")
			} else {
				appLog.Info("scheduled refresh", "next", next.Format(time.RFC3339))
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			err = srv.Serve(ctx)
			appLog.Info("opsdash exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
