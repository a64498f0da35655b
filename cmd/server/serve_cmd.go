package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/crew-scheduler/api"
	"github.com/warp/crew-scheduler/logging"
	"github.com/warp/crew-scheduler/metrics"
	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/staffing"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat)

			ctx := cmd.Context()
			backend, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := backend.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close store")
				}
			}()

			var (
				m  *metrics.Metrics
				gw roster.Gateway = backend
			)
			if cfg.Metrics.Enabled {
				m = metrics.New()
				gw = m.Instrument(backend)
			}

			svc := staffing.NewService(gw, staffing.Config{
				Concurrency: cfg.WriteConcurrency,
				Logger:      log,
				Metrics:     m,
			})
			handler := api.NewHandler(gw, backend, svc, log)
			handler.SetMaxPeriodDays(cfg.MaxPeriodDays)

			if cfg.LoadScenario != "" {
				if err := handler.ApplyScenario(ctx, cfg.LoadScenario); err != nil {
					return err
				}
			}

			router := api.NewRouter(handler, api.RouterOptions{
				AllowedOrigins: cfg.CORSAllowedOrigins,
				Logger:         log,
				Metrics:        m,
				MetricsPath:    cfg.Metrics.Path,
			})

			server := &http.Server{
				Addr:         cfg.Addr(),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Info().Str("addr", server.Addr).Str("store", cfg.Store.Driver).Msg("server starting")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errc:
				return err
			case <-quit:
			}

			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides PORT)")
	return cmd
}
