package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/timmy/ordermonitor/internal/api"
	"github.com/timmy/ordermonitor/internal/logger"
)

const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitor the drop folder until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg, log)
		if err != nil {
			log.WithError(err).Error("Failed to start")
			return err
		}

		var result *multierror.Error

		var srv *http.Server
		serverErr := make(chan error, 1)
		if cfg.Server.Enabled {
			router := api.SetupRouter(api.RouterDeps{
				Health:         a.pingDB,
				Stats:          a.monitor,
				Exceptions:     a.exceptions,
				Orders:         a.orders,
				ExceptionCount: a.exceptions,
				ProcessedCount: a.processed,
				Gatherer:       a.registry,
			}, cfg.Server.Mode)
			srv = &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				log.WithFields(logger.Fields{
					"port": cfg.Server.Port,
					"mode": cfg.Server.Mode,
				}).Info("Starting status server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
					stop()
				}
			}()
		}

		if err := a.monitor.Run(ctx); err != nil {
			result = multierror.Append(result, err)
		}
		log.Info("Shutting down")

		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				result = multierror.Append(result, fmt.Errorf("status server shutdown: %w", err))
			}
			cancel()
			select {
			case err := <-serverErr:
				result = multierror.Append(result, fmt.Errorf("status server: %w", err))
			default:
			}
		}

		if err := a.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		return result.ErrorOrNil()
	},
}
