package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch/internal/adapters/out/postgres"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(envFile *string) *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coordinator, the background jobs and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*envFile)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := newLogger()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if migrateUp {
				if err = postgres.Migrate(ctx, db); err != nil {
					return err
				}
			}

			root, err := NewCompositionRoot(cfg, db, clockwork.NewRealClock(), logger)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := root.Close(); closeErr != nil {
					logger.Error("Failed to close", "error", closeErr)
				}
			}()

			jobManager := root.CreateJobManager()
			if err = jobManager.StartAll(); err != nil {
				return err
			}
			defer jobManager.StopAll()

			watchErr := make(chan error, 1)
			go func() {
				watchErr <- root.Coordinator().Watch(ctx, root.CreateFeeds())
			}()

			e := echo.New()
			e.HideBanner = true
			if err = root.CreateHTTPServer().RegisterRoutes(e); err != nil {
				return err
			}

			serveErr := make(chan error, 1)
			go func() {
				if startErr := e.Start(fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)); !errors.Is(startErr, http.ErrServerClosed) {
					serveErr <- startErr
				}
			}()
			logger.Info("Dispatcher started", "port", cfg.HTTPPort, "version", Version)

			select {
			case <-ctx.Done():
			case err = <-watchErr:
				if errors.Is(err, context.Canceled) {
					err = nil
				}
			case err = <-serveErr:
			}
			cancel()

			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
				err = errors.Join(err, shutdownErr)
			}
			logger.Info("Dispatcher stopped")
			return err
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", false, "run database migrations on startup")
	return cmd
}
