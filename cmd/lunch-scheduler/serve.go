package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/handler"
	"github.com/noah-isme/lunch-rotation-api/internal/router"
	"github.com/noah-isme/lunch-rotation-api/pkg/config"
	"github.com/noah-isme/lunch-rotation-api/pkg/database"
)

func serveCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the notification scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveRun(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema before serving")
	return cmd
}

func serveRun(parent context.Context, migrate bool) error {
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(cfg, logr)
	if err != nil {
		return err
	}
	defer app.close()

	if migrate {
		if err := database.Migrate(ctx, app.db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	trigger, err := app.trigger()
	if err != nil {
		return err
	}
	trigger.Start(ctx)
	defer trigger.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MetricsPath:    metricsPath,
		Logger:         logr,
		Metrics:        app.metrics,
		Tokens:         app.auth,
	}, router.Handlers{
		Auth:       handler.NewAuthHandler(app.auth),
		Roster:     handler.NewRosterHandler(app.roster),
		Queue:      handler.NewQueueHandler(app.ranking, app.calendar),
		Attendance: handler.NewAttendanceHandler(app.attendance),
		Events:     handler.NewEventHandler(app.events, app.confirmations, app.calendar),
		Jobs:       handler.NewJobHandler(app.notifications, trigger, app.history, app.calendar),
		Public:     handler.NewPublicHandler(app.confirmations, app.venues),
		Settings:   handler.NewSettingsHandler(app.settings),
		Venues:     handler.NewVenueHandler(app.venues),
		Metrics:    handler.NewMetricsHandler(app.metrics),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "scheduler", cfg.Scheduler.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
	return nil
}
