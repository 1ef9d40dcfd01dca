package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/PartyShepherd/alchemelody/internal/api/http"
	"github.com/PartyShepherd/alchemelody/internal/scheduler"
)

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the hour alarm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rt)
		},
	}
}

func runServe(ctx context.Context, rt *runtime) error {
	cfg := rt.cfg

	// Alarm that announces each change of planetary hour.
	if cfg.AlarmEnabled {
		sched := scheduler.New(rt.service, scheduler.NewLogNotifier(rt.log), cfg.AlarmInterval, cfg.RulerMode,
			scheduler.WithLogger(rt.log),
			scheduler.WithMetrics(rt.metrics))
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	app := httpapi.New(rt.service, httpapi.Options{
		Logger:       rt.log,
		Metrics:      rt.metrics,
		DefaultRuler: cfg.RulerMode,
	})

	// Start server with graceful shutdown
	go func() {
		rt.log.Info("http server listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			rt.log.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		rt.log.Warn("error during shutdown", zap.Error(err))
		return err
	}
	rt.log.Info("server stopped")
	return nil
}
