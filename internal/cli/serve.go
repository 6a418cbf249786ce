package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/api"
	"github.com/eshaffer321/ynab-reconcile/internal/application/service"
)

// RunServe runs the API server, plus scheduled pulls when a schedule is set.
func RunServe(app *App, flags ServeFlags) error {
	logger := app.Logger.With("system", "api")

	jobs := service.NewPullJobs(app.Service, app.Logger.With("system", "jobs"))
	jobs.StartBackgroundCleanup(5 * time.Minute)
	defer jobs.StopBackgroundCleanup()

	schedule := app.Config.Sync.Schedule
	if flags.Schedule != "" {
		schedule = flags.Schedule
	}
	if schedule != "" {
		if err := jobs.Schedule(schedule); err != nil {
			return err
		}
		defer jobs.StopSchedule()
	}

	// Create API config
	apiCfg := api.DefaultConfig()
	apiCfg.Port = app.Config.API.Port
	if flags.Port != 0 {
		apiCfg.Port = flags.Port
	}
	if len(app.Config.API.CORSOrigins) > 0 {
		apiCfg.AllowedOrigins = app.Config.API.CORSOrigins
	}

	// Create and start server
	server := api.NewServer(apiCfg, app.Service, jobs, app.Metrics, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
