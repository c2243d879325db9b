package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/giygas/pkpd-api/config"
	"github.com/giygas/pkpd-api/data"
	"github.com/giygas/pkpd-api/handlers"
	"github.com/giygas/pkpd-api/health"
	"github.com/giygas/pkpd-api/logging"
	"github.com/giygas/pkpd-api/pkpd"
	"github.com/giygas/pkpd-api/scheduler"
	"github.com/giygas/pkpd-api/server"
	"github.com/giygas/pkpd-api/validation"
)

// loadEnv reads .env from the working directory, then from the executable's
// directory. A missing file is not an error: the environment may already be set.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
}

func run() error {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.InitLoggerWithConfig(cfg, false)
	defer func() {
		if err := logging.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}()

	logging.Info("Configuration loaded",
		"env", cfg.Env,
		"address", cfg.Address,
		"port", cfg.Port,
		"sample_count", cfg.SampleCount,
		"selfcheck_interval_hours", cfg.SelfCheckIntervalHours)

	registry := pkpd.DefaultRegistry()
	engine := pkpd.NewEngine(
		pkpd.WithRegistry(registry),
		pkpd.WithSampleCount(cfg.SampleCount),
	)
	logging.Info("Drug registry ready", "drugs", registry.Len())

	status := data.NewStatusContainer()
	status.SetServerStartTime(time.Now())

	interval := time.Duration(cfg.SelfCheckIntervalHours) * time.Hour
	sched := scheduler.NewScheduler(status, engine, interval)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start self-check scheduler: %w", err)
	}
	defer sched.Stop()

	healthChecker := health.NewHealthChecker(registry, status, interval)
	httpHandler := handlers.NewHTTPHandler(engine, registry, validation.NewInputValidator(), healthChecker)
	srv := server.NewServer(cfg, httpHandler)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pkpd-api: %v\n", err)
		os.Exit(1)
	}
}
