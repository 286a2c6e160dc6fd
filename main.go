package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medsafe/interactions-api/config"
	"github.com/medsafe/interactions-api/health"
	"github.com/medsafe/interactions-api/llm"
	"github.com/medsafe/interactions-api/logging"
	"github.com/medsafe/interactions-api/openfda"
	"github.com/medsafe/interactions-api/report"
	"github.com/medsafe/interactions-api/scheduler"
	"github.com/medsafe/interactions-api/server"
	"github.com/medsafe/interactions-api/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogLevel)
	logging.Info("Configuration loaded",
		"env", cfg.Env,
		"drugs", len(cfg.Drugs),
		"model", cfg.GeminiModel,
		"workers", cfg.ReportWorkers,
	)

	fetcher := openfda.NewClient(cfg.OpenFDABaseURL)
	completer := llm.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)
	orchestrator := report.NewOrchestrator(fetcher, completer, cfg)

	srv := server.NewServer(cfg, server.Deps{
		Validator: validation.NewProfileValidator(),
		Generator: orchestrator,
		Checker:   health.NewHealthChecker(cfg),
	})

	housekeeping := scheduler.NewScheduler(srv.Limiter())
	if err := housekeeping.Start(); err != nil {
		logging.Error("Failed to start housekeeping scheduler", "error", err)
		os.Exit(1)
	}
	defer housekeeping.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server close error", "error", err)
	} else {
		logging.Info("Server exited gracefully")
	}
}
