package main

import (
	"context"
	"os"

	"SubredditStats/internal/app"
	"SubredditStats/internal/config"
	"SubredditStats/internal/domain"
	"SubredditStats/internal/logging"
)

// Exit codes are the continuation signal for the hosting scheduler.
const (
	exitCompleted       = 0
	exitFatal           = 1
	exitTimeExhausted   = 10
	exitBlockedCooldown = 20
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(exitFatal)
	}

	report, err := application.Run(ctx)
	if err != nil {
		logger.Error("run aborted", "error", err)
		application.Close()
		os.Exit(exitFatal)
	}

	if err := application.Close(); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(exitFatal)
	}

	os.Exit(exitCode(report.Verdict))
}

func exitCode(v domain.Verdict) int {
	switch v {
	case domain.VerdictCompleted:
		return exitCompleted
	case domain.VerdictTimeExhausted:
		return exitTimeExhausted
	case domain.VerdictBlockedCooldown:
		return exitBlockedCooldown
	default:
		return exitFatal
	}
}
