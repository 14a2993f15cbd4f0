package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"SubredditStats/internal/collector"
	"SubredditStats/internal/config"
	"SubredditStats/internal/domain"
	"SubredditStats/internal/infrastructure/listsource"
	"SubredditStats/internal/infrastructure/scheduler"
	"SubredditStats/internal/infrastructure/sink"
	"SubredditStats/internal/infrastructure/state"
	"SubredditStats/internal/infrastructure/statsapi"
	"SubredditStats/internal/infrastructure/telegram"
	"SubredditStats/internal/logging"
	"SubredditStats/internal/ports"
	"SubredditStats/internal/ratelimit"
	"SubredditStats/internal/retry"
)

// Application wires configs to the collection engine and its adapters.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	engine   *collector.Engine
	notifier ports.Notifier
	closers  []io.Closer
}

// New builds a runnable application instance. The context bounds adapter
// startup (Postgres connect), not the run itself.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := a.buildStateStore()
	if err != nil {
		return nil, err
	}
	outputSink, err := a.buildSink(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	limiter := ratelimit.NewLimiter(cfg.StatsAPI.CallsPerMinute, time.Minute)
	rawClient := statsapi.NewClient(cfg.StatsAPI, nil)
	throttled := ratelimit.NewClient(rawClient, limiter)
	fetcher := retry.NewClient(throttled, retry.Policy{
		Attempts: cfg.Retry.Attempts,
		MinDelay: cfg.Retry.MinBackoff(),
		MaxDelay: cfg.Retry.MaxBackoff(),
	}, baseLogger.With("component", "retry"))

	a.engine = collector.NewEngine(collector.Config{
		TimeBudget:     cfg.Collector.Budget(),
		BlockThreshold: cfg.Collector.BlockThreshold,
		Cooldown:       cfg.Collector.CooldownWindow(),
	}, collector.Deps{
		List:   listsource.NewFileSource(cfg.List.Path),
		Client: fetcher,
		Sink:   outputSink,
		Store:  store,
		Probe:  statsapi.NewProbe(cfg.StatsAPI, nil),
		Logger: baseLogger.With("component", "engine"),
	})

	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		a.notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	return a, nil
}

// Run executes one collection pass (or, in loop mode, repeated passes
// until a final verdict) and returns the last report.
func (a *Application) Run(ctx context.Context) (domain.RunReport, error) {
	report, err := a.execute(ctx)
	if err != nil {
		return report, err
	}

	if a.notifier != nil {
		if nErr := a.notifier.PublishSummary(ctx, "subreddit stats: "+report.Summary()); nErr != nil {
			a.logger.Warn("summary notification failed", "error", nErr)
		}
	}

	return report, nil
}

func (a *Application) execute(ctx context.Context) (domain.RunReport, error) {
	if a.cfg.Scheduler.Mode == "loop" {
		driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.LoopInterval())
		runner := collector.NewRunner(driver, a.engine, a.logger.With("component", "runner"))
		if err := runner.Start(ctx); err != nil {
			return domain.RunReport{}, fmt.Errorf("start loop: %w", err)
		}
		return runner.Wait(ctx)
	}
	return a.engine.Run(ctx)
}

// Close releases adapter resources; safe to call more than once.
func (a *Application) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *Application) buildStateStore() (ports.StateStore, error) {
	switch a.cfg.State.Backend {
	case "", "file":
		return state.NewFileStore(a.cfg.State.Path), nil
	case "sqlite":
		store, err := state.OpenSQLiteStore(a.cfg.State.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", a.cfg.State.Backend)
	}
}

func (a *Application) buildSink(ctx context.Context) (ports.OutputSink, error) {
	switch a.cfg.Sink.Backend {
	case "", "csv":
		s, err := sink.NewCSVSink(a.cfg.Sink.CSVPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	case "postgres":
		s, err := sink.OpenPostgresSink(ctx, a.cfg.Sink.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink backend %q", a.cfg.Sink.Backend)
	}
}
