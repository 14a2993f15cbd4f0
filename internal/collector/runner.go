package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// Runner drives repeated engine runs in loop mode: the driver re-triggers
// the engine on its interval until a run ends with anything other than
// TIME_EXHAUSTED, at which point the runner stops the driver and publishes
// the final outcome.
type Runner struct {
	driver ports.Scheduler
	engine *Engine
	logger *slog.Logger

	once   sync.Once
	result chan runOutcome
}

type runOutcome struct {
	report domain.RunReport
	err    error
}

// NewRunner wires the interval driver with the engine.
func NewRunner(driver ports.Scheduler, engine *Engine, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		driver: driver,
		engine: engine,
		logger: logger,
		result: make(chan runOutcome, 1),
	}
}

// Start registers the engine with the driver. The first run fires
// immediately; later runs follow the driver's interval.
func (r *Runner) Start(ctx context.Context) error {
	job := func(_ time.Time) {
		report, err := r.engine.Run(ctx)
		if err != nil {
			_ = r.driver.Stop(ctx)
			r.finish(report, err)
			return
		}
		if report.Verdict == domain.VerdictTimeExhausted {
			r.logger.Info("pending work remains, next run on schedule")
			return
		}
		_ = r.driver.Stop(ctx)
		r.finish(report, nil)
	}

	return r.driver.Start(ctx, job)
}

// Wait blocks until the loop reaches a final verdict or the context ends.
func (r *Runner) Wait(ctx context.Context) (domain.RunReport, error) {
	select {
	case <-ctx.Done():
		return domain.RunReport{}, ctx.Err()
	case outcome := <-r.result:
		return outcome.report, outcome.err
	}
}

func (r *Runner) finish(report domain.RunReport, err error) {
	r.once.Do(func() {
		r.result <- runOutcome{report: report, err: err}
	})
}
