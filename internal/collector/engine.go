// Package collector implements the resumable bulk-collection engine: it
// walks the subreddit backlog, classifies each fetch outcome, detects
// sustained blocking by the remote, checkpoints progress after every
// disposition change, and tells the caller whether to re-invoke.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// Config bounds a single engine run.
type Config struct {
	TimeBudget     time.Duration
	BlockThreshold int
	Cooldown       time.Duration
}

// Deps wires all driven adapters into the engine. Probe and Logger are
// optional.
type Deps struct {
	List   ports.EntityListSource
	Client ports.StatsClient
	Sink   ports.OutputSink
	Store  ports.StateStore
	Probe  ports.BlockProbe
	Logger *slog.Logger
}

// Engine is the core state machine. One Run processes the backlog until
// it drains, the time budget runs out, or blocking is detected.
type Engine struct {
	cfg    Config
	list   ports.EntityListSource
	client ports.StatsClient
	sink   ports.OutputSink
	store  ports.StateStore
	probe  ports.BlockProbe
	logger *slog.Logger

	now func() time.Time
}

// NewEngine constructs the engine.
func NewEngine(cfg Config, deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		list:   deps.List,
		client: deps.Client,
		sink:   deps.Sink,
		store:  deps.Store,
		probe:  deps.Probe,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes one bounded collection pass and returns the continuation
// verdict inside the report. State-store and sink errors abort the run;
// per-subreddit failures never do.
func (e *Engine) Run(ctx context.Context) (domain.RunReport, error) {
	start := e.now()

	state, err := e.store.Load()
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("load state: %w", err)
	}

	// Cooldown reconciliation happens once, eagerly, before the backlog
	// is computed.
	if state.CooldownExpired(start, e.cfg.Cooldown) {
		_, _, released := state.Counts()
		state.ClearBlocked()
		if err := e.store.Save(state); err != nil {
			return domain.RunReport{}, fmt.Errorf("save state after cooldown expiry: %w", err)
		}
		e.logger.Info("cooldown expired, blocked subreddits returned to backlog", "released", released)
	}

	list, err := e.list.Load(ctx)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("load subreddit list: %w", err)
	}

	backlog := state.Backlog(list)
	if len(backlog) == 0 {
		_, _, blocked := state.Counts()
		verdict := domain.VerdictCompleted
		if blocked > 0 {
			// Nothing pending; waiting out the cooldown is the only option.
			verdict = domain.VerdictBlockedCooldown
		}
		report := e.report(verdict, state, list, 0, start)
		e.logger.Info("nothing to collect", "summary", report.Summary())
		return report, nil
	}

	e.logger.Info("starting collection pass",
		"backlog", len(backlog), "total", len(list),
		"budget", e.cfg.TimeBudget, "block_threshold", e.cfg.BlockThreshold)

	var (
		streak    int
		batch     []string
		attempted int
		probed    bool
	)

	for _, name := range backlog {
		// Blocking check runs before the budget check: spending the rest
		// of the budget against an endpoint that is rejecting us wastes
		// it on doomed retries.
		if streak >= e.cfg.BlockThreshold {
			report, err := e.declareBlocked(state, list, batch, attempted, start)
			return report, err
		}

		if e.now().Sub(start) >= e.cfg.TimeBudget {
			if len(batch) > 0 {
				// Timing out mid-streak is itself evidence of blocking,
				// not merely slowness.
				report, err := e.declareBlocked(state, list, batch, attempted, start)
				return report, err
			}
			report := e.report(domain.VerdictTimeExhausted, state, list, attempted, start)
			e.logger.Info("time budget exhausted", "summary", report.Summary())
			return report, nil
		}

		result, err := e.client.FetchSeries(ctx, name)
		if err != nil {
			return domain.RunReport{}, fmt.Errorf("fetch %s: %w", name, err)
		}
		attempted++

		switch result.Status {
		case domain.FetchSuccess:
			if len(result.Points) > 0 {
				if err := e.sink.WriteSeries(ctx, name, result.Points); err != nil {
					return domain.RunReport{}, fmt.Errorf("write series for %s: %w", name, err)
				}
			}
			state.MarkFetched(name)
			streak, batch = 0, batch[:0]
			if err := e.store.Save(state); err != nil {
				return domain.RunReport{}, fmt.Errorf("save state after %s: %w", name, err)
			}
			e.logger.Info("fetched", "subreddit", name, "points", len(result.Points))

		case domain.FetchNotFound:
			// Absence is a terminal answer, not a failure.
			state.MarkFetched(name)
			streak, batch = 0, batch[:0]
			if err := e.store.Save(state); err != nil {
				return domain.RunReport{}, fmt.Errorf("save state after %s: %w", name, err)
			}
			e.logger.Info("not found", "subreddit", name)

		case domain.FetchPermanentFailure:
			// Not evidence of blocking; the transient streak resets.
			state.MarkFailed(name)
			streak, batch = 0, batch[:0]
			if err := e.store.Save(state); err != nil {
				return domain.RunReport{}, fmt.Errorf("save state after %s: %w", name, err)
			}
			e.logger.Warn("permanently failed", "subreddit", name, "reason", result.Reason)

		case domain.FetchTransientFailure:
			// The subreddit stays pending: it may succeed next run or be
			// swept into blocked later in this one. No disposition change,
			// nothing to persist.
			streak++
			batch = append(batch, name)
			e.logger.Warn("transient failure", "subreddit", name, "reason", result.Reason, "streak", streak)
			if !probed && e.cfg.BlockThreshold > 1 && streak >= e.cfg.BlockThreshold/2 {
				probed = true
				e.runProbe(ctx)
			}
		}
	}

	// A streak completed by the final backlog entry still counts.
	if streak >= e.cfg.BlockThreshold {
		report, err := e.declareBlocked(state, list, batch, attempted, start)
		return report, err
	}

	report := e.report(domain.VerdictCompleted, state, list, attempted, start)
	e.logger.Info("backlog drained", "summary", report.Summary())
	return report, nil
}

// declareBlocked sweeps the failure batch into the blocked set, stamps the
// episode, persists, and reports BLOCKED_COOLDOWN.
func (e *Engine) declareBlocked(state *domain.CollectionState, list, batch []string, attempted int, start time.Time) (domain.RunReport, error) {
	state.Block(batch, e.now())
	if err := e.store.Save(state); err != nil {
		return domain.RunReport{}, fmt.Errorf("save state after blocking detection: %w", err)
	}

	report := e.report(domain.VerdictBlockedCooldown, state, list, attempted, start)
	e.logger.Warn("blocking detected, entering cooldown",
		"swept", len(batch), "cooldown", e.cfg.Cooldown, "summary", report.Summary())
	return report, nil
}

// runProbe fires the out-of-band block-page check once per run; its result
// only reaches the log.
func (e *Engine) runProbe(ctx context.Context) {
	if e.probe == nil {
		return
	}
	finding, err := e.probe.Check(ctx)
	if err != nil {
		e.logger.Warn("block probe failed", "error", err)
		return
	}
	e.logger.Warn("block probe", "finding", finding)
}

func (e *Engine) report(verdict domain.Verdict, state *domain.CollectionState, list []string, attempted int, start time.Time) domain.RunReport {
	fetched, failed, blocked := state.Counts()
	return domain.RunReport{
		Verdict:   verdict,
		Attempted: attempted,
		Fetched:   fetched,
		Failed:    failed,
		Blocked:   blocked,
		Pending:   len(state.Backlog(list)),
		Elapsed:   e.now().Sub(start),
	}
}
