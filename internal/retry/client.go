package retry

import (
	"context"
	"log/slog"
	"time"

	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// Client wraps a StatsClient and re-attempts transient outcomes up to the
// policy's ceiling. It holds no state across queries.
type Client struct {
	next   ports.StatsClient
	policy Policy
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

var _ ports.StatsClient = (*Client)(nil)

// NewClient wraps next with the given policy.
func NewClient(next ports.StatsClient, policy Policy, logger *slog.Logger) *Client {
	return &Client{
		next:   next,
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
	}
}

// FetchSeries delegates and retries transient failures with backoff. After
// the last attempt the transient result is surfaced to the caller.
func (c *Client) FetchSeries(ctx context.Context, subreddit string) (domain.FetchResult, error) {
	var last domain.FetchResult

	attempts := c.policy.attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := c.next.FetchSeries(ctx, subreddit)
		if err != nil {
			return domain.FetchResult{}, err
		}
		if result.Status != domain.FetchTransientFailure {
			return result, nil
		}

		last = result
		if attempt == attempts {
			break
		}

		delay := c.policy.Backoff(attempt)
		if c.logger != nil {
			c.logger.Debug("transient failure, backing off",
				"subreddit", subreddit, "attempt", attempt, "delay", delay, "reason", result.Reason)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return domain.FetchResult{}, err
		}
	}

	return last, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
