package ratelimit

import (
	"context"

	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// Client throttles a StatsClient: every delegated query first acquires a
// slot from the limiter.
type Client struct {
	next    ports.StatsClient
	limiter *Limiter
}

var _ ports.StatsClient = (*Client)(nil)

// NewClient wraps next with the given limiter.
func NewClient(next ports.StatsClient, limiter *Limiter) *Client {
	return &Client{next: next, limiter: limiter}
}

// FetchSeries waits for a rate slot, then delegates.
func (c *Client) FetchSeries(ctx context.Context, subreddit string) (domain.FetchResult, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return domain.FetchResult{}, err
	}
	return c.next.FetchSeries(ctx, subreddit)
}
