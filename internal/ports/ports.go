package ports

import (
	"context"
	"time"

	"SubredditStats/internal/domain"
)

// EntityListSource provides the master subreddit list at run start.
type EntityListSource interface {
	Load(ctx context.Context) ([]string, error)
}

// StatsClient answers one logical stats query per subreddit. All remote
// conditions are folded into the result; an error is returned only for
// local failures such as context cancellation.
type StatsClient interface {
	FetchSeries(ctx context.Context, subreddit string) (domain.FetchResult, error)
}

// StateStore persists the whole collection state as one snapshot.
type StateStore interface {
	Load() (*domain.CollectionState, error)
	Save(state *domain.CollectionState) error
}

// OutputSink persists fetched time series keyed by subreddit. A write
// error is fatal to the run.
type OutputSink interface {
	WriteSeries(ctx context.Context, subreddit string, points []domain.Point) error
}

// BlockProbe inspects the remote service out-of-band during a failure
// streak and describes what it sees for the log.
type BlockProbe interface {
	Check(ctx context.Context) (string, error)
}

// Notifier publishes the end-of-run summary to an external channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler drives repeated engine runs in loop mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
