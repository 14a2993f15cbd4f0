package sink

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// Schema for the Postgres sink. Call PostgresSink.Init() or apply manually.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS subscriber_counts (
	subreddit TEXT NOT NULL,
	date DATE NOT NULL,
	subscribers BIGINT NOT NULL,
	PRIMARY KEY (subreddit, date)
);
`

// insertBatchSize keeps each statement under Postgres' 65535-parameter cap
// with plenty of headroom; long-lived subreddits carry 4000+ points.
const insertBatchSize = 500

// PostgresSink inserts time-series rows with conflict-skip semantics, so
// re-fetching a subreddit after a partial run never duplicates rows.
type PostgresSink struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.OutputSink = (*PostgresSink)(nil)

// NewPostgresSink wires a sql.DB implementation.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenPostgresSink connects via lib/pq and ensures the table exists.
func OpenPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgresSink(db)
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the output table if it doesn't exist.
func (s *PostgresSink) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("init sink schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

// WriteSeries inserts the points in batches, skipping rows already present.
func (s *PostgresSink) WriteSeries(ctx context.Context, subreddit string, points []domain.Point) error {
	for start := 0; start < len(points); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(points) {
			end = len(points)
		}

		query, args, err := s.insertBatch(subreddit, points[start:end]).ToSql()
		if err != nil {
			return fmt.Errorf("build insert for %s: %w", subreddit, err)
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert rows for %s: %w", subreddit, err)
		}
	}
	return nil
}

func (s *PostgresSink) insertBatch(subreddit string, points []domain.Point) sq.InsertBuilder {
	builder := s.builder.
		Insert("subscriber_counts").
		Columns("subreddit", "date", "subscribers").
		Suffix("ON CONFLICT (subreddit, date) DO NOTHING")
	for _, p := range points {
		builder = builder.Values(subreddit, p.Date, p.Subscribers)
	}
	return builder
}
