// Package sink persists fetched subscriber time series. The engine only
// requires that writes either succeed or fail loudly.
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// CSVSink appends rows to a single subreddit,date,subscribers file. The
// header is written when the file is created; each series is flushed and
// synced before WriteSeries returns, so a crash loses at most the series
// being written.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
}

var _ ports.OutputSink = (*CSVSink)(nil)

// NewCSVSink opens (creating if needed) the output file in append mode.
func NewCSVSink(path string) (*CSVSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat output %s: %w", path, err)
	}

	s := &CSVSink{file: file, writer: csv.NewWriter(file)}

	if info.Size() == 0 {
		if err := s.writer.Write([]string{"subreddit", "date", "subscribers"}); err != nil {
			file.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flush header: %w", err)
		}
	}

	return s, nil
}

// WriteSeries appends one row per point and syncs the file.
func (s *CSVSink) WriteSeries(ctx context.Context, subreddit string, points []domain.Point) error {
	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{subreddit, p.Date, strconv.FormatInt(p.Subscribers, 10)}
		if err := s.writer.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", subreddit, err)
		}
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush rows for %s: %w", subreddit, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync output: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return s.file.Close()
}
