// Package listsource loads the master subreddit list. The list is
// pre-fetched outside the collector (Reddit blocks cloud IPs) and
// committed as a JSON array of names.
package listsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"SubredditStats/internal/ports"
)

// FileSource reads the subreddit list from a JSON file.
type FileSource struct {
	path string
}

var _ ports.EntityListSource = (*FileSource)(nil)

// NewFileSource points at the pre-fetched list file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and validates the list. Duplicates are dropped, keeping the
// first occurrence so the collection order stays stable.
func (s *FileSource) Load(_ context.Context) ([]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read subreddit list %s: %w", s.path, err)
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("parse subreddit list %s: %w", s.path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("subreddit list %s is empty", s.path)
	}

	seen := make(map[string]struct{}, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}

	return unique, nil
}
