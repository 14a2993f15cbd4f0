package domain

import (
	"fmt"
	"sort"
	"time"
)

// Disposition classifies where a subreddit stands in the collection.
type Disposition string

const (
	DispositionPending Disposition = "pending"
	DispositionFetched Disposition = "fetched"
	DispositionFailed  Disposition = "permanently-failed"
	DispositionBlocked Disposition = "blocked"
)

// CollectionState is the durable progress record. The three sets are kept
// pairwise disjoint by the mark methods; blockedAt is non-nil exactly when
// the blocked set is non-empty.
type CollectionState struct {
	fetched   map[string]struct{}
	failed    map[string]struct{}
	blocked   map[string]struct{}
	blockedAt *time.Time
}

// Snapshot is the persisted layout of a CollectionState. Slices are sorted
// so repeated saves of the same state produce identical bytes.
type Snapshot struct {
	Fetched           []string   `json:"fetched"`
	PermanentlyFailed []string   `json:"permanently_failed"`
	Blocked           []string   `json:"blocked"`
	BlockedAt         *time.Time `json:"blocked_at,omitempty"`
}

// NewCollectionState returns an empty state.
func NewCollectionState() *CollectionState {
	return &CollectionState{
		fetched: map[string]struct{}{},
		failed:  map[string]struct{}{},
		blocked: map[string]struct{}{},
	}
}

// FromSnapshot rebuilds a state from its persisted form.
func FromSnapshot(sn Snapshot) (*CollectionState, error) {
	s := NewCollectionState()
	for _, name := range sn.Fetched {
		s.fetched[name] = struct{}{}
	}
	for _, name := range sn.PermanentlyFailed {
		s.failed[name] = struct{}{}
	}
	for _, name := range sn.Blocked {
		s.blocked[name] = struct{}{}
	}
	if len(s.blocked) > 0 && sn.BlockedAt == nil {
		return nil, fmt.Errorf("state has %d blocked entries but no blocked_at", len(s.blocked))
	}
	if len(s.blocked) == 0 {
		s.blockedAt = nil
		return s, nil
	}
	at := sn.BlockedAt.UTC()
	s.blockedAt = &at
	return s, nil
}

// Snapshot produces the persistable form of the state.
func (s *CollectionState) Snapshot() Snapshot {
	sn := Snapshot{
		Fetched:           sortedKeys(s.fetched),
		PermanentlyFailed: sortedKeys(s.failed),
		Blocked:           sortedKeys(s.blocked),
	}
	if s.blockedAt != nil {
		at := *s.blockedAt
		sn.BlockedAt = &at
	}
	return sn
}

// Disposition reports the current classification of one subreddit.
func (s *CollectionState) Disposition(name string) Disposition {
	if _, ok := s.fetched[name]; ok {
		return DispositionFetched
	}
	if _, ok := s.failed[name]; ok {
		return DispositionFailed
	}
	if _, ok := s.blocked[name]; ok {
		return DispositionBlocked
	}
	return DispositionPending
}

// MarkFetched records terminal success, including empty results.
func (s *CollectionState) MarkFetched(name string) {
	delete(s.failed, name)
	s.removeBlocked(name)
	s.fetched[name] = struct{}{}
}

// MarkFailed records a permanent failure; the subreddit is excluded from
// all future runs until the state is cleared by hand.
func (s *CollectionState) MarkFailed(name string) {
	delete(s.fetched, name)
	s.removeBlocked(name)
	s.failed[name] = struct{}{}
}

// Block moves the given pending subreddits into the blocked set and stamps
// the start of the blocking episode.
func (s *CollectionState) Block(names []string, at time.Time) {
	for _, name := range names {
		if s.Disposition(name) != DispositionPending {
			continue
		}
		s.blocked[name] = struct{}{}
	}
	if len(s.blocked) > 0 {
		at = at.UTC()
		s.blockedAt = &at
	}
}

// ClearBlocked returns every blocked subreddit to pending and drops the
// episode timestamp.
func (s *CollectionState) ClearBlocked() {
	s.blocked = map[string]struct{}{}
	s.blockedAt = nil
}

// BlockedAt reports when the active blocking episode began, nil if none.
func (s *CollectionState) BlockedAt() *time.Time {
	return s.blockedAt
}

// CooldownExpired reports whether a blocking episode exists and began at
// least window ago.
func (s *CollectionState) CooldownExpired(now time.Time, window time.Duration) bool {
	return s.blockedAt != nil && now.Sub(*s.blockedAt) >= window
}

// Backlog filters the master list down to pending subreddits, preserving
// list order.
func (s *CollectionState) Backlog(list []string) []string {
	backlog := make([]string, 0, len(list))
	for _, name := range list {
		if s.Disposition(name) == DispositionPending {
			backlog = append(backlog, name)
		}
	}
	return backlog
}

// Counts returns the sizes of the three terminal sets.
func (s *CollectionState) Counts() (fetched, failed, blocked int) {
	return len(s.fetched), len(s.failed), len(s.blocked)
}

func (s *CollectionState) removeBlocked(name string) {
	delete(s.blocked, name)
	if len(s.blocked) == 0 {
		s.blockedAt = nil
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
