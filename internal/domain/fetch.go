package domain

import (
	"fmt"
	"time"
)

// Point is one daily subscriber-count observation.
type Point struct {
	Date        string
	Subscribers int64
}

// FetchStatus classifies the outcome of one logical stats query.
type FetchStatus int

const (
	FetchSuccess FetchStatus = iota
	FetchNotFound
	FetchPermanentFailure
	FetchTransientFailure
)

// String names the status for log lines.
func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "success"
	case FetchNotFound:
		return "not-found"
	case FetchPermanentFailure:
		return "permanent-failure"
	case FetchTransientFailure:
		return "transient-failure"
	default:
		return "unknown"
	}
}

// FetchResult carries the classified outcome of a stats query. Points is
// populated only on FetchSuccess and may be empty; Reason explains the two
// failure statuses.
type FetchResult struct {
	Status FetchStatus
	Points []Point
	Reason string
}

// Verdict is the continuation signal a run returns to its scheduler.
type Verdict int

const (
	// VerdictCompleted means no pending work remains; do not re-invoke
	// until the master list changes.
	VerdictCompleted Verdict = iota
	// VerdictTimeExhausted means pending work remains and no blocking was
	// detected; re-invoke soon.
	VerdictTimeExhausted
	// VerdictBlockedCooldown means the remote is suspected of blocking us;
	// do not re-invoke until the cooldown window has elapsed.
	VerdictBlockedCooldown
)

// String names the verdict for logs and notifications.
func (v Verdict) String() string {
	switch v {
	case VerdictCompleted:
		return "completed"
	case VerdictTimeExhausted:
		return "time-exhausted"
	case VerdictBlockedCooldown:
		return "blocked-cooldown"
	default:
		return "unknown"
	}
}

// RunReport summarizes one engine run for the log tail and the notifier.
type RunReport struct {
	Verdict   Verdict
	Attempted int
	Fetched   int
	Failed    int
	Blocked   int
	Pending   int
	Elapsed   time.Duration
}

// Summary renders the one-line end-of-run report.
func (r RunReport) Summary() string {
	return fmt.Sprintf("verdict=%s attempted=%d fetched=%d failed=%d blocked=%d pending=%d elapsed=%s",
		r.Verdict, r.Attempted, r.Fetched, r.Failed, r.Blocked, r.Pending, r.Elapsed.Round(time.Second))
}
