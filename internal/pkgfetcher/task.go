package pkgfetcher

import "github.com/wildanadt/RTA-WRT/internal/pkgresolver"

// State tracks a download task through its lifecycle:
// Pending -> InFlight -> (Succeeded | Retrying -> InFlight | Failed).
type State int

const (
	StatePending State = iota
	StateInFlight
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in-flight"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is one resolved URL on its way to disk. A task is owned by exactly
// one worker for its whole lifetime, so its fields need no locking.
type Task struct {
	Request  pkgresolver.PackageRequest
	URL      string
	Dest     string
	Attempts int
	State    State
	Skipped  bool // already on disk with matching size
	Err      error
}

// Report is the caller-facing record of one task's outcome.
type Report struct {
	Fragment string
	URL      string
	State    State
	Attempts int
	Skipped  bool
	Err      string
}

func (t *Task) report() Report {
	r := Report{
		Fragment: t.Request.NameFragment,
		URL:      t.URL,
		State:    t.State,
		Attempts: t.Attempts,
		Skipped:  t.Skipped,
	}
	if t.Err != nil {
		r.Err = t.Err.Error()
	}
	return r
}
