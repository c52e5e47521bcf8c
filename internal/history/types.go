package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the job history store.
//
// Driver values:
//   - "file": dependency-free file backend (append-only JSON Lines)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// JobRecord captures the outcome of one job for observability. It is
// written after a worker finishes running a job (success or panic), or
// when a cancellation is accepted (Cancelled set), and is never consulted
// by the scheduler itself.
type JobRecord struct {
	JobID        uint64
	Priority     string
	RunAt        time.Time
	EnqueuedAt   time.Time
	DispatchedAt time.Time
	CompletedAt  time.Time
	Duration     time.Duration
	Error        string
	Cancelled    bool
}
