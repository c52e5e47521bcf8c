package scheduler

import "errors"

var (
	// ErrRejected is returned by Submit when the scheduler is not accepting
	// jobs (shutting down) or the queue is already at MaxQueueSize. The two
	// causes are deliberately collapsed into one signal; callers that need
	// to distinguish them should check Metrics() themselves.
	ErrRejected = errors.New("scheduler: submission rejected")

	// ErrRefused is returned by Cancel once the scheduler has stopped
	// accepting work. It never distinguishes "already dispatched" from
	// "unknown id" — both are silent no-ops while still accepting.
	ErrRefused = errors.New("scheduler: cancel refused, scheduler is shutting down")
)
