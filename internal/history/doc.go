// Package history provides a minimal, optional persistence layer for
// job outcome records (completed, panicked, or cancelled). It is a passive observer of the scheduler: nothing
// in internal/scheduler depends on it, and a nil Store (history disabled)
// is always valid.
package history
