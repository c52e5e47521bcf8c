// Package recurring turns cron expressions, fixed intervals, and HH:MM
// daily times into repeating submissions against an internal/scheduler
// Scheduler. It is responsible only for:
//   - registering schedules
//   - computing next trigger times (via robfig/cron)
//   - submitting a scheduler.JobFunc each time a schedule fires
//
// It never runs job bodies itself; every fire is a Scheduler.Submit call
// with runAt set to the trigger time, so ordinary scheduler semantics
// (priority, cancellation, backpressure) apply uniformly to recurring and
// one-off work.
package recurring
