// Package metricsexport exposes a Scheduler's runtime metrics over HTTP in
// Prometheus text format. It never touches the scheduler's internal state
// directly: it reads only through scheduler.Scheduler.Metrics(), the same
// lock-consistent snapshot any other caller would use.
package metricsexport
