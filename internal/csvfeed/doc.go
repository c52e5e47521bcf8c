// Package csvfeed receives CSV-encoded records over a System V message
// queue and submits one scheduler job per record.
//
// Each queue message carries one line of comma-separated fields (vehicle
// telemetry: id, timestamp, speed, engine state, error code). A message
// with an empty body is a sentinel: it means the upstream producer has
// finished, and the feed responds by driving the wired scheduler through a
// Graceful shutdown rather than an Immediate one, so any telemetry already
// queued for processing still runs.
package csvfeed
