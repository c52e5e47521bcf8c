package config

// Config is the top-level, hot-reloadable configuration for schedulerd.
type Config struct {
	Logging   LoggingConfig    `json:"logging"`
	Scheduler SchedulerConfig  `json:"scheduler"`
	Recurring RecurringConfig  `json:"recurring,omitempty"`
	History   *HistoryConfig   `json:"history,omitempty"`
	Metrics   MetricsConfig    `json:"metrics,omitempty"`
	CSVFeed   *CSVFeedConfig   `json:"csv_feed,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Alert   LoggingAlert `json:"alert,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingAlert carries the level and rate knobs for routing warn/error log
// lines to an external sink. Only the knobs live here: no sink is wired
// anywhere in schedulerd (internal/app leaves logx.AlertConfig.Sink nil),
// so enabling it sends no alerts.
type LoggingAlert struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// SchedulerConfig controls the core priority-and-deadline worker pool.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	// Workers is the fixed number of goroutines pulling jobs off the
	// priority queue. Must be >= 1.
	Workers int `json:"workers"`

	// MaxQueueSize bounds the number of jobs waiting to run. 0 means
	// unbounded.
	MaxQueueSize int `json:"max_queue_size,omitempty"`

	// ShutdownTimeout is accepted and reported in config-change logs, but
	// nothing reads it at shutdown: App.Stop's Shutdown(Graceful) waits for
	// every queued job to drain, with no time bound.
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
}

// RecurringConfig controls the self-rescheduling cron/interval dispatcher
// layered on top of the core scheduler.
type RecurringConfig struct {
	Enabled  bool   `json:"enabled"`
	Timezone string `json:"timezone,omitempty"`
}

// HistoryConfig controls the optional job-history persistence layer.
//
// Example:
//
//	"history": { "driver": "file", "path": "./schedulerd_history" }
type HistoryConfig struct {
	Driver      string `json:"driver"` // "" | "none" | "file" | "sqlite"
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// MetricsConfig controls the optional Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:9090"
	Path    string `json:"path,omitempty"` // default: "/metrics"
}

// CSVFeedConfig controls the illustrative CSV-to-job producer: it reads
// framed records off a System V message queue and submits one job per row.
//
// This surface exists to exercise the same scheduler from an external feed;
// it is not part of the scheduler's own contract.
type CSVFeedConfig struct {
	Enabled bool `json:"enabled"`

	// MQKeyID is used directly as the System V message queue key (0 selects
	// the feed's fixed default key). MQKeyPath is carried through to the feed
	// but not used to derive the key; no ftok() step is performed.
	MQKeyPath string `json:"mq_key_path"`
	MQKeyID   int    `json:"mq_key_id"`

	// RatePerSec caps how fast rows are turned into submissions.
	RatePerSec int `json:"rate_per_sec,omitempty"`

	// Priority is the priority assigned to jobs produced from feed rows.
	Priority string `json:"priority,omitempty"`
}
