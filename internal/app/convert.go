package app

import (
	"schedulerd/internal/config"
	"schedulerd/internal/csvfeed"
	"schedulerd/internal/history"
	"schedulerd/internal/recurring"
	logx "schedulerd/pkg/logx"
)

// toLogxConfig maps the hot-reloadable logging section onto pkg/logx's
// Config. No AlertSink is wired here: cfg.Alert.Enabled with a nil Sink is a
// no-op (pkg/logx guards on both being set), and no concrete sink
// implementation (webhook, pager, ...) exists in this codebase yet.
func toLogxConfig(cfg config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   cfg.Level,
		Console: cfg.Console,
		File: logx.FileConfig{
			Enabled: cfg.File.Enabled,
			Path:    cfg.File.Path,
		},
		Alert: logx.AlertConfig{
			Enabled:    cfg.Alert.Enabled,
			MinLevel:   cfg.Alert.MinLevel,
			RatePerSec: cfg.Alert.RatePerSec,
		},
	}
}

func toRecurringConfig(cfg config.RecurringConfig) recurring.Config {
	return recurring.Config{
		Enabled:  cfg.Enabled,
		Timezone: cfg.Timezone,
	}
}

// toHistoryConfig parses the config schema's string BusyTimeout into the
// time.Duration the history package expects.
func toHistoryConfig(cfg config.HistoryConfig) (history.Config, error) {
	busy, err := config.ParseDurationField("history.busy_timeout", cfg.BusyTimeout)
	if err != nil {
		return history.Config{}, err
	}
	return history.Config{
		Driver:      cfg.Driver,
		Path:        cfg.Path,
		BusyTimeout: busy,
	}, nil
}

func toCSVFeedConfig(cfg config.CSVFeedConfig) csvfeed.Config {
	return csvfeed.Config{
		Enabled:    cfg.Enabled,
		MQKeyPath:  cfg.MQKeyPath,
		MQKeyID:    cfg.MQKeyID,
		RatePerSec: cfg.RatePerSec,
		Priority:   cfg.Priority,
	}
}

// queueSizeOrUnbounded translates the config schema's "0 means unbounded"
// MaxQueueSize into the positive bound scheduler.New requires.
func queueSizeOrUnbounded(n int) int {
	if n <= 0 {
		return unboundedQueueSize
	}
	return n
}
