package config

import (
	logx "schedulerd/pkg/logx"
	"sort"
	"strings"
)

// SummarizeConfigChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 20)

	// Logging
	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) ||
		oldCfg.Logging.Alert.Enabled != newCfg.Logging.Alert.Enabled ||
		oldCfg.Logging.Alert.MinLevel != newCfg.Logging.Alert.MinLevel ||
		oldCfg.Logging.Alert.RatePerSec != newCfg.Logging.Alert.RatePerSec {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.alert_enabled", newCfg.Logging.Alert.Enabled),
		)
	}

	// Scheduler (core worker pool)
	if oldCfg.Scheduler.Enabled != newCfg.Scheduler.Enabled ||
		oldCfg.Scheduler.Workers != newCfg.Scheduler.Workers ||
		oldCfg.Scheduler.MaxQueueSize != newCfg.Scheduler.MaxQueueSize ||
		strings.TrimSpace(oldCfg.Scheduler.ShutdownTimeout) != strings.TrimSpace(newCfg.Scheduler.ShutdownTimeout) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.Int("scheduler.workers", newCfg.Scheduler.Workers),
			logx.Int("scheduler.max_queue_size", newCfg.Scheduler.MaxQueueSize),
			logx.String("scheduler.shutdown_timeout", strings.TrimSpace(newCfg.Scheduler.ShutdownTimeout)),
		)
	}

	// Recurring (cron/interval dispatcher)
	if oldCfg.Recurring.Enabled != newCfg.Recurring.Enabled ||
		strings.TrimSpace(oldCfg.Recurring.Timezone) != strings.TrimSpace(newCfg.Recurring.Timezone) {
		changed = append(changed, "recurring")
		attrs = append(attrs,
			logx.Bool("recurring.enabled", newCfg.Recurring.Enabled),
			logx.String("recurring.timezone", strings.TrimSpace(newCfg.Recurring.Timezone)),
		)
	}

	// History (persistence)
	oldH := oldCfg.History
	newH := newCfg.History
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldH != nil {
		oDriver = strings.TrimSpace(oldH.Driver)
		oBusy = strings.TrimSpace(oldH.BusyTimeout)
		oPathSet = strings.TrimSpace(oldH.Path) != ""
	}
	if newH != nil {
		nDriver = strings.TrimSpace(newH.Driver)
		nBusy = strings.TrimSpace(newH.BusyTimeout)
		nPathSet = strings.TrimSpace(newH.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "history")
		attrs = append(attrs,
			logx.String("history.driver", nDriver),
			logx.Bool("history.path_set", nPathSet),
			logx.String("history.busy_timeout", nBusy),
		)
	}

	// Metrics
	if oldCfg.Metrics.Enabled != newCfg.Metrics.Enabled ||
		strings.TrimSpace(oldCfg.Metrics.Addr) != strings.TrimSpace(newCfg.Metrics.Addr) ||
		strings.TrimSpace(oldCfg.Metrics.Path) != strings.TrimSpace(newCfg.Metrics.Path) {
		changed = append(changed, "metrics")
		attrs = append(attrs,
			logx.Bool("metrics.enabled", newCfg.Metrics.Enabled),
			logx.String("metrics.addr", strings.TrimSpace(newCfg.Metrics.Addr)),
		)
	}

	// CSV feed producer
	oldC := oldCfg.CSVFeed
	newC := newCfg.CSVFeed
	var oEnabled, nEnabled bool
	var oRate, nRate int
	if oldC != nil {
		oEnabled = oldC.Enabled
		oRate = oldC.RatePerSec
	}
	if newC != nil {
		nEnabled = newC.Enabled
		nRate = newC.RatePerSec
	}
	if oEnabled != nEnabled || oRate != nRate {
		changed = append(changed, "csv_feed")
		attrs = append(attrs,
			logx.Bool("csv_feed.enabled", nEnabled),
			logx.Int("csv_feed.rate_per_sec", nRate),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
