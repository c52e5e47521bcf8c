package metricsexport

import (
	"github.com/prometheus/client_golang/prometheus"

	"schedulerd/internal/scheduler"
)

// schedulerCollector is a pull-based prometheus.Collector: it reads
// scheduler.Metrics() fresh on every scrape instead of maintaining its own
// gauges that could drift between updates.
type schedulerCollector struct {
	sched *scheduler.Scheduler

	queued    *prometheus.Desc
	running   *prometheus.Desc
	avgWaitMs *prometheus.Desc
}

func newSchedulerCollector(sched *scheduler.Scheduler) *schedulerCollector {
	return &schedulerCollector{
		sched: sched,
		queued: prometheus.NewDesc(
			"schedulerd_queued_jobs", "Number of jobs currently waiting in the priority queue.", nil, nil),
		running: prometheus.NewDesc(
			"schedulerd_running_jobs", "Number of jobs currently executing.", nil, nil),
		avgWaitMs: prometheus.NewDesc(
			"schedulerd_avg_wait_ms", "Average milliseconds from job acceptance until its closure returns (queue wait plus run time).", nil, nil),
	}
}

func (c *schedulerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queued
	ch <- c.running
	ch <- c.avgWaitMs
}

func (c *schedulerCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.sched.Metrics()
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(m.Queued))
	ch <- prometheus.MustNewConstMetric(c.running, prometheus.GaugeValue, float64(m.Running))
	ch <- prometheus.MustNewConstMetric(c.avgWaitMs, prometheus.GaugeValue, m.AvgWaitMs)
}
