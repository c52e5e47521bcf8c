// Package app wires config, logging, the core scheduler, and its optional
// satellites (recurring dispatch, job history, metrics export, CSV feed)
// into one process lifecycle.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schedulerd/internal/config"
	"schedulerd/internal/csvfeed"
	"schedulerd/internal/eventbus"
	"schedulerd/internal/history"
	"schedulerd/internal/metricsexport"
	"schedulerd/internal/recurring"
	"schedulerd/internal/runtime/supervisor"
	"schedulerd/internal/scheduler"
	logx "schedulerd/pkg/logx"
)

// unboundedQueueSize is substituted for a configured MaxQueueSize of 0
// ("unbounded" in config terms); the scheduler itself requires a positive
// bound, so this stands in as effectively unlimited.
const unboundedQueueSize = 1 << 20

// App owns the full process lifecycle: config load/hot-reload, the
// scheduler worker pool, and every optional satellite service layered on
// top of it.
type App struct {
	cfgPath string
	cfgm    *config.ConfigManager
	sup     *supervisor.Supervisor

	logs *logx.Service
	log  logx.Logger
	bus  eventbus.Bus

	sched *scheduler.Scheduler
	rec   *recurring.Service
	hist  history.Store
	mx    *metricsexport.Server
	feed  *csvfeed.Service
}

// NewApp loads cfgPath and constructs every component. Apart from the
// scheduler's worker pool, which scheduler.New starts right away, it does
// not start any background activity; call Start for that.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(toLogxConfig(cfg.Logging))
	log = log.With(logx.String("comp", "app"), logx.String("instance", uuid.NewString()))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	bus := eventbus.New()

	if cfg.Scheduler.Workers < 1 {
		return nil, fmt.Errorf("scheduler.workers must be >= 1, got %d", cfg.Scheduler.Workers)
	}
	sched, err := scheduler.New(scheduler.Config{
		Workers:      cfg.Scheduler.Workers,
		MaxQueueSize: queueSizeOrUnbounded(cfg.Scheduler.MaxQueueSize),
	}, scheduler.WithLogger(log.With(logx.String("comp", "scheduler"))), scheduler.WithEventBus(bus))
	if err != nil {
		return nil, err
	}

	rec := recurring.New(toRecurringConfig(cfg.Recurring), sched, log.With(logx.String("comp", "recurring")), bus)

	var hist history.Store
	if cfg.History != nil {
		hcfg, herr := toHistoryConfig(*cfg.History)
		if herr != nil {
			return nil, herr
		}
		hist, err = history.Open(hcfg, log.With(logx.String("comp", "history")))
		if err != nil {
			return nil, err
		}
	}

	mx := metricsexport.New(sched, log.With(logx.String("comp", "metrics")))

	var feed *csvfeed.Service
	if cfg.CSVFeed != nil && cfg.CSVFeed.Enabled {
		feed, err = csvfeed.New(toCSVFeedConfig(*cfg.CSVFeed), sched, log.With(logx.String("comp", "csvfeed")), bus)
		if err != nil {
			return nil, err
		}
	}

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		logs:    logs,
		log:     log,
		bus:     bus,
		sched:   sched,
		rec:     rec,
		hist:    hist,
		mx:      mx,
		feed:    feed,
	}, nil
}

// Done is closed once the supervisor context is cancelled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start brings up recurring dispatch, the metrics endpoint, the optional
// CSV feed, job-history recording, and config hot-reload.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	cfg := a.cfgm.Get()

	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if cfg.Scheduler.Workers < 1 {
			return fmt.Errorf("scheduler.workers must be >= 1")
		}
		if tz := strings.TrimSpace(cfg.Recurring.Timezone); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("recurring.timezone: invalid %q: %w", tz, err)
			}
		}
		return nil
	})

	a.rec.Start()
	a.mx.Apply(a.sup.Context(), metricsexport.Config{
		Enabled: cfg.Metrics.Enabled, Addr: cfg.Metrics.Addr, Path: cfg.Metrics.Path,
	})

	if a.hist != nil {
		a.wireHistoryRecording()
	}

	if a.feed != nil {
		a.sup.Go("csvfeed.run", a.feed.Run)
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(last, newCfg)
				last = newCfg
			}
		}
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

// applyConfig hot-swaps everything that can change without a restart:
// logging sinks, recurring timezone, and the metrics endpoint. The
// scheduler's worker count is fixed at construction time, so a
// changed scheduler.workers requires a process restart, and is only logged.
func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	a.log.Debug("config change summary", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)

	a.logs.Apply(toLogxConfig(newCfg.Logging))
	a.rec.Apply(toRecurringConfig(newCfg.Recurring))
	a.mx.Apply(a.sup.Context(), metricsexport.Config{
		Enabled: newCfg.Metrics.Enabled, Addr: newCfg.Metrics.Addr, Path: newCfg.Metrics.Path,
	})

	if oldCfg.Scheduler.Workers != newCfg.Scheduler.Workers {
		a.log.Warn("scheduler.workers changed but the worker pool is fixed at startup; restart to apply",
			logx.Int("old", oldCfg.Scheduler.Workers), logx.Int("new", newCfg.Scheduler.Workers))
	}

	a.log.Info("config reloaded", logx.String("changed", strings.Join(sections, ",")))
}

// wireHistoryRecording subscribes to job-completion, -failure, and
// -cancellation events and persists a JobRecord for each one. It is a
// passive observer: a slow or failing history store never blocks the
// scheduler.
func (a *App) wireHistoryRecording() {
	ch, unsubscribe := a.bus.Subscribe(32)
	a.sup.Go0("history.record", func(c context.Context) {
		defer unsubscribe()
		for {
			select {
			case <-c.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.Type != eventbus.JobCompleted && ev.Type != eventbus.JobFailed && ev.Type != eventbus.JobCancelled {
					continue
				}
				info, _ := ev.Data.(scheduler.JobInfo)
				rec := history.JobRecord{
					JobID:        uint64(info.ID),
					Priority:     info.Priority.String(),
					RunAt:        info.RunAt,
					EnqueuedAt:   info.EnqueuedAt,
					DispatchedAt: info.DispatchedAt,
					CompletedAt:  ev.Time,
					Duration:     info.Duration,
				}
				switch ev.Type {
				case eventbus.JobFailed:
					rec.Error = "job panicked"
				case eventbus.JobCancelled:
					rec.Cancelled = true
					rec.CompletedAt = ev.Time
				}
				appendCtx, cancel := context.WithTimeout(c, 2*time.Second)
				if err := a.hist.AppendRecord(appendCtx, rec); err != nil {
					a.log.Warn("history append failed", logx.Err(err))
				}
				cancel()
			}
		}
	})
}

// Stop tears down every component in stages. One 5s timeout (derived from
// ctx) bounds the metrics server shutdown and the wait for supervised
// goroutines; the scheduler's Graceful drain and the recurring stop are
// not time-bounded.
func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	a.sup.Cancel()

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_ = a.sched.Shutdown(scheduler.Graceful)
	a.rec.Stop()
	a.mx.Stop(stopCtx)
	if a.hist != nil {
		_ = a.hist.Close()
	}

	err := a.sup.Wait(stopCtx)
	_ = a.logs.Close()
	a.log.Info("stopped")
	return err
}
