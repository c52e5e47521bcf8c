package recurring

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"schedulerd/internal/eventbus"
	"schedulerd/internal/scheduler"
	logx "schedulerd/pkg/logx"
)

// AddSchedule parses schedule and registers either a cron or interval entry
// under name, submitting fn at priority every time it fires.
//
// Supported schedule formats:
//   - Cron: "*/5 * * * *", "55 * * * *", "@hourly", "@every 55m"
//   - Interval duration: "55m", "2h30m"
//   - Interval HH:MM: "00:50" (50 minutes), "02:30" (2 hours 30 minutes)
func (s *Service) AddSchedule(name, schedule string, priority scheduler.Priority, fn scheduler.JobFunc) (string, error) {
	ps, err := ParseSchedule(schedule)
	if err != nil {
		return "", err
	}
	switch ps.Kind {
	case SpecCron:
		return s.AddCron(name, ps.Cron, priority, fn)
	case SpecInterval:
		return s.AddInterval(name, ps.Every, priority, fn)
	default:
		return "", fmt.Errorf("unsupported schedule kind")
	}
}

// AddCron registers a raw cron expression (robfig/cron syntax).
func (s *Service) AddCron(name, spec string, priority scheduler.Priority, fn scheduler.JobFunc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(name) == "" {
		return "", errors.New("name required")
	}
	s.removeScheduleLocked(name)

	d := &scheduleDef{
		id:       fmt.Sprintf("cron:%d", time.Now().UnixNano()),
		name:     name,
		spec:     spec,
		priority: priority,
		fn:       fn,
	}
	s.defs = append(s.defs, d)
	if s.c != nil {
		if err := s.addCronLocked(d); err != nil {
			s.log.Error("schedule register failed", logx.String("name", name), logx.String("spec", spec), logx.Err(err))
			return name, err
		}
		s.log.Debug("schedule registered", logx.String("name", name), logx.String("id", d.id), logx.String("spec", spec))
	}
	return name, nil
}

// AddInterval registers a fixed-period schedule.
func (s *Service) AddInterval(name string, every time.Duration, priority scheduler.Priority, fn scheduler.JobFunc) (string, error) {
	spec := fmt.Sprintf("@every %s", every.String())
	return s.AddCron(name, spec, priority, fn)
}

// AddDaily registers a schedule firing once a day at atHHMM (scheduler timezone).
func (s *Service) AddDaily(name, atHHMM string, priority scheduler.Priority, fn scheduler.JobFunc) (string, error) {
	h, m, err := parseHHMM(atHHMM)
	if err != nil {
		return "", err
	}
	spec := fmt.Sprintf("%d %d * * *", m, h)
	return s.AddCron(name, spec, priority, fn)
}

// AddWeekly registers a schedule firing once a week on weekday at atHHMM.
func (s *Service) AddWeekly(name string, weekday time.Weekday, atHHMM string, priority scheduler.Priority, fn scheduler.JobFunc) (string, error) {
	h, m, err := parseHHMM(atHHMM)
	if err != nil {
		return "", err
	}
	spec := fmt.Sprintf("%d %d * * %d", m, h, int(weekday))
	return s.AddCron(name, spec, priority, fn)
}

// AddOnce arms a one-time timer that submits fn to the scheduler at at.
func (s *Service) AddOnce(name string, at time.Time, priority scheduler.Priority, fn scheduler.JobFunc) (string, error) {
	if name == "" {
		return "", errors.New("name required")
	}
	if at.IsZero() {
		return "", errors.New("at required")
	}

	s.mu.Lock()
	loc := s.loc
	s.removeScheduleLocked(name)
	s.mu.Unlock()
	if loc == nil {
		loc = time.Local
	}
	runAt := at.In(loc)

	s.tmu.Lock()
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
	s.onceAt[name] = runAt
	delay := time.Until(runAt)
	if delay < 0 {
		delay = 0
	}
	localName := name
	timer := time.AfterFunc(delay, func() {
		s.tmu.Lock()
		scheduledAt, ok := s.onceAt[localName]
		if !ok || !scheduledAt.Equal(runAt) {
			s.tmu.Unlock()
			return
		}
		delete(s.timers, localName)
		delete(s.onceAt, localName)
		s.tmu.Unlock()

		if _, err := s.sched.Submit(fn, time.Now(), priority); err != nil {
			s.log.Warn("once-schedule submit failed", logx.String("name", localName), logx.Err(err))
			return
		}
		if s.bus != nil {
			s.bus.Publish(eventbus.Event{Type: eventbus.RecurringFired, Data: FireEvent{Name: localName, Spec: "@once"}})
		}
	})
	s.timers[name] = timer
	s.tmu.Unlock()

	return name, nil
}

// Remove unregisters name, whether it is a cron/interval entry or a pending
// one-time timer. It returns true if something was removed.
func (s *Service) Remove(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	removed := s.removeScheduleLocked(name)
	s.mu.Unlock()

	s.tmu.Lock()
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
		removed = true
	}
	if _, ok := s.onceAt[name]; ok {
		delete(s.onceAt, name)
		removed = true
	}
	s.tmu.Unlock()

	if removed {
		s.log.Debug("schedule removed", logx.String("name", name))
	}
	return removed
}

// removeScheduleLocked drops all defs matching name and unregisters them
// from cron if running. Call with s.mu held.
func (s *Service) removeScheduleLocked(name string) bool {
	removed := false
	if s.c != nil {
		for _, d := range s.defs {
			if d.name == name && d.entryID != 0 {
				s.c.Remove(d.entryID)
				d.entryID = 0
				removed = true
			}
		}
	}
	n := 0
	for _, d := range s.defs {
		if d.name == name {
			removed = true
			continue
		}
		s.defs[n] = d
		n++
	}
	s.defs = s.defs[:n]
	return removed
}

// addCronLocked wires d into the running cron.Cron, submitting a scheduler
// job every time it fires. Overlapping fires of the same schedule are
// skipped, not queued, if the previous submission's job is still running.
func (s *Service) addCronLocked(d *scheduleDef) error {
	spec := strings.TrimSpace(d.spec)
	fire := cron.FuncJob(func() {
		if !d.running.CompareAndSwap(false, true) {
			s.log.Debug("recurring fire skipped, previous run still in flight", logx.String("name", d.name))
			if s.bus != nil {
				s.bus.Publish(eventbus.Event{Type: eventbus.RecurringSkipped, Data: FireEvent{Name: d.name, Spec: d.spec}})
			}
			return
		}
		wrapped := func() {
			defer d.running.Store(false)
			d.fn()
		}
		if _, err := s.sched.Submit(wrapped, time.Now(), d.priority); err != nil {
			d.running.Store(false)
			s.log.Warn("recurring submit failed", logx.String("name", d.name), logx.Err(err))
			return
		}
		if s.bus != nil {
			s.bus.Publish(eventbus.Event{Type: eventbus.RecurringFired, Data: FireEvent{Name: d.name, Spec: d.spec}})
		}
	})

	if strings.HasPrefix(spec, "@every") {
		everyStr := strings.TrimSpace(strings.TrimPrefix(spec, "@every"))
		if every, err := time.ParseDuration(everyStr); err == nil && every > 0 {
			loc := s.loc
			if loc == nil {
				loc = time.Local
			}
			sched, _ := makeIntervalScheduleWithSpread(every, time.Now().In(loc), d.name)
			d.entryID = s.c.Schedule(sched, fire)
			return nil
		}
	}

	eid, err := s.c.AddJob(d.spec, fire)
	if err == nil {
		d.entryID = eid
	}
	return err
}

func (s *Service) restartLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
	}
	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	for _, d := range s.defs {
		_ = s.addCronLocked(d)
	}
	s.c.Start()
	s.log.Info("recurring service restarted", logx.String("tz", loc.String()), logx.Int("schedules", len(s.defs)))
}
