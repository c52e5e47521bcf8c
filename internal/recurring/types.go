package recurring

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"schedulerd/internal/eventbus"
	"schedulerd/internal/scheduler"
	logx "schedulerd/pkg/logx"
)

// Config controls the recurring dispatcher.
type Config struct {
	Enabled  bool
	Timezone string // IANA TZ, e.g. "Asia/Jakarta"; empty means time.Local
}

type scheduleDef struct {
	id      string
	name    string
	spec    string // cron spec, or "@every <dur>"
	entryID cron.EntryID

	priority scheduler.Priority
	fn       scheduler.JobFunc

	// running guards against overlapping fires of the same schedule: a slow
	// job body is skipped, not queued twice, on the next tick.
	running atomic.Bool
}

// Service registers cron/interval/once schedules and, on each fire, submits
// a job to the wrapped scheduler.Scheduler.
type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	loc *time.Location
	bus eventbus.Bus

	sched *scheduler.Scheduler

	parser cron.Parser
	c      *cron.Cron
	defs   []*scheduleDef

	tmu    sync.Mutex
	timers map[string]*time.Timer
	onceAt map[string]time.Time
}

// ScheduleInfo summarizes one registered recurring schedule for inspection.
type ScheduleInfo struct {
	Name string
	Spec string
	Next time.Time
}

// FireEvent is the payload published on eventbus.RecurringFired and
// eventbus.RecurringSkipped.
type FireEvent struct {
	Name string
	Spec string
}
