// Package scheduler implements a thread-safe, priority-and-deadline job
// scheduler: a fixed pool of workers dequeues jobs from a shared,
// time-ordered priority queue, respects each job's earliest-start time,
// supports lazy cancellation, applies bounded-queue backpressure, and
// offers Graceful and Immediate shutdown disciplines.
//
// The whole contract is guarded by a single mutex and a single condition
// variable (Scheduler.mu / Scheduler.cond); only the running, completed and
// total-wait counters used by Metrics are atomics, so they can be read
// lock-free.
package scheduler

import (
	"container/heap"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"schedulerd/internal/eventbus"
	logx "schedulerd/pkg/logx"
)

// Option configures optional collaborators on New. None of them are
// required for correctness; the scheduler behaves identically with a nil
// bus and a zero-value logger.
type Option func(*Scheduler)

func WithLogger(log logx.Logger) Option { return func(s *Scheduler) { s.log = log } }

func WithEventBus(bus eventbus.Bus) Option { return func(s *Scheduler) { s.bus = bus } }

// Scheduler is a running instance of the pool. Construct with New; it is
// immediately in the Running state and accepting submissions.
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	heap         jobHeap
	cancelled    map[ID]struct{}
	nextID       uint64
	accepting    bool
	stopWorkers  bool
	shutdownMode ShutdownMode
	maxQueueSize int

	// Lock-free metric counters, per §4.6.
	runningJobs   int64
	completedJobs uint64
	totalWaitNs   uint64

	workerWg sync.WaitGroup

	log logx.Logger
	bus eventbus.Bus
}

// New constructs the pool and immediately spawns cfg.Workers goroutines.
// It spawns cfg.Workers goroutines immediately; the pool is running as
// soon as New returns.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("scheduler: workers must be a positive integer, got %d", cfg.Workers)
	}
	if cfg.MaxQueueSize < 1 {
		return nil, fmt.Errorf("scheduler: max queue size must be a positive integer, got %d", cfg.MaxQueueSize)
	}

	s := &Scheduler{
		heap:         make(jobHeap, 0, cfg.MaxQueueSize),
		cancelled:    make(map[ID]struct{}),
		accepting:    true,
		maxQueueSize: cfg.MaxQueueSize,
		log:          logx.Nop(),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, o := range opts {
		o(s)
	}

	s.workerWg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go s.workerLoop()
	}
	return s, nil
}

// Submit accepts a job for execution no earlier than runAt. It returns the
// job's identifier, or ErrRejected if the scheduler is not accepting
// submissions or the queue is already at MaxQueueSize.
func (s *Scheduler) Submit(fn JobFunc, runAt time.Time, priority Priority) (ID, error) {
	if fn == nil {
		return 0, fmt.Errorf("scheduler: fn must not be nil")
	}

	s.mu.Lock()
	if !s.accepting || len(s.heap) >= s.maxQueueSize {
		s.mu.Unlock()
		if s.bus != nil {
			s.bus.Publish(eventbus.Event{Type: eventbus.JobDropped})
		}
		return 0, ErrRejected
	}

	s.nextID++
	id := ID(s.nextID)
	j := &job{
		id:         id,
		runAt:      runAt,
		priority:   priority,
		fn:         fn,
		enqueuedAt: time.Now(),
	}
	heap.Push(&s.heap, j)
	s.mu.Unlock()

	// Signal one worker: at most one new job became available, so waking
	// more would just waste cycles (§4.2).
	s.cond.Signal()

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.JobSubmitted, Data: j.info()})
	}
	return id, nil
}

// Cancel marks id as dead. It is a no-op, not an error, if id is unknown
// or the job already ran; it only fails once the scheduler has stopped
// accepting work (see the open question in DESIGN.md about that choice).
func (s *Scheduler) Cancel(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepting {
		return ErrRefused
	}
	s.cancelled[id] = struct{}{}
	if s.bus != nil {
		info := JobInfo{ID: id}
		if j := s.heap.find(id); j != nil {
			info = j.info()
		}
		s.bus.Publish(eventbus.Event{Type: eventbus.JobCancelled, Data: info})
	}
	return nil
}

// Metrics returns a lock-consistent snapshot. Queue depth is
// read under the mutex; running/completed counters are atomic and may be
// slightly skewed relative to the depth, which is acceptable here.
func (s *Scheduler) Metrics() Metrics {
	s.mu.Lock()
	queued := len(s.heap)
	s.mu.Unlock()

	completed := atomic.LoadUint64(&s.completedJobs)
	var avgMs float64
	if completed > 0 {
		avgMs = float64(atomic.LoadUint64(&s.totalWaitNs)) / float64(completed) / 1e6
	}
	return Metrics{
		Queued:    queued,
		Running:   atomic.LoadInt64(&s.runningJobs),
		AvgWaitMs: avgMs,
	}
}
