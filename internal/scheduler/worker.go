package scheduler

import (
	"container/heap"
	"sync/atomic"
	"time"

	"schedulerd/internal/eventbus"
	logx "schedulerd/pkg/logx"
)

// workerLoop implements the worker's dequeue/wait/dispatch protocol. All queue/flag
// access happens under s.mu; only the closure invocation itself runs
// unlocked.
func (s *Scheduler) workerLoop() {
	defer s.workerWg.Done()

	s.mu.Lock()
	for {
		if s.stopWorkers {
			s.mu.Unlock()
			return
		}

		if len(s.heap) == 0 {
			if !s.accepting && s.shutdownMode == Graceful {
				// Drain complete: nothing left to wait for.
				s.stopWorkers = true
				s.cond.Broadcast()
				s.mu.Unlock()
				return
			}
			s.cond.Wait()
			continue
		}

		head := s.heap[0]
		now := time.Now()
		if head.runAt.After(now) {
			s.waitForChange(head.runAt)
			continue
		}

		j := heap.Pop(&s.heap).(*job)
		if _, dead := s.cancelled[j.id]; dead {
			delete(s.cancelled, j.id)
			continue
		}

		atomic.AddInt64(&s.runningJobs, 1)
		s.mu.Unlock()

		s.runJob(j)

		atomic.AddInt64(&s.runningJobs, -1)
		atomic.AddUint64(&s.completedJobs, 1)
		atomic.AddUint64(&s.totalWaitNs, uint64(time.Since(j.enqueuedAt).Nanoseconds()))

		s.mu.Lock()
	}
}

// runJob invokes j.fn, catching and discarding any panic: a
// broken job must never take down a worker.
func (s *Scheduler) runJob(j *job) {
	info := j.info()
	info.DispatchedAt = time.Now()

	defer func() {
		info.Duration = time.Since(info.DispatchedAt)
		if r := recover(); r != nil {
			if !s.log.IsZero() {
				s.log.Warn("job panicked", logx.Any("job_id", uint64(j.id)), logx.Any("panic", r))
			}
			if s.bus != nil {
				s.bus.Publish(eventbus.Event{Type: eventbus.JobFailed, Data: info})
			}
		} else if s.bus != nil {
			s.bus.Publish(eventbus.Event{Type: eventbus.JobCompleted, Data: info})
		}
	}()
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.JobDispatched, Data: info})
	}
	j.fn()
}

// waitForChange blocks the calling worker until one of: the pool is told
// to stop, the queue's head changes (a submission signals the condition
// variable on every insert, per §4.2), or deadline elapses. Must be called
// with s.mu held; returns with s.mu held.
//
// sync.Cond has no wait-with-timeout, so a timeout is simulated with a
// helper goroutine that performs the actual Wait call; on timeout we
// Broadcast to force it (and any other idle worker also timed-waiting) to
// recheck its own predicate. That extra wakeup is harmless: a worker whose
// own deadline hasn't changed just loops back into another timed wait.
//
// A single Broadcast on timeout can race the helper goroutine: if the timer
// fires before the helper has actually reached cond.Wait() and registered
// itself, the Broadcast finds no waiter and is lost, and the helper's later
// Wait call then blocks forever. Retrying the Broadcast on a short tick
// until the helper actually wakes closes that window instead of relying on
// a one-shot signal.
func (s *Scheduler) waitForChange(deadline time.Time) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	woke := make(chan struct{})
	go func() {
		s.cond.Wait() // unlocks s.mu while parked, relocks before returning
		close(woke)
	}()

	select {
	case <-woke:
		return
	case <-timer.C:
	}

	// Timed out: force the helper's Wait to return so we reacquire s.mu.
	retry := time.NewTicker(time.Millisecond)
	defer retry.Stop()
	for {
		s.cond.Broadcast()
		select {
		case <-woke:
			return
		case <-retry.C:
		}
	}
}
