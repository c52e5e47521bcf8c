package scheduler

import (
	"schedulerd/internal/eventbus"
	logx "schedulerd/pkg/logx"
)

// Shutdown transitions the pool out of Running under mode and blocks until
// every worker has exited. It is idempotent: once the first
// call has joined all workers, later calls are no-ops, except that an
// Immediate call arriving while a Graceful drain is still in progress
// escalates by discarding whatever is still queued.
func (s *Scheduler) Shutdown(mode ShutdownMode) error {
	s.mu.Lock()
	dropped := 0
	s.accepting = false

	switch mode {
	case Immediate:
		s.shutdownMode = Immediate
		dropped = len(s.heap)
		s.heap = s.heap[:0]
		s.stopWorkers = true
	case Graceful:
		if s.shutdownMode != Immediate {
			s.shutdownMode = Graceful
		}
		if len(s.heap) == 0 {
			s.stopWorkers = true
		}
	}

	s.cond.Broadcast()
	s.mu.Unlock()

	if !s.log.IsZero() {
		s.log.Debug("scheduler shutdown requested", logx.String("mode", mode.String()), logx.Int("dropped", dropped))
	}
	if s.bus != nil {
		for i := 0; i < dropped; i++ {
			s.bus.Publish(eventbus.Event{Type: eventbus.JobDropped})
		}
	}

	s.workerWg.Wait()
	return nil
}
