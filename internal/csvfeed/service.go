package csvfeed

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"schedulerd/internal/eventbus"
	"schedulerd/internal/scheduler"
	logx "schedulerd/pkg/logx"
)

// Service drains a Receiver and submits one scheduler job per record. The
// sentinel empty record drives sched through a Graceful shutdown.
type Service struct {
	log   logx.Logger
	bus   eventbus.Bus
	sched *scheduler.Scheduler
	recv  Receiver

	priority scheduler.Priority
	limiter  *rate.Limiter
}

// New constructs a Service reading from a real System V message queue per
// cfg. It returns an error immediately on unsupported platforms rather than
// failing lazily on first Receive.
func New(cfg Config, sched *scheduler.Scheduler, log logx.Logger, bus eventbus.Bus) (*Service, error) {
	recv, err := openSysVQueue(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithReceiver(cfg, recv, sched, log, bus), nil
}

// NewWithReceiver builds a Service over an arbitrary Receiver, letting
// tests substitute an in-memory double for the real message queue.
func NewWithReceiver(cfg Config, recv Receiver, sched *scheduler.Scheduler, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return &Service{
		log:      log,
		bus:      bus,
		sched:    sched,
		recv:     recv,
		priority: parsePriority(cfg.Priority),
		limiter:  limiter,
	}
}

func parsePriority(s string) scheduler.Priority {
	switch s {
	case "high":
		return scheduler.High
	case "low":
		return scheduler.Low
	default:
		return scheduler.Normal
	}
}

// Run reads records until ctx is cancelled, the transport reports it is
// idle, or the sentinel empty record arrives — at which point it calls
// Shutdown(Graceful) on the wired scheduler and returns nil.
func (s *Service) Run(ctx context.Context) error {
	defer s.recv.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, ok, err := s.recv.Receive()
		if err != nil {
			if errors.Is(err, errIdle) {
				return nil
			}
			s.log.Error("csvfeed receive failed", logx.Err(err))
			return err
		}
		if !ok {
			s.log.Info("csvfeed sentinel received, shutting down scheduler gracefully")
			return s.sched.Shutdown(scheduler.Graceful)
		}

		record, err := ParseRecord(line)
		if err != nil {
			s.log.Warn("csvfeed dropping malformed record", logx.Err(err), logx.String("line", line))
			continue
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		rec := record
		if _, err := s.sched.Submit(func() {
			s.log.Debug("processing telemetry record", logx.String("record", rec.String()))
		}, time.Now(), s.priority); err != nil {
			s.log.Warn("csvfeed submit rejected", logx.Err(err), logx.String("record", rec.String()))
		}
	}
}
