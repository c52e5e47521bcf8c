package recurring

import (
	"sync/atomic"
	"testing"
	"time"

	"schedulerd/internal/scheduler"
	logx "schedulerd/pkg/logx"
)

func TestIntervalScheduleSubmitsRepeatedly(t *testing.T) {
	sched, err := scheduler.New(scheduler.Config{Workers: 2, MaxQueueSize: 32})
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	t.Cleanup(func() { sched.Shutdown(scheduler.Immediate) })

	svc := New(Config{Enabled: true}, sched, logx.Nop(), nil)
	svc.Start()
	t.Cleanup(svc.Stop)

	var fires int32
	if _, err := svc.AddInterval("tick", 20*time.Millisecond, scheduler.Normal, func() {
		atomic.AddInt32(&fires, 1)
	}); err != nil {
		t.Fatalf("AddInterval: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&fires) >= 3 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := atomic.LoadInt32(&fires); got < 3 {
		t.Fatalf("fires = %d, want >= 3", got)
	}
}

func TestRemoveStopsFutureFires(t *testing.T) {
	sched, err := scheduler.New(scheduler.Config{Workers: 1, MaxQueueSize: 8})
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	t.Cleanup(func() { sched.Shutdown(scheduler.Immediate) })

	svc := New(Config{Enabled: true}, sched, logx.Nop(), nil)
	svc.Start()
	t.Cleanup(svc.Stop)

	var fires int32
	if _, err := svc.AddInterval("tick", 15*time.Millisecond, scheduler.Normal, func() {
		atomic.AddInt32(&fires, 1)
	}); err != nil {
		t.Fatalf("AddInterval: %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	if !svc.Remove("tick") {
		t.Fatalf("Remove returned false for a registered schedule")
	}
	after := atomic.LoadInt32(&fires)
	time.Sleep(80 * time.Millisecond)
	if got := atomic.LoadInt32(&fires); got != after {
		t.Fatalf("schedule fired after Remove: before=%d after=%d", after, got)
	}
}
