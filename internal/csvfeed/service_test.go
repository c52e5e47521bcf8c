package csvfeed

import (
	"context"
	"testing"
	"time"

	"schedulerd/internal/scheduler"
	logx "schedulerd/pkg/logx"
)

// fakeReceiver replays a fixed list of lines, then reports the sentinel.
type fakeReceiver struct {
	lines []string
	i     int
}

func (f *fakeReceiver) Receive() (string, bool, error) {
	if f.i >= len(f.lines) {
		return "", false, nil
	}
	line := f.lines[f.i]
	f.i++
	return line, true, nil
}

func (f *fakeReceiver) Close() error { return nil }

func TestRunSubmitsParsedRecordsAndStopsOnSentinel(t *testing.T) {
	sched, err := scheduler.New(scheduler.Config{Workers: 2, MaxQueueSize: 32})
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	t.Cleanup(func() { sched.Shutdown(scheduler.Immediate) })

	recv := &fakeReceiver{lines: []string{
		"1,t,10,ON,ENGINE_OK",
		"not,a,valid,line", // malformed: dropped, not fatal
		"2,t,20,OFF,ENGINE_OVERHEAT",
	}}
	svc := NewWithReceiver(Config{}, recv, sched, logx.Nop(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := svc.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sched.Metrics().Queued == 0 && sched.Metrics().Running == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := sched.Metrics(); got.Queued != 0 {
		t.Fatalf("scheduler still has queued jobs after drain: %+v", got)
	}
}

func TestRunShutsDownSchedulerGracefully(t *testing.T) {
	sched, err := scheduler.New(scheduler.Config{Workers: 1, MaxQueueSize: 8})
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}

	recv := &fakeReceiver{lines: []string{"1,t,10,ON,ENGINE_OK"}}
	svc := NewWithReceiver(Config{}, recv, sched, logx.Nop(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := sched.Submit(func() {}, time.Now(), scheduler.Normal); err != scheduler.ErrRejected {
		t.Fatalf("Submit after graceful shutdown: got %v, want ErrRejected", err)
	}
}
