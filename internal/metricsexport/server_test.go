package metricsexport

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"schedulerd/internal/scheduler"
	logx "schedulerd/pkg/logx"
)

func waitForHTTP(ctx context.Context, url string) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		reqCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
		if err != nil {
			cancel()
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		cancel()
		if err == nil && resp != nil {
			_ = resp.Body.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func TestServerApplyEnableDisable(t *testing.T) {
	sched, err := scheduler.New(scheduler.Config{Workers: 1, MaxQueueSize: 8})
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	t.Cleanup(func() { sched.Shutdown(scheduler.Immediate) })

	srv := New(sched, logx.Nop())
	t.Cleanup(func() { srv.Stop(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	srv.Apply(ctx, Config{Enabled: true, Addr: "127.0.0.1:0"})
	addr := srv.Addr()
	if addr == "" {
		t.Fatal("expected metrics server to expose address")
	}

	if err := waitForHTTP(ctx, "http://"+addr+"/metrics"); err != nil {
		t.Fatalf("metrics endpoint not reachable: %v", err)
	}

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "schedulerd_queued_jobs") {
		t.Fatalf("response missing schedulerd_queued_jobs metric: %s", body)
	}

	srv.Apply(ctx, Config{Enabled: false})
	if addr := srv.Addr(); addr != "" {
		t.Fatalf("expected metrics server to stop, still at %s", addr)
	}
}
