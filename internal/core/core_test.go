package core

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cubrid/qxengine/internal/sysparam"
	"github.com/cubrid/qxengine/internal/telemetry"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	c, err := New(context.Background(), Config{
		SessionTableSize:  16,
		WorkerPoolSize:    2,
		TaskQueueCapacity: 8,
		ReaperInterval:    10 * time.Millisecond,
		Params:            sysparam.NewManager(),
		Logger:            telemetry.Discard(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSubmitRunsTaskOnWorkerPool(t *testing.T) {
	c := newTestCore(t)
	c.Start(context.Background())
	defer c.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	if err := c.Submit(1, func(ctx context.Context) error {
		ran = true
		wg.Done()
		return nil
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	if !ran {
		t.Fatal("expected the submitted task to run")
	}
}

func TestSubmitAfterStopFails(t *testing.T) {
	c := newTestCore(t)
	c.Start(context.Background())
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := c.Submit(1, func(ctx context.Context) error { return nil }); err == nil {
		t.Fatal("expected Submit to fail once the Core has stopped")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := newTestCore(t)
	c.Start(context.Background())

	if err := c.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestReaperSweepsExpiredSessions(t *testing.T) {
	// Sweep reads the process-wide parameter table, not a per-session
	// override, so a zero session_state_timeout has to come from a loaded
	// config file.
	path := filepath.Join(t.TempDir(), "qxengine.yaml")
	if err := os.WriteFile(path, []byte("session_state_timeout: 0\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	params, err := sysparam.Load(path)
	if err != nil {
		t.Fatalf("sysparam.Load: %v", err)
	}

	c, err := New(context.Background(), Config{
		SessionTableSize:  16,
		WorkerPoolSize:    2,
		TaskQueueCapacity: 8,
		ReaperInterval:    10 * time.Millisecond,
		Params:            params,
		Logger:            telemetry.Discard(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, err := c.Sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	c.Start(context.Background())
	defer c.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := c.Sessions.Check(id); err != nil {
			return // swept
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the reaper to eventually sweep the expired session")
}
