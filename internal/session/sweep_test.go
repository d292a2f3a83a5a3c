package session

import (
	"context"
	"testing"
	"time"

	"github.com/cubrid/qxengine/internal/sysparam"
)

func TestSweepRemovesOnlyExpiredInactiveSessions(t *testing.T) {
	params := sysparam.NewManager()
	m := NewManager(64, params)

	start := time.Unix(1_000_000, 0)
	restore := nowFunc
	nowFunc = func() time.Time { return start }
	defer func() { nowFunc = restore }()

	stale, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create stale: %v", err)
	}
	fresh, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create fresh: %v", err)
	}
	staleButActive, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create staleButActive: %v", err)
	}

	timeout := time.Duration(params.Get().SessionStateTimeoutSeconds) * time.Second
	nowFunc = func() time.Time { return start.Add(timeout + time.Second) }

	// Check(fresh) bumps its ActiveTime to "now", so it should survive.
	if _, err := m.Check(fresh); err != nil {
		t.Fatalf("Check fresh: %v", err)
	}
	if err := m.Release(fresh); err != nil {
		t.Fatalf("Release fresh: %v", err)
	}

	isActive := func(id uint32) bool { return id == staleButActive }

	removed, err := m.Sweep(context.Background(), isActive)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1 (only the stale+inactive session)", removed)
	}

	if _, err := m.Check(stale); err == nil {
		t.Fatal("stale session should have been swept")
	}
	if _, err := m.Check(staleButActive); err != nil {
		t.Fatal("staleButActive session should survive because isActive reported it live")
	} else {
		m.Release(staleButActive)
	}
	if _, err := m.Check(fresh); err != nil {
		t.Fatal("fresh session should survive the sweep")
	} else {
		m.Release(fresh)
	}
}

func TestSweepWithNilIsActiveRemovesAllExpired(t *testing.T) {
	params := sysparam.NewManager()
	m := NewManager(64, params)

	start := time.Unix(2_000_000, 0)
	restore := nowFunc
	nowFunc = func() time.Time { return start }
	defer func() { nowFunc = restore }()

	id, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	timeout := time.Duration(params.Get().SessionStateTimeoutSeconds) * time.Second
	nowFunc = func() time.Time { return start.Add(timeout + time.Second) }

	removed, err := m.Sweep(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := m.Check(id); err == nil {
		t.Fatal("session should have been swept")
	}
}
