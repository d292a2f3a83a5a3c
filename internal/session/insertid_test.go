package session

import (
	"context"
	"testing"

	"github.com/cubrid/qxengine/internal/regu"
)

func TestSetCurInsertIDThenGetLastInsertIDFoldsPending(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.SetCurInsertID(id, fakeVD{}, &regu.DBValue{Data: 5}, false); err != nil {
		t.Fatalf("SetCurInsertID: %v", err)
	}

	got, err := m.GetLastInsertID(id, fakeVD{}, true)
	if err != nil {
		t.Fatalf("GetLastInsertID: %v", err)
	}
	if got.IsNull {
		t.Fatal("expected the pending insert id to have been folded into last-insert-id")
	}
}

func TestSetCurInsertIDWithoutForceIgnoredAfterGenerated(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.SetCurInsertID(id, fakeVD{}, &regu.DBValue{Data: 1}, false); err != nil {
		t.Fatalf("SetCurInsertID first: %v", err)
	}
	if err := m.SetCurInsertID(id, fakeVD{}, &regu.DBValue{Data: 2}, false); err != nil {
		t.Fatalf("SetCurInsertID second: %v", err)
	}

	st, err := m.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.CurInsertID.Data != "1" {
		t.Fatalf("CurInsertID.Data = %v, want the first value preserved (non-force no-op)", st.CurInsertID.Data)
	}
}

func TestSetCurInsertIDForceOverridesGenerated(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.SetCurInsertID(id, fakeVD{}, &regu.DBValue{Data: 1}, false); err != nil {
		t.Fatalf("SetCurInsertID first: %v", err)
	}
	if err := m.SetCurInsertID(id, fakeVD{}, &regu.DBValue{Data: 2}, true); err != nil {
		t.Fatalf("SetCurInsertID forced: %v", err)
	}

	st, err := m.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.CurInsertID.Data != "2" {
		t.Fatalf("CurInsertID.Data = %v, want 2 (force overrides)", st.CurInsertID.Data)
	}
}

func TestSetCurInsertIDSkippedDuringTrigger(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.SetTriggerState(id, true); err != nil {
		t.Fatalf("SetTriggerState: %v", err)
	}
	if err := m.SetCurInsertID(id, fakeVD{}, &regu.DBValue{Data: 9}, true); err != nil {
		t.Fatalf("SetCurInsertID: %v", err)
	}

	st, err := m.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !st.CurInsertID.IsNull {
		t.Fatal("SetCurInsertID should be a no-op while a trigger is involved")
	}
}

func TestResetCurInsertIDClearsPendingValue(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.SetCurInsertID(id, fakeVD{}, &regu.DBValue{Data: 5}, false); err != nil {
		t.Fatalf("SetCurInsertID: %v", err)
	}
	if err := m.ResetCurInsertID(id); err != nil {
		t.Fatalf("ResetCurInsertID: %v", err)
	}

	st, err := m.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !st.CurInsertID.IsNull || st.IsLastInsertIDGenerated {
		t.Fatal("ResetCurInsertID should clear the pending value and the generated flag")
	}
}

func TestRowCountRoundTrip(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.SetRowCount(id, 7); err != nil {
		t.Fatalf("SetRowCount: %v", err)
	}
	n, err := m.GetRowCount(id)
	if err != nil {
		t.Fatalf("GetRowCount: %v", err)
	}
	if n != 7 {
		t.Fatalf("RowCount = %d, want 7", n)
	}
}
