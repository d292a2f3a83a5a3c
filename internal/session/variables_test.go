package session

import (
	"context"
	"errors"
	"testing"

	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/regu"
)

func TestSetAndGetVariableRoundTrip(t *testing.T) {
	m := newTestManager()
	id, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.SetVariable(id, fakeVD{}, "my_var", &regu.DBValue{Data: 42}); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	got, err := m.GetVariable(id, fakeVD{}, "MY_VAR")
	if err != nil {
		t.Fatalf("GetVariable (case-insensitive): %v", err)
	}
	if got.Data != 42 {
		t.Fatalf("GetVariable value = %v, want 42", got.Data)
	}
}

func TestSetVariableUpdatesExistingInPlace(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.SetVariable(id, fakeVD{}, "v", &regu.DBValue{Data: 1}); err != nil {
		t.Fatalf("SetVariable first: %v", err)
	}
	if err := m.SetVariable(id, fakeVD{}, "v", &regu.DBValue{Data: 2}); err != nil {
		t.Fatalf("SetVariable update: %v", err)
	}

	st, err := m.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(st.Variables) != 1 {
		t.Fatalf("len(Variables) = %d, want 1 (update in place, not append)", len(st.Variables))
	}
}

func TestSetVariableCapEnforced(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	for i := 0; i < MaxSessionVariables; i++ {
		name := string(rune('a' + i))
		if err := m.SetVariable(id, fakeVD{}, name, &regu.DBValue{Data: i}); err != nil {
			t.Fatalf("SetVariable[%d]: %v", i, err)
		}
	}

	err := m.SetVariable(id, fakeVD{}, "one_too_many", &regu.DBValue{Data: 0})
	if !errors.Is(err, qxerr.ErrTooManyVariables) {
		t.Fatalf("got %v, want TooManyVariables", err)
	}
}

func TestGetVariableNotFound(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	_, err := m.GetVariable(id, fakeVD{}, "nope")
	if !errors.Is(err, qxerr.ErrVariableNotFound) {
		t.Fatalf("got %v, want VariableNotFound", err)
	}
}

func TestDropVariableUnknownNameIsNotAnError(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.DropVariable(id, "nope"); err != nil {
		t.Fatalf("DropVariable of unknown name should succeed silently, got %v", err)
	}
}

func TestDropVariableRemovesIt(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.SetVariable(id, fakeVD{}, "v", &regu.DBValue{Data: "x"}); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}
	if err := m.DropVariable(id, "V"); err != nil {
		t.Fatalf("DropVariable: %v", err)
	}
	if _, err := m.GetVariable(id, fakeVD{}, "v"); !errors.Is(err, qxerr.ErrVariableNotFound) {
		t.Fatal("variable should be gone after DropVariable")
	}
}
