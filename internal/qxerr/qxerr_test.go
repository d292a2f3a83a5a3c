package qxerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(VariableNotFound, "session.GetVariable", errors.New("no such key"))
	if !errors.Is(err, ErrVariableNotFound) {
		t.Fatalf("expected errors.Is to match on code, got %v", err)
	}
	if errors.Is(err, ErrTooManyVariables) {
		t.Fatalf("did not expect code mismatch to match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Failed, "op", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected Unwrap to expose underlying cause")
	}
}

func TestErrorStringHasOpAndCode(t *testing.T) {
	err := New(SessionExpired, "session.Check")
	want := "session.Check: SESSION_EXPIRED"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

func TestWrappedErrorFormatting(t *testing.T) {
	err := Wrap(DomainConflict, "coerce", fmt.Errorf("cannot cast CHAR to SET"))
	if got := err.Error(); got == "" {
		t.Fatal("expected non-empty error string")
	}
}
