package main

import (
	"context"
	"testing"

	"github.com/cubrid/qxengine/internal/pred"
)

func TestLiteralVariableRecognizesNullIntAndText(t *testing.T) {
	n := literalVariable("42")
	got, err := constantSource{}.FetchPeekDBValue(n, nil, nil)
	if err != nil {
		t.Fatalf("FetchPeekDBValue: %v", err)
	}
	if got.IsNull || got.Data != int64(42) {
		t.Fatalf("literalVariable(42) = %+v, want int64(42)", got)
	}

	s := literalVariable("alice")
	got, err = constantSource{}.FetchPeekDBValue(s, nil, nil)
	if err != nil {
		t.Fatalf("FetchPeekDBValue: %v", err)
	}
	if got.IsNull || got.Data != "alice" {
		t.Fatalf("literalVariable(alice) = %+v, want string(alice)", got)
	}

	nullVal := literalVariable("null")
	got, err = constantSource{}.FetchPeekDBValue(nullVal, nil, nil)
	if err != nil {
		t.Fatalf("FetchPeekDBValue: %v", err)
	}
	if !got.IsNull {
		t.Fatalf("literalVariable(null) = %+v, want IsNull", got)
	}
}

func TestEvalCommandComparesLiteralsThreeValued(t *testing.T) {
	cases := []struct {
		lhs, op, rhs string
		want         pred.ThreeVL
	}{
		{"1", "lt", "2", pred.True},
		{"2", "lt", "1", pred.False},
		{"1", "eq", "null", pred.Unknown},
		{"alice", "eq", "alice", pred.True},
	}
	for _, c := range cases {
		expr := &pred.CompTerm{
			Lhs: literalVariable(c.lhs),
			Op:  evalOps[c.op],
			Rhs: literalVariable(c.rhs),
		}
		env := &pred.Env{ValueDesc: cliValueDescriptor{}, Source: constantSource{}}
		got := pred.Eval(context.Background(), env, expr)
		if got != c.want {
			t.Errorf("%s %s %s = %s, want %s", c.lhs, c.op, c.rhs, got, c.want)
		}
	}
}

func TestEvalCommandRejectsUnknownOp(t *testing.T) {
	if _, ok := evalOps["between"]; ok {
		t.Fatal("evalOps unexpectedly recognizes \"between\"")
	}
}
