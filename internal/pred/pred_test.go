package pred

import (
	"context"
	"testing"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// fakeValueSource resolves Constant regu variables directly, which is all
// these tests need from the fetch_peek_dbval contract.
type fakeValueSource struct{}

func (fakeValueSource) FetchPeekDBValue(v regu.Variable, _, _ any) (*regu.DBValue, error) {
	switch n := v.(type) {
	case *regu.Constant:
		return n.Value, nil
	case *countingConst:
		*n.calls++
		return n.value, nil
	}
	return nil, nil
}

// countingConst is a test-only regu.Variable that records how many times it
// was fetched, used to observe AND/OR short-circuit behavior directly rather
// than inferring it from the absence of a crash.
type countingConst struct {
	regu.Common
	value *regu.DBValue
	calls *int
}

func (c *countingConst) Kind() regu.Kind      { return regu.KindConstant }
func (c *countingConst) Common() *regu.Common { return &c.Common }

// fakeValueDescriptor compares DBValue.Data via Go's built-in ordering for
// ints, which is enough to exercise the comparison leaf logic.
type fakeValueDescriptor struct{}

func (fakeValueDescriptor) Compare(a, b *regu.DBValue, _, _ bool) (xexternal.CompareResult, error) {
	ai, aok := a.Data.(int)
	bi, bok := b.Data.(int)
	if !aok || !bok {
		return xexternal.CompareUnknown, nil
	}
	switch {
	case ai < bi:
		return xexternal.CompareLT, nil
	case ai > bi:
		return xexternal.CompareGT, nil
	default:
		return xexternal.CompareEQ, nil
	}
}
func (fakeValueDescriptor) Cast(v *regu.DBValue, _ regu.Domain) (*regu.DBValue, xexternal.CastStatus) {
	return v, xexternal.CastOK
}
func (fakeValueDescriptor) Clone(v *regu.DBValue) *regu.DBValue { return v.Clone() }
func (fakeValueDescriptor) Clear(*regu.DBValue)                 {}

func newEnv() *Env {
	return &Env{
		ValueDesc: fakeValueDescriptor{},
		Source:    fakeValueSource{},
	}
}

func constVal(v any) regu.Variable {
	if v == nil {
		return &regu.Constant{Value: &regu.DBValue{IsNull: true}}
	}
	return &regu.Constant{Value: &regu.DBValue{Data: v}}
}

func comp(lhs any, op RelOp, rhs any) Expr {
	return &CompTerm{Lhs: constVal(lhs), Op: op, Rhs: constVal(rhs)}
}

func TestInvariant5NotNegatesComparison(t *testing.T) {
	env := newEnv()
	cases := []struct {
		lhs, rhs any
		op       RelOp
	}{
		{5, RelGT, 3},
		{5, RelLT, 3},
		{5, RelEQ, 5},
		{5, RelNE, 5},
	}
	for _, c := range cases {
		base := Eval(context.Background(), env, comp(c.lhs, c.op, c.rhs))
		negated := Eval(context.Background(), env, &NotTerm{Child: comp(c.lhs, c.op, c.rhs)})
		if negated != Neg(base) {
			t.Fatalf("NOT(%v) = %v, want neg(%v) = %v", base, negated, base, Neg(base))
		}
	}
}

func TestInvariant6AndShortCircuits(t *testing.T) {
	env := newEnv()
	calls := 0
	falseExpr := comp(1, RelEQ, 2)
	rhs := &CompTerm{
		Lhs: &countingConst{value: &regu.DBValue{Data: 1}, calls: &calls},
		Op:  RelEQ,
		Rhs: &countingConst{value: &regu.DBValue{Data: 1}, calls: &calls},
	}

	result := Eval(context.Background(), env, &PredAndOr{Lhs: falseExpr, Rhs: rhs, Op: BoolAnd})
	if result != False {
		t.Fatalf("AND(FALSE, x) = %v, want FALSE", result)
	}
	if calls != 0 {
		t.Fatalf("rhs of AND should not be evaluated once lhs is FALSE, got %d fetches", calls)
	}

	// Sanity: when lhs is TRUE, rhs does get fetched.
	calls = 0
	trueExpr := comp(1, RelEQ, 1)
	if got := Eval(context.Background(), env, &PredAndOr{Lhs: trueExpr, Rhs: rhs, Op: BoolAnd}); got != True {
		t.Fatalf("AND(TRUE, TRUE) = %v, want TRUE", got)
	}
	if calls == 0 {
		t.Fatal("rhs of AND should be evaluated once lhs is TRUE")
	}
}

func TestInvariant7NullsafeEQ(t *testing.T) {
	env := newEnv()
	if got := Eval(context.Background(), env, comp(nil, RelNullsafeEQ, nil)); got != True {
		t.Fatalf("NULLSAFE_EQ(NULL,NULL) = %v, want TRUE", got)
	}
	if got := Eval(context.Background(), env, comp(nil, RelNullsafeEQ, 7)); got != False {
		t.Fatalf("NULLSAFE_EQ(NULL,7) = %v, want FALSE", got)
	}
	if got := Eval(context.Background(), env, comp(7, RelNullsafeEQ, 7)); got != True {
		t.Fatalf("NULLSAFE_EQ(7,7) = %v, want TRUE", got)
	}
}

func TestScenarioS4CombinedAndWithNulls(t *testing.T) {
	env := newEnv()
	build := func(a, b any) Expr {
		return &PredAndOr{
			Lhs: comp(a, RelGT, 10),
			Rhs: &CompTerm{Lhs: constVal(b), Op: RelNull},
			Op:  BoolAnd,
		}
	}
	if got := Eval(context.Background(), env, build(20, nil)); got != True {
		t.Fatalf("a=20,b=NULL: got %v want TRUE", got)
	}
	if got := Eval(context.Background(), env, build(5, nil)); got != False {
		t.Fatalf("a=5,b=NULL: got %v want FALSE", got)
	}
	if got := Eval(context.Background(), env, build(nil, nil)); got != Unknown {
		t.Fatalf("a=NULL,b=NULL: got %v want UNKNOWN", got)
	}
}

func TestRecursionGuardReturnsError(t *testing.T) {
	env := &Env{ValueDesc: fakeValueDescriptor{}, Source: fakeValueSource{}, MaxRecursionDepth: 2}
	// Build a NOT-chain deeper than the cap.
	var e Expr = comp(1, RelEQ, 1)
	for i := 0; i < 10; i++ {
		e = &NotTerm{Child: e}
	}
	if got := Eval(context.Background(), env, e); got != Error {
		t.Fatalf("expected ERROR past recursion cap, got %v", got)
	}
}

func TestALSMEmptySetRules(t *testing.T) {
	env := newEnv()
	emptySet := &regu.Constant{Value: &regu.DBValue{Data: []any{}}}
	allTerm := &ALSMTerm{Elem: constVal(1), ElemSet: emptySet, Op: RelEQ, Flag: ALSMAll}
	someTerm := &ALSMTerm{Elem: constVal(1), ElemSet: emptySet, Op: RelEQ, Flag: ALSMSome}
	if got := Eval(context.Background(), env, allTerm); got != True {
		t.Fatalf("ALL over empty set = %v, want TRUE", got)
	}
	if got := Eval(context.Background(), env, someTerm); got != False {
		t.Fatalf("SOME over empty set = %v, want FALSE", got)
	}
}

func TestLikeMatchesWildcardsAndUnknownOnNull(t *testing.T) {
	env := newEnv()
	like := &LikeTerm{Src: constVal("hello world"), Pattern: constVal("hello%")}
	if got := Eval(context.Background(), env, like); got != True {
		t.Fatalf("LIKE match: got %v want TRUE", got)
	}
	likeNull := &LikeTerm{Src: constVal(nil), Pattern: constVal("x%")}
	if got := Eval(context.Background(), env, likeNull); got != Unknown {
		t.Fatalf("LIKE with NULL src: got %v want UNKNOWN", got)
	}
}

func TestUpdateLogicalResultQualifiers(t *testing.T) {
	if got := UpdateLogicalResult(True, QualQualified); got != True {
		t.Fatalf("QUALIFIED+TRUE: got %v want TRUE", got)
	}
	if got := UpdateLogicalResult(True, QualNotQualified); got != False {
		t.Fatalf("NOT_QUALIFIED+TRUE: got %v want FALSE", got)
	}
	if got := UpdateLogicalResult(False, QualQualifiedOrNot); got != True {
		t.Fatalf("QUALIFIED_OR_NOT: got %v want TRUE", got)
	}
}
