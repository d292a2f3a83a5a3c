package pred

import (
	"context"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

func fetch(env *Env, v regu.Variable) (*regu.DBValue, error) {
	if env.Source == nil {
		return nil, nil
	}
	return env.Source.FetchPeekDBValue(v, env.OuterOID, env.InnerOID)
}

// isSemanticNull reports whether value is the logical NULL the evaluator
// must treat specially: either a nil DBValue, one with IsNull set, or (when
// the caller's domain is an object reference) an uninitialized OID. The
// oracle_style_empty_string compatibility fallback is applied by the
// session/variable layer, not here; this function mirrors only the core
// NULL test of query_evaluator.c.
func isSemanticNull(v *regu.DBValue) bool {
	if v == nil || v.IsNull {
		return true
	}
	if oid, ok := v.Data.(xexternal.OID); ok {
		return oid.IsNull()
	}
	return false
}

func evalComp(ctx context.Context, env *Env, n *CompTerm) ThreeVL {
	lhs, err := fetch(env, n.Lhs)
	if err != nil {
		return Error
	}

	switch n.Op {
	case RelNull:
		if isSemanticNull(lhs) {
			return True
		}
		return False
	case RelExists:
		return evalExists(ctx, env, n.Lhs)
	}

	rhs, err := fetch(env, n.Rhs)
	if err != nil {
		return Error
	}

	// Any NULL operand other than for EQ_TORDER or NULLSAFE_EQ yields
	// UNKNOWN, per §4.5.
	lhsNull, rhsNull := isSemanticNull(lhs), isSemanticNull(rhs)
	if (lhsNull || rhsNull) && n.Op != RelEQTOrder && n.Op != RelNullsafeEQ {
		return Unknown
	}

	switch n.Op {
	case RelEQTOrder:
		if lhsNull && rhsNull {
			return True
		}
		if lhsNull != rhsNull {
			return False
		}
		return compareToThreeVL(env, lhs, rhs, RelEQ, true)
	case RelNullsafeEQ:
		if lhsNull && rhsNull {
			return True
		}
		if lhsNull != rhsNull {
			return False
		}
		return compareToThreeVL(env, lhs, rhs, RelEQ, false)
	case RelSubset, RelSubsetEq, RelSuperset, RelSupersetEq:
		return evalSetComparison(env, lhs, rhs, n.Op)
	default:
		return compareToThreeVL(env, lhs, rhs, n.Op, false)
	}
}

func compareToThreeVL(env *Env, lhs, rhs *regu.DBValue, op RelOp, totalOrder bool) ThreeVL {
	if env.ValueDesc == nil {
		return Error
	}
	cmp, err := env.ValueDesc.Compare(lhs, rhs, true, totalOrder)
	if err != nil {
		return Error
	}
	if cmp == xexternal.CompareUnknown {
		return Error
	}
	ok := false
	switch op {
	case RelEQ:
		ok = cmp == xexternal.CompareEQ
	case RelNE:
		ok = cmp != xexternal.CompareEQ
	case RelLT:
		ok = cmp == xexternal.CompareLT
	case RelLE:
		ok = cmp == xexternal.CompareLT || cmp == xexternal.CompareEQ
	case RelGT:
		ok = cmp == xexternal.CompareGT
	case RelGE:
		ok = cmp == xexternal.CompareGT || cmp == xexternal.CompareEQ
	default:
		return Error
	}
	if ok {
		return True
	}
	return False
}

// multisetOf reduces a DBValue holding a set-like collection to a slice of
// its elements for element-wise multiset comparison. A nil value or a
// non-collection value reports ok=false.
func multisetOf(v *regu.DBValue) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	items, ok := v.Data.([]any)
	if !ok {
		return nil, false
	}
	return items, true
}

func evalSetComparison(env *Env, lhs, rhs *regu.DBValue, op RelOp) ThreeVL {
	a, aok := multisetOf(lhs)
	b, bok := multisetOf(rhs)
	if !aok || !bok {
		return Error
	}
	count := func(set []any, item any) int {
		n := 0
		for _, e := range set {
			if e == item {
				n++
			}
		}
		return n
	}
	subset := func(small, big []any) bool {
		for _, e := range small {
			if count(small, e) > count(big, e) {
				return false
			}
		}
		return true
	}
	switch op {
	case RelSubset:
		if subset(a, b) && len(a) < len(b) {
			return True
		}
		return False
	case RelSubsetEq:
		if subset(a, b) {
			return True
		}
		return False
	case RelSuperset:
		if subset(b, a) && len(b) < len(a) {
			return True
		}
		return False
	case RelSupersetEq:
		if subset(b, a) {
			return True
		}
		return False
	default:
		return Error
	}
}

func evalExists(ctx context.Context, env *Env, v regu.Variable) ThreeVL {
	if listVar, ok := v.(*regu.ListID); ok {
		if env.XASL != nil {
			if err := env.XASL.ExecuteReguVariableXASL(ctx, listVar, env.ValueDesc); err != nil {
				return Error
			}
			if env.XASL.ReguVariableXASLStatus(listVar) == xexternal.XASLError {
				return Error
			}
		}
	}
	val, err := fetch(env, v)
	if err != nil {
		return Error
	}
	if isSemanticNull(val) {
		return False
	}
	if items, ok := multisetOf(val); ok {
		if len(items) > 0 {
			return True
		}
		return False
	}
	// Treat a non-collection non-null value as a single-row EXISTS.
	return True
}

func evalALSM(ctx context.Context, env *Env, n *ALSMTerm, depth int) ThreeVL {
	if listVar, ok := n.ElemSet.(*regu.ListID); ok && env.XASL != nil {
		if err := env.XASL.ExecuteReguVariableXASL(ctx, listVar, env.ValueDesc); err != nil {
			return Error
		}
	}

	elem, err := fetch(env, n.Elem)
	if err != nil {
		return Error
	}
	setVal, err := fetch(env, n.ElemSet)
	if err != nil {
		return Error
	}
	items, ok := multisetOf(setVal)
	if !ok {
		return Error
	}

	if len(items) == 0 {
		if n.Flag == ALSMAll {
			return True
		}
		return False
	}

	if n.Flag == ALSMAll {
		// ALL is implemented by negating the operator and invoking SOME,
		// per §4.5.
		negated := negateRelOp(n.Op)
		some := evalALSMSome(env, elem, items, negated)
		return Neg(some)
	}
	return evalALSMSome(env, elem, items, n.Op)
}

func negateRelOp(op RelOp) RelOp {
	switch op {
	case RelEQ:
		return RelNE
	case RelNE:
		return RelEQ
	case RelLT:
		return RelGE
	case RelLE:
		return RelGT
	case RelGT:
		return RelLE
	case RelGE:
		return RelLT
	default:
		return op
	}
}

func evalALSMSome(env *Env, elem *regu.DBValue, items []any, op RelOp) ThreeVL {
	sawUnknown := false
	for _, raw := range items {
		rhs, ok := raw.(*regu.DBValue)
		if !ok {
			rhs = &regu.DBValue{Data: raw}
		}
		result := compareOrUnknown(env, elem, rhs, op)
		switch result {
		case True:
			return True
		case Unknown:
			sawUnknown = true
		case Error:
			return Error
		}
	}
	if sawUnknown {
		return Unknown
	}
	return False
}

func compareOrUnknown(env *Env, lhs, rhs *regu.DBValue, op RelOp) ThreeVL {
	if isSemanticNull(lhs) || isSemanticNull(rhs) {
		return Unknown
	}
	return compareToThreeVL(env, lhs, rhs, op, false)
}

func evalLike(ctx context.Context, env *Env, n *LikeTerm) ThreeVL {
	src, err := fetch(env, n.Src)
	if err != nil {
		return Error
	}
	pattern, err := fetch(env, n.Pattern)
	if err != nil {
		return Error
	}
	if isSemanticNull(src) || isSemanticNull(pattern) {
		return Unknown
	}
	var escChar rune
	if n.EscChar != nil {
		esc, err := fetch(env, n.EscChar)
		if err != nil {
			return Error
		}
		if s, ok := esc.Data.(string); ok && len(s) > 0 {
			escChar = []rune(s)[0]
		}
	}
	srcStr, sok := src.Data.(string)
	patStr, pok := pattern.Data.(string)
	if !sok || !pok {
		return Error
	}
	matched, err := likeMatch(srcStr, patStr, escChar)
	if err != nil {
		return Error
	}
	if matched {
		return True
	}
	return False
}

// likeMatch is a UTF-8-aware SQL LIKE matcher supporting '%' and '_'
// wildcards with an optional escape character.
func likeMatch(src, pattern string, escape rune) (bool, error) {
	s := []rune(src)
	p := []rune(pattern)
	return likeMatchRunes(s, p, escape), nil
}

func likeMatchRunes(s, p []rune, escape rune) bool {
	var memo = map[[2]int]bool{}
	var match func(si, pi int) bool
	match = func(si, pi int) bool {
		key := [2]int{si, pi}
		if v, ok := memo[key]; ok {
			return v
		}
		var res bool
		switch {
		case pi == len(p):
			res = si == len(s)
		case p[pi] == '%' && (escape == 0 || pi == 0 || p[pi-1] != escape):
			res = match(si, pi+1)
			if !res {
				for k := si; k < len(s) && !res; k++ {
					res = match(k+1, pi+1)
				}
			}
		case p[pi] == escape && escape != 0 && pi+1 < len(p):
			res = si < len(s) && s[si] == p[pi+1] && match(si+1, pi+2)
		case p[pi] == '_':
			res = si < len(s) && match(si+1, pi+1)
		default:
			res = si < len(s) && s[si] == p[pi] && match(si+1, pi+1)
		}
		memo[key] = res
		return res
	}
	return match(0, 0)
}

func evalRlike(ctx context.Context, env *Env, n *RlikeTerm) ThreeVL {
	src, err := fetch(env, n.Src)
	if err != nil {
		return Error
	}
	pattern, err := fetch(env, n.Pattern)
	if err != nil {
		return Error
	}
	if isSemanticNull(src) || isSemanticNull(pattern) {
		return Unknown
	}

	fn, ok := n.Pattern.(*regu.Func)
	var compiled *compiledRegex
	if ok {
		if c, ok := fn.Compiled.(*compiledRegex); ok {
			compiled = c
		}
	}

	patStr, pok := pattern.Data.(string)
	if !pok {
		return Error
	}
	caseSensitive := true
	if n.CaseSensitive != nil {
		cs, err := fetch(env, n.CaseSensitive)
		if err != nil {
			return Error
		}
		if b, ok := cs.Data.(bool); ok {
			caseSensitive = b
		}
	}

	if compiled == nil || compiled.pattern != patStr || compiled.caseSensitive != caseSensitive {
		re, err := compileRegex(patStr, caseSensitive)
		if err != nil {
			return Error
		}
		compiled = re
		if ok {
			fn.Compiled = compiled
		}
	}

	srcStr, sok := src.Data.(string)
	if !sok {
		return Error
	}
	if compiled.re.MatchString(srcStr) {
		return True
	}
	return False
}
