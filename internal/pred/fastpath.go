package pred

import "context"

// FastPathFunc is a specialized single-leaf evaluator closure returned by
// EvalFunc, matching eval_fnc's "specialized evaluator for predicates that
// match a recognized shape."
type FastPathFunc func(ctx context.Context, env *Env) ThreeVL

// fastPathKind is the closed, six-member specialization table named in the
// "Dynamic dispatch" design note: keep it small and closed, with no open
// extension points.
type fastPathKind int

const (
	fastPathNone fastPathKind = iota
	fastPathNullTest
	fastPathExists
	fastPathComparison
	fastPathALSM
	fastPathLike
	fastPathRlike
)

func classify(expr Expr) fastPathKind {
	switch n := expr.(type) {
	case *CompTerm:
		switch n.Op {
		case RelNull:
			return fastPathNullTest
		case RelExists:
			return fastPathExists
		default:
			return fastPathComparison
		}
	case *ALSMTerm:
		return fastPathALSM
	case *LikeTerm:
		return fastPathLike
	case *RlikeTerm:
		return fastPathRlike
	default:
		return fastPathNone
	}
}

// EvalFunc returns a specialized evaluator for expr when its shape matches
// one of the six recognized leaf kinds, and the general Eval closure
// otherwise, matching eval_fnc.
func EvalFunc(expr Expr) FastPathFunc {
	switch classify(expr) {
	case fastPathNullTest:
		n := expr.(*CompTerm)
		return func(ctx context.Context, env *Env) ThreeVL { return evalComp(ctx, env, n) }
	case fastPathExists:
		n := expr.(*CompTerm)
		return func(ctx context.Context, env *Env) ThreeVL { return evalExists(ctx, env, n.Lhs) }
	case fastPathComparison:
		n := expr.(*CompTerm)
		return func(ctx context.Context, env *Env) ThreeVL { return evalComp(ctx, env, n) }
	case fastPathALSM:
		n := expr.(*ALSMTerm)
		return func(ctx context.Context, env *Env) ThreeVL { return evalALSM(ctx, env, n, 0) }
	case fastPathLike:
		n := expr.(*LikeTerm)
		return func(ctx context.Context, env *Env) ThreeVL { return evalLike(ctx, env, n) }
	case fastPathRlike:
		n := expr.(*RlikeTerm)
		return func(ctx context.Context, env *Env) ThreeVL { return evalRlike(ctx, env, n) }
	default:
		return func(ctx context.Context, env *Env) ThreeVL { return Eval(ctx, env, expr) }
	}
}
