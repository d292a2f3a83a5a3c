// Package pred implements the 3-valued-logic predicate evaluator over the
// REGU expression tree, mirroring CUBRID's query_evaluator.c and the
// cubxasl::pred_expr tagged union declared in xasl_predicate.hpp. The Go
// tree-walk shape (a small Eval entry point plus per-leaf-kind helpers) is
// grounded in the teacher's internal/query/evaluator.go.
package pred

import (
	"context"

	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// ThreeVL is the four-state result of predicate evaluation: the three
// logical values plus the out-of-band ERROR.
type ThreeVL int

const (
	Unknown ThreeVL = iota
	True
	False
	Error
)

func (v ThreeVL) String() string {
	switch v {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	case Unknown:
		return "UNKNOWN"
	default:
		return "ERROR"
	}
}

// Neg implements the involution used by invariant 5:
// neg(TRUE)=FALSE, neg(FALSE)=TRUE, neg(UNKNOWN)=UNKNOWN, neg(ERROR)=ERROR.
func Neg(v ThreeVL) ThreeVL {
	switch v {
	case True:
		return False
	case False:
		return True
	default:
		return v
	}
}

// BoolOp enumerates PRED's boolean combinators (BOOL_OP).
type BoolOp int

const (
	BoolAnd BoolOp = iota
	BoolOr
	BoolXor
	BoolIs
	BoolIsNot
)

// RelOp enumerates COMP's relational operators (REL_OP), restricted to the
// subset named in spec.md §3.
type RelOp int

const (
	RelEQ RelOp = iota
	RelEQTOrder
	RelNE
	RelLT
	RelLE
	RelGT
	RelGE
	RelNull
	RelExists
	RelSubset
	RelSubsetEq
	RelSuperset
	RelSupersetEq
	RelNullsafeEQ
)

// ALSMFlag distinguishes ALL from SOME quantification.
type ALSMFlag int

const (
	ALSMAll ALSMFlag = iota
	ALSMSome
)

// Expr is the closed tagged-tree interface mirroring cubxasl::pred_expr: a
// PRED combinator, an EVAL_TERM leaf, or a NOT_TERM wrapper.
type Expr interface {
	exprNode()
}

// PredAndOr is the PRED variant: lhs BoolOp rhs.
type PredAndOr struct {
	Lhs    Expr
	Rhs    Expr
	Op     BoolOp
	SpecIdent string // table/scope tag for CNF leaves; empty when not tagged
	IsCNFStart bool
}

func (*PredAndOr) exprNode() {}

// NotTerm negates its single child.
type NotTerm struct {
	Child Expr
}

func (*NotTerm) exprNode() {}

// CompTerm is a COMP leaf: lhs REL_OP rhs.
type CompTerm struct {
	Lhs, Rhs  regu.Variable
	Op        RelOp
	SpecIdent string
	IsCNFStart bool
}

func (*CompTerm) exprNode() {}

// ALSMTerm is an ALL/SOME quantified leaf: elem REL_OP ALL|SOME (elemSet).
type ALSMTerm struct {
	Elem      regu.Variable
	ElemSet   regu.Variable
	Op        RelOp
	Flag      ALSMFlag
	SpecIdent string
}

func (*ALSMTerm) exprNode() {}

// LikeTerm is a LIKE leaf.
type LikeTerm struct {
	Src, Pattern, EscChar regu.Variable
	SpecIdent             string
}

func (*LikeTerm) exprNode() {}

// RlikeTerm is a RLIKE (regex) leaf; the compiled regex is memoized on the
// Src/Pattern regu.Func node per §4.5, not here.
type RlikeTerm struct {
	Src, Pattern, CaseSensitive regu.Variable
	SpecIdent                   string
}

func (*RlikeTerm) exprNode() {}

// Qualification is the scan qualifier state machine input/output of
// update_logical_result.
type Qualification int

const (
	QualQualified Qualification = iota
	QualNotQualified
	QualQualifiedOrNot
)

// Env bundles everything Eval needs from the surrounding XASL runtime: the
// value descriptor, the XASL runtime, the value source, the correlated
// outer/inner object ids and the recursion cap. Cancellation (the
// "interrupt flag" of §5) comes from the ctx passed to Eval, not from Env.
type Env struct {
	ValueDesc   xexternal.ValueDescriptor
	XASL        xexternal.XASLRuntime
	Source      regu.ValueSource
	OuterOID    any
	InnerOID    any
	MaxRecursionDepth int
	OracleStyleEmptyString bool
}

func (e *Env) maxDepth() int {
	if e.MaxRecursionDepth <= 0 {
		return 1000
	}
	return e.MaxRecursionDepth
}

// Eval evaluates expr to a 3VL result, implementing the AND/OR/XOR/IS/NOT
// rules of §4.5 exactly, including AND/OR short-circuiting.
func Eval(ctx context.Context, env *Env, expr Expr) ThreeVL {
	return evalDepth(ctx, env, expr, 0)
}

func evalDepth(ctx context.Context, env *Env, expr Expr, depth int) ThreeVL {
	if depth > env.maxDepth() {
		return Error
	}
	select {
	case <-ctx.Done():
		return Error
	default:
	}
	if expr == nil {
		return Error
	}

	switch n := expr.(type) {
	case *PredAndOr:
		return evalAndOr(ctx, env, n, depth)
	case *NotTerm:
		child := evalDepth(ctx, env, n.Child, depth+1)
		switch child {
		case True:
			return False
		case False:
			return True
		default:
			return child // UNKNOWN and ERROR pass through unchanged
		}
	case *CompTerm:
		return evalComp(ctx, env, n)
	case *ALSMTerm:
		return evalALSM(ctx, env, n, depth)
	case *LikeTerm:
		return evalLike(ctx, env, n)
	case *RlikeTerm:
		return evalRlike(ctx, env, n)
	default:
		return Error
	}
}

func evalAndOr(ctx context.Context, env *Env, n *PredAndOr, depth int) ThreeVL {
	switch n.Op {
	case BoolAnd:
		lhs := evalDepth(ctx, env, n.Lhs, depth+1)
		if lhs == Error {
			return Error
		}
		if lhs == False {
			return False // short-circuit: rhs is not evaluated
		}
		rhs := evalDepth(ctx, env, n.Rhs, depth+1)
		if rhs == Error {
			return Error
		}
		if rhs == False {
			return False
		}
		if lhs == Unknown || rhs == Unknown {
			return Unknown
		}
		return True
	case BoolOr:
		lhs := evalDepth(ctx, env, n.Lhs, depth+1)
		if lhs == Error {
			return Error
		}
		if lhs == True {
			return True // short-circuit: rhs is not evaluated
		}
		rhs := evalDepth(ctx, env, n.Rhs, depth+1)
		if rhs == Error {
			return Error
		}
		if rhs == True {
			return True
		}
		if lhs == Unknown || rhs == Unknown {
			return Unknown
		}
		return False
	case BoolXor:
		lhs := evalDepth(ctx, env, n.Lhs, depth+1)
		if lhs == Error {
			return Error
		}
		rhs := evalDepth(ctx, env, n.Rhs, depth+1)
		if rhs == Error {
			return Error
		}
		if lhs == Unknown || rhs == Unknown {
			return Unknown
		}
		if lhs == rhs {
			return False
		}
		return True
	case BoolIs, BoolIsNot:
		lhs := evalDepth(ctx, env, n.Lhs, depth+1)
		if lhs == Error {
			return Error
		}
		rhs := evalDepth(ctx, env, n.Rhs, depth+1)
		if rhs == Error {
			return Error
		}
		equal := lhs == rhs
		if n.Op == BoolIsNot {
			equal = !equal
		}
		if equal {
			return True
		}
		return False
	default:
		return Error
	}
}

// UpdateLogicalResult applies a scan qualifier to a 3VL result, mirroring
// update_logical_result's state-machine helper.
func UpdateLogicalResult(v ThreeVL, qual Qualification) ThreeVL {
	switch qual {
	case QualQualified:
		if v == True {
			return True
		}
		return False
	case QualNotQualified:
		if v == True {
			return False
		}
		return True
	default: // QualQualifiedOrNot
		return True
	}
}

// EvalDataFilter evaluates expr against a heap record, populating the
// attribute cache from record via the HeapReader as needed, matching
// eval_data_filter.
func EvalDataFilter(ctx context.Context, env *Env, heap xexternal.HeapReader, oid xexternal.OID, record []byte, cache any, expr Expr) ThreeVL {
	if err := heap.AttrInfoRead(ctx, oid, record, cache); err != nil {
		return Error
	}
	return Eval(ctx, env, expr)
}

// EvalKeyFilter evaluates expr for a multi-column index key, in the place of
// eval_key_filter. It does not call locate and does no projection of its
// own: leaf values come from env.Source exactly as in Eval.
func EvalKeyFilter(ctx context.Context, env *Env, locate func(column int) (*regu.DBValue, error), expr Expr) ThreeVL {
	_ = locate // columns are pulled lazily by leaf evaluation through env.Source
	return Eval(ctx, env, expr)
}

var errRecursion = qxerr.New(qxerr.MaxRecursionSQLDepth, "pred.Eval")

// RecursionError is returned by callers that want to distinguish a
// recursion-depth failure from other ERROR outcomes.
func RecursionError() error { return errRecursion }
