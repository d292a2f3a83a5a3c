// Package cnf normalizes a predicate tree (internal/pred) into conjunctive
// or disjunctive normal form, mirroring CUBRID's cnf.c. The PT_NODE next/
// or_next threading of the original is modeled here as an explicit linked
// Form list rather than bolted onto the predicate variant structs, keeping
// internal/pred free of rewrite-only bookkeeping fields.
package cnf

import (
	"reflect"

	"github.com/cubrid/qxengine/internal/pred"
)

// orTreeSizeThreshold is the and_or conjunct x disjunct count above which
// full CNF expansion is abandoned in favor of OR-tree compaction, mirroring
// count_and_or's ">100" pruning constant.
const orTreeSizeThreshold = 100

// Form is one link of a normalized predicate list. For a CNF list (the
// result of ToCNF) the outer chain threaded by Next is a conjunction and
// each node's own Or chain is the disjunction within that conjunct, exactly
// as cnf.c threads conjuncts through PT_NODE.next and disjuncts through
// PT_NODE.or_next. ToDNF returns the same shape with the roles of Next and
// Or swapped: the outer chain is a disjunction of conjunctions.
type Form struct {
	Leaf       pred.Expr
	Or         *Form
	Next       *Form
	SpecIdent  string
	IsCNFStart bool
}

// ToCNF normalizes expr to conjunctive normal form: a Next-list of
// conjuncts, each an Or-list of disjuncts, per spec.md's CNF/DNF Rewriter
// phases (and/or form, choose mode, expand).
func ToCNF(expr pred.Expr) *Form {
	return normalize(expr, pred.BoolAnd)
}

// ToDNF normalizes expr to disjunctive normal form: a Next-list of
// disjuncts, each an Or-list (here an AND-chain) of conjuncts — the dual of
// ToCNF, distributing OR over AND instead of AND over OR.
func ToDNF(expr pred.Expr) *Form {
	return normalize(expr, pred.BoolOr)
}

func normalize(expr pred.Expr, outer pred.BoolOp) *Form {
	if expr == nil {
		return nil
	}
	andOr := toAndOrForm(expr)

	var list *Form
	if countAndOr(andOr) > orTreeSizeThreshold {
		list = expandCompact(andOr, outer)
	} else {
		list = distribute(andOr, outer)
	}
	markCNFStart(list)
	return list
}

// toAndOrForm pushes NOT inward using De Morgan's laws, collapses NOT NOT x
// to x, and rewrites negated comparisons to their operator complement when
// one exists, mirroring pt_and_or_form/pt_negate_expr.
func toAndOrForm(expr pred.Expr) pred.Expr {
	switch n := expr.(type) {
	case *pred.PredAndOr:
		if n.Op == pred.BoolAnd || n.Op == pred.BoolOr {
			return &pred.PredAndOr{
				Lhs: toAndOrForm(n.Lhs),
				Rhs: toAndOrForm(n.Rhs),
				Op:  n.Op,
			}
		}
		return n // XOR/IS/IS_NOT are treated as atomic, matching pt_and_or_form's default case
	case *pred.NotTerm:
		return negate(n.Child)
	default:
		return expr
	}
}

// negate returns the and/or form of NOT(expr), mirroring pt_negate_expr
// folded together with pt_and_or_form's NOT-unfolding switch.
func negate(expr pred.Expr) pred.Expr {
	switch n := expr.(type) {
	case *pred.NotTerm:
		// NOT (NOT expr) == expr
		return toAndOrForm(n.Child)
	case *pred.PredAndOr:
		switch n.Op {
		case pred.BoolAnd:
			// NOT (a AND b) == (NOT a) OR (NOT b)
			return &pred.PredAndOr{Op: pred.BoolOr, Lhs: negate(n.Lhs), Rhs: negate(n.Rhs)}
		case pred.BoolOr:
			// NOT (a OR b) == (NOT a) AND (NOT b)
			return &pred.PredAndOr{Op: pred.BoolAnd, Lhs: negate(n.Lhs), Rhs: negate(n.Rhs)}
		default:
			return &pred.NotTerm{Child: n}
		}
	case *pred.CompTerm:
		if complement, ok := negateRelOp(n.Op); ok {
			return &pred.CompTerm{Lhs: n.Lhs, Rhs: n.Rhs, Op: complement, SpecIdent: n.SpecIdent}
		}
		return &pred.NotTerm{Child: n}
	default:
		return &pred.NotTerm{Child: expr}
	}
}

// negateRelOp returns the operator complement used by pt_negate_op, and
// false when no complement exists (EXISTS, NULL, the set operators, and
// NULLSAFE_EQ have none, matching the original's ENUM-indexed complement
// table leaving those slots at zero).
func negateRelOp(op pred.RelOp) (pred.RelOp, bool) {
	switch op {
	case pred.RelEQ:
		return pred.RelNE, true
	case pred.RelNE:
		return pred.RelEQ, true
	case pred.RelLT:
		return pred.RelGE, true
	case pred.RelGE:
		return pred.RelLT, true
	case pred.RelLE:
		return pred.RelGT, true
	case pred.RelGT:
		return pred.RelLE, true
	default:
		return 0, false
	}
}

// countAndOr estimates the number of leaves CNF expansion would produce:
// AND sums, OR multiplies, with the same early-exit pruning as count_and_or
// once the left subtree alone already exceeds the threshold.
func countAndOr(expr pred.Expr) int {
	n, ok := expr.(*pred.PredAndOr)
	if !ok || (n.Op != pred.BoolAnd && n.Op != pred.BoolOr) {
		return 1
	}
	left := countAndOr(n.Lhs)
	if left > orTreeSizeThreshold {
		return left
	}
	right := countAndOr(n.Rhs)
	if n.Op == pred.BoolAnd {
		return left + right
	}
	return left * right
}

// distribute performs the generic AND/OR distribution: when outer is
// BoolAnd it produces CNF (distribute AND over OR); when outer is BoolOr it
// produces DNF (distribute OR over AND). Both are the same cross-product
// shape with the two operators swapped.
func distribute(expr pred.Expr, outer pred.BoolOp) *Form {
	inner := pred.BoolOr
	if outer == pred.BoolOr {
		inner = pred.BoolAnd
	}

	if n, ok := expr.(*pred.PredAndOr); ok {
		switch n.Op {
		case outer:
			return concatForms(distribute(n.Lhs, outer), distribute(n.Rhs, outer))
		case inner:
			left := distribute(n.Lhs, outer)
			right := distribute(n.Rhs, outer)
			return crossProduct(left, right)
		}
	}
	return &Form{Or: &Form{Leaf: expr}}
}

func concatForms(a, b *Form) *Form {
	if a == nil {
		return b
	}
	tail := a
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.Next = b
	return a
}

// crossProduct builds, for every pairing of a left outer-list element and a
// right outer-list element, a new element whose inner chain is the
// concatenation of both sides' inner chains — the distribution step of
// pt_transform_cnf_post's PT_OR case in its non-compacted branch.
func crossProduct(left, right *Form) *Form {
	var head, tail *Form
	for l := left; l != nil; l = l.Next {
		for r := right; r != nil; r = r.Next {
			item := &Form{Or: appendChain(l.Or, r.Or)}
			if head == nil {
				head, tail = item, item
			} else {
				tail.Next = item
				tail = item
			}
		}
	}
	return head
}

func appendChain(a, b *Form) *Form {
	aCopy := copyChain(a)
	if aCopy == nil {
		return copyChain(b)
	}
	tail := aCopy
	for tail.Or != nil {
		tail = tail.Or
	}
	tail.Or = copyChain(b)
	return aCopy
}

func copyChain(d *Form) *Form {
	if d == nil {
		return nil
	}
	return &Form{Leaf: d.Leaf, Or: copyChain(d.Or)}
}

// expandCompact implements the OR-tree compaction fallback used once
// countAndOr exceeds orTreeSizeThreshold: instead of fully expanding AND
// over OR, extract conjuncts common to both sides of an OR and leave the
// remainder as a single AND-OR subtree, matching cnf.c's
// TRANSFORM_CNF_OR_COMPACT branch ("A and B or B == B and (A or true) ==
// B").
func expandCompact(expr pred.Expr, outer pred.BoolOp) *Form {
	inner := pred.BoolOr
	if outer == pred.BoolOr {
		inner = pred.BoolAnd
	}

	n, ok := expr.(*pred.PredAndOr)
	if !ok {
		return &Form{Or: &Form{Leaf: expr}}
	}
	switch n.Op {
	case outer:
		return concatForms(expandCompact(n.Lhs, outer), expandCompact(n.Rhs, outer))
	case inner:
		left := flattenOuterList(n.Lhs, outer)
		right := flattenOuterList(n.Rhs, outer)
		common, left, right := extractCommon(left, right)
		if left == nil || right == nil {
			return toConjuncts(common)
		}
		merged := &Form{Or: &Form{Leaf: &pred.PredAndOr{
			Op:  inner,
			Lhs: foldChain(left, outer),
			Rhs: foldChain(right, outer),
		}}}
		return concatForms(merged, toConjuncts(common))
	default:
		return &Form{Or: &Form{Leaf: expr}}
	}
}

// flattenOuterList walks expr collecting its top-level outer-operator
// operands into a Next-list without distributing across nested inner
// operators, mirroring the unexpanded arg1/arg2 lists pt_transform_cnf_post
// works from in compact mode.
func flattenOuterList(expr pred.Expr, outer pred.BoolOp) *Form {
	if n, ok := expr.(*pred.PredAndOr); ok && n.Op == outer {
		return concatForms(flattenOuterList(n.Lhs, outer), flattenOuterList(n.Rhs, outer))
	}
	return &Form{Leaf: expr}
}

// extractCommon removes, from both lists, conjuncts structurally equal
// (reflect.DeepEqual in place of parser_print_tree's string comparison) to
// some element of the other list, returning them as a standalone list plus
// the two pruned remainders.
func extractCommon(left, right *Form) (common, leftOut, rightOut *Form) {
	var leftHead, leftTail *Form
	var commonHead, commonTail *Form
	usedRight := map[*Form]bool{}

	for l := left; l != nil; l = l.Next {
		var match *Form
		for r := right; r != nil; r = r.Next {
			if usedRight[r] {
				continue
			}
			if reflect.DeepEqual(l.Leaf, r.Leaf) {
				match = r
				break
			}
		}
		if match != nil {
			usedRight[match] = true
			item := &Form{Leaf: l.Leaf}
			if commonHead == nil {
				commonHead, commonTail = item, item
			} else {
				commonTail.Next = item
				commonTail = item
			}
			continue
		}
		item := &Form{Leaf: l.Leaf}
		if leftHead == nil {
			leftHead, leftTail = item, item
		} else {
			leftTail.Next = item
			leftTail = item
		}
	}

	var rightHead, rightTail *Form
	for r := right; r != nil; r = r.Next {
		if usedRight[r] {
			continue
		}
		item := &Form{Leaf: r.Leaf}
		if rightHead == nil {
			rightHead, rightTail = item, item
		} else {
			rightTail.Next = item
			rightTail = item
		}
	}

	return commonHead, leftHead, rightHead
}

// toConjuncts converts a flat Leaf/Next list (as produced by
// flattenOuterList/extractCommon) into a proper conjunct list whose Or
// chain wraps each single leaf.
func toConjuncts(flat *Form) *Form {
	var head, tail *Form
	for f := flat; f != nil; f = f.Next {
		item := &Form{Or: &Form{Leaf: f.Leaf}}
		if head == nil {
			head, tail = item, item
		} else {
			tail.Next = item
			tail = item
		}
	}
	return head
}

// foldChain ANDs (or ORs, per op) every element of a flat list back into a
// single expression tree, the inverse of flattenOuterList.
func foldChain(list *Form, op pred.BoolOp) pred.Expr {
	if list == nil {
		return nil
	}
	result := list.Leaf
	for n := list.Next; n != nil; n = n.Next {
		result = &pred.PredAndOr{Op: op, Lhs: result, Rhs: n.Leaf}
	}
	return result
}

// markCNFStart marks only the head of the outer list as the start of the
// normalized chain, the net effect of pt_tag_start_of_cnf_post's walk: every
// node reachable via another node's Next or Or pointer has its flag
// cleared, leaving only the unreferenced list head set.
func markCNFStart(list *Form) {
	if list == nil {
		return
	}
	list.IsCNFStart = true
}

// SpecOf resolves the table/scope identifier a leaf predicate references;
// callers (internal/session, the query planner) supply it since only they
// know which spec owns a given regu.AttrDescr.
type SpecOf func(expr pred.Expr) (specIdent string, ambiguous bool)

// TagSpecIdents walks a normalized list and tags each conjunct (the folded
// AND/OR of its Or-chain) with the spec_ident resolved by specOf, mirroring
// pt_tag_terms_with_id/pt_tag_term_with_id. A conjunct referencing more than
// one spec (ambiguous=true) is left untagged; it must stay a join
// predicate.
func TagSpecIdents(list *Form, specOf SpecOf) {
	for c := list; c != nil; c = c.Next {
		leaf := foldChain(c.Or, pred.BoolOr)
		ident, ambiguous := specOf(leaf)
		if !ambiguous {
			c.SpecIdent = ident
		}
	}
}

// PushDownResult partitions a tagged conjunct list into per-spec local
// filters and the remaining join predicate.
type PushDownResult struct {
	Local     map[string][]*Form
	Remainder []*Form
}

// PushDown moves each conjunct whose spec_ident names exactly one of specs
// into that spec's local filter list; conjuncts with no single owning spec
// (untagged, or tagged with a spec not in specs) stay in Remainder, per
// spec.md's push-down rule.
func PushDown(list *Form, specs []string) PushDownResult {
	owned := make(map[string]bool, len(specs))
	for _, s := range specs {
		owned[s] = true
	}
	result := PushDownResult{Local: make(map[string][]*Form)}
	for c := list; c != nil; c = c.Next {
		if c.SpecIdent != "" && owned[c.SpecIdent] {
			result.Local[c.SpecIdent] = append(result.Local[c.SpecIdent], c)
			continue
		}
		result.Remainder = append(result.Remainder, c)
	}
	return result
}

// Len counts the conjuncts in a normalized list.
func Len(list *Form) int {
	n := 0
	for c := list; c != nil; c = c.Next {
		n++
	}
	return n
}

// ToExpr folds a normalized list back into a single pred.Expr tree (AND of
// OR-chains for a CNF list produced by ToCNF, OR of AND-chains for a DNF
// list produced by ToDNF), usable directly by pred.Eval.
func ToExpr(list *Form, outer pred.BoolOp) pred.Expr {
	if list == nil {
		return nil
	}
	inner := pred.BoolOr
	if outer == pred.BoolOr {
		inner = pred.BoolAnd
	}
	result := foldChain(list.Or, inner)
	for c := list.Next; c != nil; c = c.Next {
		result = &pred.PredAndOr{Op: outer, Lhs: result, Rhs: foldChain(c.Or, inner)}
	}
	return result
}
