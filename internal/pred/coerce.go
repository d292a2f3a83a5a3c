package pred

import (
	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// domainClass classifies a domain string into the broad families the
// coercion table of §4.5 switches on. Real domain catalogs live in the
// external value descriptor; the evaluator only needs enough of a taxonomy
// to pick a coercion direction.
type domainClass int

const (
	classOther domainClass = iota
	classChar
	classNumeric
	classDate
	classObject
)

func classifyDomain(d regu.Domain) domainClass {
	switch d {
	case "CHAR", "VARCHAR", "NCHAR", "BIT", "VARBIT":
		return classChar
	case "INTEGER", "BIGINT", "SMALLINT", "NUMERIC", "FLOAT", "DOUBLE":
		return classNumeric
	case "DATE", "TIME", "TIMESTAMP", "DATETIME":
		return classDate
	case "OBJECT":
		return classObject
	default:
		return classOther
	}
}

// CoercionTarget reports which side of a comparison should be coerced and to
// what domain, implementing the table in §4.5. It returns ok=false when no
// coercion rule applies (in particular, OBJECT never coerces).
func CoercionTarget(lhsDomain, rhsDomain regu.Domain) (coerceRHS bool, target regu.Domain, ok bool) {
	lc, rc := classifyDomain(lhsDomain), classifyDomain(rhsDomain)

	switch {
	case lc == classObject || rc == classObject:
		return false, "", false
	case lc == classChar && rc == classNumeric:
		return true, lhsDomain, true
	case lc == classNumeric && rc == classChar:
		return true, "DOUBLE", true
	case lc == classDate && rc == classChar:
		return true, lhsDomain, true
	case lc == classNumeric && rc == classNumeric && lhsDomain != rhsDomain:
		// "NUMERIC (low) | NUMERIC (high) -> rhs -> lhs": without a real
		// precision ranking this degrades to "prefer the left operand's
		// domain," matching the single-direction shape of the rule.
		return true, lhsDomain, true
	default:
		return false, "", false
	}
}

// CoerceIfAllConst applies the ALL_CONST coercion hint: when rhs is flagged
// ALL_CONST and a coercion rule applies, it is coerced once in place and the
// coercion is cached on the node (the caller is expected to have already
// checked that NOT_CONST is clear, per §4.4's "when both ALL_CONST and its
// opposite NOT_CONST flags are clear").
func CoerceIfAllConst(vd xexternal.ValueDescriptor, lhs, rhs regu.Variable) {
	rc, ok := rhs.(*regu.Constant)
	if !ok || !rc.Common().Flags.Has(regu.FlagAllConst) {
		return
	}
	if rc.Common().Flags.Has(regu.FlagNotConst) {
		return
	}
	coerceRHS, target, ok := CoercionTarget(lhs.Common().Domain, rhs.Common().Domain)
	if !ok || !coerceRHS {
		return
	}
	coerced, status := vd.Cast(rc.Value, target)
	if status == xexternal.CastOK {
		rc.Value = coerced
		rc.Common().Domain = target
	}
}
