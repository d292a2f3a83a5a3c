package fixtures

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// Compare mirrors value_compare(a, b, coerce?, total_order?). NULLs compare
// as CompareUnknown unless totalOrder asks for NULL-as-least, matching the
// "total order puts NULL first" convention used by ORDER BY.
func (e *Engine) Compare(a, b *regu.DBValue, coerce, totalOrder bool) (xexternal.CompareResult, error) {
	aNull, bNull := a == nil || a.IsNull, b == nil || b.IsNull
	switch {
	case aNull && bNull:
		if totalOrder {
			return xexternal.CompareEQ, nil
		}
		return xexternal.CompareUnknown, nil
	case aNull:
		if totalOrder {
			return xexternal.CompareLT, nil
		}
		return xexternal.CompareUnknown, nil
	case bNull:
		if totalOrder {
			return xexternal.CompareGT, nil
		}
		return xexternal.CompareUnknown, nil
	}

	af, aIsNum := asFloat(a.Data)
	bf, bIsNum := asFloat(b.Data)
	if aIsNum && bIsNum {
		return compareFloat(af, bf), nil
	}

	if coerce {
		as, astatus := e.Cast(a, "VARCHAR")
		bs, bstatus := e.Cast(b, "VARCHAR")
		if astatus == xexternal.CastOK && bstatus == xexternal.CastOK {
			return compareString(fmt.Sprint(as.Data), fmt.Sprint(bs.Data)), nil
		}
	}

	as, ok1 := a.Data.(string)
	bs, ok2 := b.Data.(string)
	if ok1 && ok2 {
		return compareString(as, bs), nil
	}

	return xexternal.CompareUnknown, fmt.Errorf("fixtures: Compare: incomparable types %T, %T", a.Data, b.Data)
}

func compareFloat(a, b float64) xexternal.CompareResult {
	switch {
	case a < b:
		return xexternal.CompareLT
	case a > b:
		return xexternal.CompareGT
	default:
		return xexternal.CompareEQ
	}
}

func compareString(a, b string) xexternal.CompareResult {
	switch {
	case a < b:
		return xexternal.CompareLT
	case a > b:
		return xexternal.CompareGT
	default:
		return xexternal.CompareEQ
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Cast mirrors value_cast(v, target_domain). Recognized targets are
// "VARCHAR"/"CHAR" (text form), "INTEGER"/"BIGINT" (integer parse), and
// "NUMERIC(p,s)"/"DECIMAL"-shaped domains (parsed to a float64, no real
// precision/scale enforcement — this is a demo value descriptor, not a
// domain catalog).
func (e *Engine) Cast(v *regu.DBValue, target regu.Domain) (*regu.DBValue, xexternal.CastStatus) {
	if v == nil || v.IsNull {
		return &regu.DBValue{IsNull: true}, xexternal.CastOK
	}

	upper := strings.ToUpper(target)
	switch {
	case strings.HasPrefix(upper, "VARCHAR"), strings.HasPrefix(upper, "CHAR"):
		return &regu.DBValue{Data: fmt.Sprint(v.Data)}, xexternal.CastOK
	case strings.HasPrefix(upper, "INTEGER"), strings.HasPrefix(upper, "BIGINT"):
		f, ok := asFloat(v.Data)
		if !ok {
			return &regu.DBValue{IsNull: true}, xexternal.CastIncompatible
		}
		return &regu.DBValue{Data: int64(f)}, xexternal.CastOK
	case strings.HasPrefix(upper, "NUMERIC"), strings.HasPrefix(upper, "DECIMAL"):
		f, ok := asFloat(v.Data)
		if !ok {
			return &regu.DBValue{IsNull: true}, xexternal.CastIncompatible
		}
		return &regu.DBValue{Data: f}, xexternal.CastOK
	default:
		return &regu.DBValue{Data: fmt.Sprint(v.Data)}, xexternal.CastOK
	}
}

// Clone mirrors value_clone.
func (e *Engine) Clone(v *regu.DBValue) *regu.DBValue {
	if v == nil {
		return nil
	}
	return &regu.DBValue{IsNull: v.IsNull, Data: v.Data}
}

// Clear mirrors value_clear: resets v to NULL in place.
func (e *Engine) Clear(v *regu.DBValue) {
	if v == nil {
		return
	}
	v.IsNull = true
	v.Data = nil
}
