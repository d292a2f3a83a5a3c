package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// cliValueDescriptor is a minimal xexternal.ValueDescriptor for commands
// that need one but aren't talking to a real backend (session dump, the
// eval demo): numeric types compare numerically, everything else compares
// as text. internal/fixtures.Engine is the real, SQL-backed implementation,
// exercised by that package's integration tests and not used here; this one
// exists so qxenginectl's zero-config commands don't require a live
// database connection just to format a session variable.
type cliValueDescriptor struct{}

func (cliValueDescriptor) Compare(a, b *regu.DBValue, coerce, totalOrder bool) (xexternal.CompareResult, error) {
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

	if af, aok := toFloat(a.Data); aok {
		if bf, bok := toFloat(b.Data); bok {
			switch {
			case af < bf:
				return xexternal.CompareLT, nil
			case af > bf:
				return xexternal.CompareGT, nil
			default:
				return xexternal.CompareEQ, nil
			}
		}
	}

	as, bs := fmt.Sprint(a.Data), fmt.Sprint(b.Data)
	switch {
	case as < bs:
		return xexternal.CompareLT, nil
	case as > bs:
		return xexternal.CompareGT, nil
	default:
		return xexternal.CompareEQ, nil
	}
}

func (cliValueDescriptor) Cast(v *regu.DBValue, target regu.Domain) (*regu.DBValue, xexternal.CastStatus) {
	if v == nil || v.IsNull {
		return &regu.DBValue{IsNull: true}, xexternal.CastOK
	}
	if strings.HasPrefix(strings.ToUpper(target), "INTEGER") {
		f, ok := toFloat(v.Data)
		if !ok {
			return &regu.DBValue{IsNull: true}, xexternal.CastIncompatible
		}
		return &regu.DBValue{Data: int64(f)}, xexternal.CastOK
	}
	return &regu.DBValue{Data: fmt.Sprint(v.Data)}, xexternal.CastOK
}

func (cliValueDescriptor) Clone(v *regu.DBValue) *regu.DBValue {
	if v == nil {
		return nil
	}
	return &regu.DBValue{IsNull: v.IsNull, Data: v.Data}
}

func (cliValueDescriptor) Clear(v *regu.DBValue) {
	if v == nil {
		return
	}
	v.IsNull = true
	v.Data = nil
}

func toFloat(v any) (float64, bool) {
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
