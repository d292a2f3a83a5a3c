package regu

// MapFunc is called for each visited node; setting *stop to true
// short-circuits the remainder of the walk, mirroring map_regu_func_type.
type MapFunc func(v Variable, stop *bool)

// XASLFunc is called for each nested XASL node reached through a variable's
// Common().XASL field, mirroring map_xasl_func_type.
type XASLFunc func(x XASLNode, stop *bool)

// Map performs a pre-order walk over v and its children, visiting ARITH's
// Left/Right/Third, FUNC's operands, and REGUVAL_LIST/REGU_VAR_LIST items,
// matching regu_variable_node::map_regu. Other variants have no children
// here and are visited alone.
func Map(v Variable, fn MapFunc) {
	stop := false
	mapRegu(v, fn, &stop)
}

func mapRegu(v Variable, fn MapFunc, stop *bool) {
	if v == nil || *stop {
		return
	}
	fn(v, stop)
	if *stop {
		return
	}

	switch n := v.(type) {
	case *Arithmetic:
		mapRegu(n.Left, fn, stop)
		if *stop {
			return
		}
		mapRegu(n.Right, fn, stop)
		if *stop {
			return
		}
		mapRegu(n.Third, fn, stop)
	case *Func:
		for _, op := range n.Operands {
			mapRegu(op, fn, stop)
			if *stop {
				return
			}
		}
	case *ValList:
		for _, item := range n.Items {
			mapRegu(item, fn, stop)
			if *stop {
				return
			}
		}
	case *VarList:
		for _, item := range n.Items {
			mapRegu(item, fn, stop)
			if *stop {
				return
			}
		}
	}
}

// MapWithXASL is Map, additionally invoking xaslFn for any nested XASL node
// reached through a visited variable's Common().XASL, matching
// regu_variable_node::map_regu_and_xasl.
func MapWithXASL(v Variable, reguFn MapFunc, xaslFn XASLFunc) {
	stop := false
	mapRegu(v, func(n Variable, s *bool) {
		reguFn(n, s)
		if *s {
			return
		}
		if x := n.Common().XASL; x != nil {
			xaslFn(x, s)
		}
	}, &stop)
}

// ClearXASL tears down v and its children in post-order, mirroring
// regu_variable_node::clear_xasl: for ARITH it releases the rand seed
// scratch and nested predicate; for FUNC it releases the memoized value and
// any owned temporary (e.g. compiled regex); for CONSTANT it releases the
// value slot.
func ClearXASL(v Variable) {
	if v == nil {
		return
	}
	switch n := v.(type) {
	case *Arithmetic:
		ClearXASL(n.Left)
		ClearXASL(n.Right)
		ClearXASL(n.Third)
		n.Pred = nil
		n.RandSeed = 0
	case *Func:
		for _, op := range n.Operands {
			ClearXASL(op)
		}
		n.Value = nil
		n.Compiled = nil
	case *ValList:
		for _, item := range n.Items {
			ClearXASL(item)
		}
	case *VarList:
		for _, item := range n.Items {
			ClearXASL(item)
		}
	case *Constant:
		n.Value = nil
	}
	v.Common().VfetchTo = nil
}
