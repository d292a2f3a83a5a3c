// Package regu implements the register-variable (REGU) expression tree: the
// algebraic plan-node type consumed by internal/pred and internal/cnf.
// It mirrors CUBRID's regu_variable_node (regu_var.hpp/.cpp): a tagged union
// keyed by a type enum becomes a closed Go interface with one concrete
// struct per variant, sharing common fields (flags, Domain, VfetchTo,
// XASL) outside the variant body.
package regu

// Flag is a bitmask of REGU_VARIABLE_* flags from regu_var.hpp.
type Flag uint32

const (
	FlagHiddenColumn      Flag = 1 << iota // does not go to list file
	FlagFieldCompare                       // marks the bottom of a FIELD regu tree
	FlagFieldNested                        // child in a T_FIELD tree
	FlagApplyCollation                     // apply collation from domain (COLLATE modifier)
	FlagAnalyticWindow                     // analytic window function
	FlagInferCollation                     // infer collation for default parameter
	FlagAllConst                           // evaluates to an all-constant subtree
	FlagNotConst                           // is known not to be constant
	FlagClearAtCloneDecache
	FlagUpdateInsertList
	FlagStrictTypeCast
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Domain stands in for the external value-descriptor's notion of a coercion
// target; the concrete domain catalog lives in internal/xexternal.
type Domain = string

// XASLNode is an opaque handle to the nested query plan a regu variable may
// reach (e.g. a LIST_ID variant pointing at a materialized subquery). The
// real XASL runtime is external; here it is just an identity the tree can
// carry and hand back via Map's xasl callback.
type XASLNode any

// Variable is the closed interface every REGU variant implements. It plays
// the role of regu_variable_node, minus the union: each concrete type below
// is one arm of the original REGU_DATATYPE enum.
type Variable interface {
	// Kind returns the variant discriminant, mirroring REGU_DATATYPE.
	Kind() Kind
	// Common returns the fields shared across all variants.
	Common() *Common
}

// Kind is the REGU_DATATYPE discriminant.
type Kind int

const (
	KindConstant Kind = iota
	KindArithmetic
	KindAttrID
	KindClassAttrID
	KindSharedAttrID
	KindPositional
	KindListID
	KindPosValue
	KindOID
	KindClassOID
	KindFunc
	KindReguValList
	KindReguVarList
)

// Common holds the fields every variant shares, kept outside the variant
// body per the tagged-sum design note.
type Common struct {
	Flags        Flag
	Domain       Domain
	OriginalDomain Domain
	VfetchTo     *DBValue
	XASL         XASLNode
}

// DBValue stands in for the external value type (DB_VALUE). The core never
// interprets its contents; it only stores, copies, and hands it to
// xexternal.ValueDescriptor for comparison/cast/clear.
type DBValue struct {
	IsNull bool
	Data   any
}

// Clone returns a shallow copy of v, used when a constant is coerced once
// and the coercion cached in place (the "constant-folding hint" of §4.4).
func (v *DBValue) Clone() *DBValue {
	if v == nil {
		return nil
	}
	return &DBValue{IsNull: v.IsNull, Data: v.Data}
}

// --- Variants ---

// Constant holds an owned value handle (TYPE_DBVAL / TYPE_CONSTANT).
type Constant struct {
	Common
	Value *DBValue
}

func (c *Constant) Kind() Kind      { return KindConstant }
func (c *Constant) Common() *Common { return &c.Common }

// ArithOp enumerates the supported arithmetic/CASE opcodes.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
	ArithCase // evaluate Pred, pick Left or Right
)

// Arithmetic is an opcode with up to three child operands and an optional
// CASE predicate (ARITH_TYPE).
type Arithmetic struct {
	Common
	Op      ArithOp
	Left    Variable
	Right   Variable
	Third   Variable
	Pred    any // *pred.Expr; kept as any to avoid an import cycle with internal/pred
	RandSeed uint64
}

func (a *Arithmetic) Kind() Kind    { return KindArithmetic }
func (a *Arithmetic) Common() *Common { return &a.Common }

// AttrKind distinguishes plain/class/shared attribute descriptors, which
// otherwise share the same shape.
type AttrKind int

const (
	AttrPlain AttrKind = iota
	AttrClass
	AttrShared
)

// AttrDescr is an attribute reference (ATTR_DESCR): id, type, and a pointer
// into the external heap attribute-info cache.
type AttrDescr struct {
	Common
	AttrKind     AttrKind
	AttrID       int
	Type         Domain
	CacheAttrInfo any // external heap cache handle
}

func (a *AttrDescr) Kind() Kind {
	switch a.AttrKind {
	case AttrClass:
		return KindClassAttrID
	case AttrShared:
		return KindSharedAttrID
	default:
		return KindAttrID
	}
}
func (a *AttrDescr) Common() *Common { return &a.Common }

// Positional references a column position in a tuple list
// (QFILE_TUPLE_VALUE_POSITION).
type Positional struct {
	Common
	ListIdx int
	TupleIdx int
}

func (p *Positional) Kind() Kind     { return KindPositional }
func (p *Positional) Common() *Common { return &p.Common }

// ListID is a handle to a materialized cursor, optionally sorted.
type ListID struct {
	Common
	ListHandle any // xexternal list-id handle
	Sorted     bool
}

func (l *ListID) Kind() Kind     { return KindListID }
func (l *ListID) Common() *Common { return &l.Common }

// PosValue is a host-variable slot index (TYPE_POS_VALUE).
type PosValue struct {
	Common
	ValPos int
}

func (p *PosValue) Kind() Kind     { return KindPosValue }
func (p *PosValue) Common() *Common { return &p.Common }

// OIDRef covers both OID and CLASSOID (IsClass tells them apart), which carry no payload of their
// own beyond "use the current tuple/class identifier."
type OIDRef struct {
	Common
	IsClass bool
}

func (o *OIDRef) Kind() Kind {
	if o.IsClass {
		return KindClassOID
	}
	return KindOID
}
func (o *OIDRef) Common() *Common { return &o.Common }

// FuncType enumerates the closed set of REGU function kinds the evaluator's
// fast-path specializer cares about (see internal/pred).
type FuncType int

const (
	FuncGeneric FuncType = iota
	FuncRegexMemo
)

// Func is a function call: operands plus a memoized temp object (e.g. a
// compiled regex for RLIKE).
type Func struct {
	Common
	FuncType FuncType
	Value    *DBValue
	Operands []Variable
	Compiled any // memoized compiled regex, released on ClearXASL
}

func (f *Func) Kind() Kind     { return KindFunc }
func (f *Func) Common() *Common { return &f.Common }

// ValList is a sequence for VALUES-clause rows (REGUVAL_LIST).
type ValList struct {
	Common
	Items []Variable
}

func (v *ValList) Kind() Kind     { return KindReguValList }
func (v *ValList) Common() *Common { return &v.Common }

// VarList is a sequence used by CUME_DIST/PERCENT_RANK (REGU_VAR_LIST).
type VarList struct {
	Common
	Items []Variable
}

func (v *VarList) Kind() Kind     { return KindReguVarList }
func (v *VarList) Common() *Common { return &v.Common }
