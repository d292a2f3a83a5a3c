// Package xexternal declares the Go interfaces for the collaborators
// qxengine's core consumes but does not own: the storage/heap layer, the
// cursor engine, the value descriptor, and the XASL runtime (§6). The core
// (internal/pred, internal/regu, internal/sqcache) depends only on these
// interfaces, never on a concrete storage engine. internal/fixtures supplies
// one demo implementation of each, backed by a real SQL engine, used only by
// its own tests.
package xexternal

import (
	"context"

	"github.com/cubrid/qxengine/internal/regu"
)

// OID identifies a heap object. The core treats it as an opaque comparable
// value; storage engines define what it actually encodes.
type OID struct {
	PageID  int64
	SlotID  int32
	VolID   int16
}

// IsNull reports whether oid is the uninitialized/null object reference,
// grounding heap_is_object_not_null's negation.
func (o OID) IsNull() bool {
	return o == OID{}
}

// HeapReader is the Storage/Heap collaborator (§6 "Consumed from
// Storage/Heap").
type HeapReader interface {
	// AttrInfoRead loads attribute values from record into cache, mirroring
	// heap_attrinfo_read_dbvalues.
	AttrInfoRead(ctx context.Context, oid OID, record []byte, cache any) error
	// AttrValueLocate returns a pointer to attrID's value within cache,
	// mirroring heap_attrvalue_locate.
	AttrValueLocate(cache any, attrID int) (*regu.DBValue, error)
	// IsObjectNotNull implements the object-ref half of IS NULL, mirroring
	// heap_is_object_not_null.
	IsObjectNotNull(ctx context.Context, oid OID) (bool, error)
}

// ScanID identifies an open cursor scan.
type ScanID int64

// ListID is an opaque handle to a materialized cursor's backing list file.
type ListID any

// Tuple is one row's worth of column values as returned by a scan.
type Tuple struct {
	Values []*regu.DBValue
}

// CursorEngine is the Cursor Engine collaborator (§6).
type CursorEngine interface {
	// ListOpenScan mirrors list_open_scan.
	ListOpenScan(ctx context.Context, list ListID) (ScanID, error)
	// ListNext mirrors list_next; ok is false at end of scan.
	ListNext(ctx context.Context, scan ScanID) (Tuple, bool, error)
	// ListCloseScan mirrors list_close_scan.
	ListCloseScan(ctx context.Context, scan ScanID) error
	// ListSort mirrors list_sort.
	ListSort(ctx context.Context, list ListID, sortKey []int, allFlag bool) (ListID, error)
	// TupleLocateValue mirrors tuple_locate_value.
	TupleLocateValue(t Tuple, column int) (*regu.DBValue, error)
}

// CompareResult mirrors value_compare's {LT, EQ, GT, UNK} result.
type CompareResult int

const (
	CompareLT CompareResult = iota
	CompareEQ
	CompareGT
	CompareUnknown
)

// CastStatus mirrors value_cast's {ok, overflow, incompatible, error}.
type CastStatus int

const (
	CastOK CastStatus = iota
	CastOverflow
	CastIncompatible
	CastError
)

// ValueDescriptor is the Value Descriptor collaborator (§6).
type ValueDescriptor interface {
	// Compare mirrors value_compare(a, b, coerce?, total_order?).
	Compare(a, b *regu.DBValue, coerce, totalOrder bool) (CompareResult, error)
	// Cast mirrors value_cast(v, target_domain).
	Cast(v *regu.DBValue, target regu.Domain) (*regu.DBValue, CastStatus)
	// Clone mirrors value_clone.
	Clone(v *regu.DBValue) *regu.DBValue
	// Clear mirrors value_clear.
	Clear(v *regu.DBValue)
}

// XASLStatus mirrors regu_variable_xasl_status's {OK, ERROR}.
type XASLStatus int

const (
	XASLOK XASLStatus = iota
	XASLError
)

// XASLRuntime is the XASL Runtime collaborator (§6): it drives lazy
// subquery execution for a LIST_ID regu variable.
type XASLRuntime interface {
	// ExecuteReguVariableXASL mirrors execute_regu_variable_xasl: triggers
	// lazy subquery execution for a LIST_ID regu.
	ExecuteReguVariableXASL(ctx context.Context, v regu.Variable, vd ValueDescriptor) error
	// ReguVariableXASLStatus mirrors regu_variable_xasl_status.
	ReguVariableXASLStatus(v regu.Variable) XASLStatus
}

// SHA1Hash is the five-word digest CUBRID hangs a prepared statement's
// compiled form off of (SHA1Hash in query_compile.h), used as the XASL
// cache lookup key.
type SHA1Hash [5]uint32

// XASLCacheEntry is an opaque handle into the external XASL cache, returned
// by XASLCacheFinder.FindBySHA1.
type XASLCacheEntry any

// XASLCacheFinder is the XASL cache's lookup-by-digest surface, consumed by
// internal/session.Manager.GetPreparedStatement to resolve a stored alias
// print's SHA1 into a live XASL cache entry, mirroring xcache_find_sha1.
type XASLCacheFinder interface {
	FindBySHA1(ctx context.Context, sum SHA1Hash) (XASLCacheEntry, bool, error)
}
