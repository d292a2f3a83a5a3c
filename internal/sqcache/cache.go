// Package sqcache implements the correlated scalar subquery result cache
// (C6): keyed by the subquery's outer-reference value vector, it lets a
// repeated subquery invocation with the same key vector skip re-execution.
// It is grounded on original_source/src/query/subquery_cache.c (sq_make_key,
// sq_put, sq_get, sq_cache_destroy), with the underlying table built on
// internal/lfring/lfhash the way internal/session's registry is, and the
// hit/miss accounting shaped like the teacher's internal/rpc/cache.go
// QueryCache stats.
package sqcache

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cubrid/qxengine/internal/lfring/epoch"
	"github.com/cubrid/qxengine/internal/lfring/lfhash"
	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// MinHitRatio is SQ_CACHE_MIN_HIT_RATIO: once the miss count crosses the
// size-scaled threshold, a cache whose hits divided by misses (integer
// division) is below MinHitRatio is self-disabled.
const MinHitRatio = 9

// ExpectedEntrySize is SQ_CACHE_EXPECTED_ENTRY_SIZE, used both to size the
// backing table and to compute the miss threshold above.
const ExpectedEntrySize = 512

// Result is the cached payload for one key vector: either a cloned scalar
// value (TYPE_CONSTANT) or a materialized subquery list (TYPE_LIST_ID).
type Result struct {
	Kind     regu.Kind
	Constant *regu.DBValue
	ListID   xexternal.ListID
}

func (r *Result) estimatedSize() uint64 {
	switch r.Kind {
	case regu.KindConstant:
		if r.Constant == nil || r.Constant.IsNull {
			return 8
		}
		return uint64(len(fmt.Sprint(r.Constant.Data))) + 8
	default:
		return ExpectedEntrySize
	}
}

// Cache is one XASL node's subquery result cache. A zero Cache is not
// usable; build one with New.
type Cache struct {
	tbl     *lfhash.Table[string, Result]
	tran    *epoch.System
	vd      xexternal.ValueDescriptor
	sizeMax uint64
	size    atomic.Uint64
	enabled atomic.Bool
	hit     atomic.Int64
	miss    atomic.Int64
}

// New builds a Cache bounded to sizeMax bytes (PRM_ID_MAX_SUBQUERY_CACHE_SIZE),
// using vd to format key values into the backing table's lookup key. Unlike
// sq_cache_initialize's lazy on-first-use allocation, the table is built
// eagerly here: an empty lfhash.Table costs nothing worth deferring.
func New(sizeMax uint64, vd xexternal.ValueDescriptor) *Cache {
	tran := epoch.NewSystem(64)
	hmEntries := int(sizeMax / ExpectedEntrySize)
	if hmEntries < 1 {
		hmEntries = 1
	}
	desc := lfhash.EntryDescriptor[string, Result]{
		Hash:  func(key string, size uint32) uint32 { return fnv32(key) % size },
		Less:  func(a, b string) bool { return a < b },
		Alloc: func(key string) *Result { return &Result{} },
	}
	c := &Cache{
		tbl:     lfhash.New[string, Result](hmEntries, tran, desc),
		tran:    tran,
		vd:      vd,
		sizeMax: sizeMax,
	}
	c.enabled.Store(true)
	return c
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// buildKey formats a key vector into the string the backing table hashes
// on, standing in for sq_hash_func/sq_cmp_func's element-wise DB_VALUE
// hash/compare (mht_valhash/mht_compare_dbvalues_are_equal): since
// regu.DBValue carries no domain tag in this port, values are compared by
// their coerced text form instead of a true domain-aware comparison.
func (c *Cache) buildKey(key []*regu.DBValue) string {
	parts := make([]string, len(key))
	for i, v := range key {
		if v == nil || v.IsNull {
			parts[i] = "\x00NULL"
			continue
		}
		s, status := c.vd.Cast(v, "VARCHAR")
		if status != xexternal.CastOK {
			parts[i] = "\x00ERR"
			continue
		}
		parts[i] = fmt.Sprint(s.Data)
	}
	return strings.Join(parts, "\x1f")
}

// Enabled reports whether the cache is still accepting new entries.
func (c *Cache) Enabled() bool { return c.enabled.Load() }

// Get looks up key, mirroring sq_get: before attempting the lookup it runs
// the self-disable check (miss count past the size-scaled threshold and a
// hit ratio below MinHitRatio, computed with the original's exact integer
// division), then counts the access as a hit or a miss.
func (c *Cache) Get(key []*regu.DBValue) (*Result, bool) {
	if !c.enabled.Load() {
		return nil, false
	}

	missMax := int64(c.sizeMax / ExpectedEntrySize)
	if miss := c.miss.Load(); miss > 0 && miss >= missMax {
		if c.hit.Load()/miss < MinHitRatio {
			c.enabled.Store(false)
			return nil, false
		}
	}

	e, err := c.tbl.RequestEntry()
	if err != nil {
		return nil, false
	}
	defer c.tbl.ReturnEntry(e)

	ref, ok := c.tbl.Find(e, c.buildKey(key))
	if !ok {
		c.miss.Add(1)
		return nil, false
	}
	defer ref.Unlock()

	c.hit.Add(1)
	out := *ref.Value
	return &out, true
}

// Put inserts result under key, mirroring sq_put: the entry is rejected
// (and the cache left untouched) once adding it would exceed sizeMax, at
// which point the cache self-disables exactly as the size check does.
func (c *Cache) Put(key []*regu.DBValue, result *Result) error {
	if !c.enabled.Load() {
		return qxerr.New(qxerr.Failed, "sqcache.Put")
	}

	k := c.buildKey(key)
	entrySize := uint64(len(k)) + result.estimatedSize()
	if c.size.Load()+entrySize > c.sizeMax {
		c.enabled.Store(false)
		return qxerr.New(qxerr.Failed, "sqcache.Put")
	}

	e, err := c.tbl.RequestEntry()
	if err != nil {
		return qxerr.Wrap(qxerr.Failed, "sqcache.Put", err)
	}
	defer c.tbl.ReturnEntry(e)

	stored := *result
	_, inserted, err := c.tbl.InsertGiven(e, k, &stored, lfhash.DuplicateCallHandler)
	if err != nil {
		return qxerr.Wrap(qxerr.Failed, "sqcache.Put", err)
	}
	if !inserted {
		// Key already cached: leave the existing entry untouched, matching
		// mht_put_if_not_exists returning the existing value unchanged.
		return nil
	}
	c.size.Add(entrySize)
	return nil
}

// Stats reports the cache's hit/miss counters and current size, mirroring
// the fields sq_cache_destroy logs before tearing the table down.
type Stats struct {
	Hits    int64
	Misses  int64
	Size    uint64
	SizeMax uint64
	Enabled bool
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hit.Load(),
		Misses:  c.miss.Load(),
		Size:    c.size.Load(),
		SizeMax: c.sizeMax,
		Enabled: c.enabled.Load(),
	}
}

// Destroy clears every entry and marks the cache disabled, mirroring
// sq_cache_destroy. The Cache is unusable afterward.
func (c *Cache) Destroy() {
	c.tbl.Clear()
	c.enabled.Store(false)
	c.size.Store(0)
}
