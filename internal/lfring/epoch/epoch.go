// Package epoch implements an epoch-based reclamation (EBR) facade used by
// internal/lfring/lfhash to safely free entries removed from a lock-free
// structure while readers may still be traversing them.
//
// It mirrors lf_tran_system/lf_tran_entry from CUBRID's lock_free.h: each
// worker "checks out" an entry, publishes a transaction id on it while it
// touches the protected structure, and retires pointers it removes by
// stamping them with the current global id. A pointer is safe to actually
// free once the system-wide minimum active id has advanced past its
// retirement stamp.
package epoch

import (
	"sync"
	"sync/atomic"

	"github.com/cubrid/qxengine/internal/qxerr"
)

// NullID is the sentinel published by an entry that is not inside a
// transaction, matching LF_NULL_TRANSACTION_ID (ULONG_MAX in the original).
const NullID uint64 = ^uint64(0)

// defaultMatiRefreshInterval mirrors LF_TRAN_SYSTEM_INITIALIZER's 100.
const defaultMatiRefreshInterval = 100

// Retired is a pointer-like value queued for reclamation, stamped with the
// global id in effect when it was retired.
type Retired struct {
	StampID uint64
	Value   any
}

// Entry is one worker's slot in a System. Workers call Start/End around
// critical sections that touch the lock-free structure the System protects.
type Entry struct {
	sys *System

	transactionID atomic.Uint64
	lastCleanupID uint64
	didIncr       bool

	mu          sync.Mutex
	retiredList []Retired

	idx int
}

// System is the shared transaction/epoch manager, analogous to
// LF_TRAN_SYSTEM. One System instance typically backs one lock-free hash
// table or freelist family.
type System struct {
	mu                  sync.Mutex
	entries             []*Entry
	freeIdx             []int
	globalTransactionID atomic.Uint64
	minActiveID         atomic.Uint64
	matiRefreshInterval int
	transactionsSinceMin uint64
	maxEntries          int
}

// NewSystem creates a System capable of servicing up to maxEntries concurrent
// workers, matching lf_tran_system_init(sys, max_threads).
func NewSystem(maxEntries int) *System {
	if maxEntries <= 0 {
		maxEntries = 32
	}
	s := &System{
		matiRefreshInterval: defaultMatiRefreshInterval,
		maxEntries:          maxEntries,
	}
	s.minActiveID.Store(0)
	s.freeIdx = make([]int, maxEntries)
	for i := range s.freeIdx {
		s.freeIdx[i] = maxEntries - 1 - i
	}
	s.entries = make([]*Entry, maxEntries)
	return s
}

// RequestEntry checks out a free Entry for the calling worker. It fails with
// qxerr.OutOfVirtualMemory when every slot is in use, matching the "caller
// must retry" failure semantics of §4.1.
func (s *System) RequestEntry() (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.freeIdx) == 0 {
		return nil, qxerr.New(qxerr.OutOfVirtualMemory, "epoch.RequestEntry")
	}
	idx := s.freeIdx[len(s.freeIdx)-1]
	s.freeIdx = s.freeIdx[:len(s.freeIdx)-1]

	e := &Entry{sys: s, idx: idx}
	e.transactionID.Store(NullID)
	s.entries[idx] = e
	return e, nil
}

// ReturnEntry releases an Entry back to the System's free pool. The caller
// must have already called End on the entry.
func (s *System) ReturnEntry(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.idx] = nil
	s.freeIdx = append(s.freeIdx, e.idx)
}

// Start publishes the current global transaction id onto e, optionally
// bumping the global counter first (incr=true is used by writers, false by
// pure readers who just want to pin the current epoch).
func (e *Entry) Start(incr bool) {
	var id uint64
	if incr {
		id = e.sys.globalTransactionID.Add(1)
	} else {
		id = e.sys.globalTransactionID.Load()
	}
	e.didIncr = incr
	e.transactionID.Store(id)
}

// StartWithBarrier is Start followed by a full barrier, mirroring
// lf_tran_start_with_mb. Go's atomic operations are already sequentially
// consistent with respect to one another, so the "barrier" is the act of
// routing the publish through atomic.Uint64.Store rather than a plain write.
func (e *Entry) StartWithBarrier(incr bool) {
	e.Start(incr)
}

// End clears e's published transaction id back to NullID, matching
// lf_tran_end.
func (e *Entry) End() {
	e.transactionID.Store(NullID)
}

// EndWithBarrier is End with the same sequentially-consistent guarantee as
// StartWithBarrier, mirroring lf_tran_end_with_mb (barrier precedes the
// clear so prior writes are visible before the entry "exits").
func (e *Entry) EndWithBarrier() {
	e.End()
}

// Retire stamps value with the system's current global id and queues it on
// e's retired list for later reclamation.
func (e *Entry) Retire(value any) {
	stamp := e.sys.globalTransactionID.Load()
	e.mu.Lock()
	e.retiredList = append(e.retiredList, Retired{StampID: stamp, Value: value})
	e.mu.Unlock()
}

// Claim drains every retired entry on e whose stamp is strictly less than
// the system's minimum active transaction id, returning them for reclamation
// (the caller runs the entry descriptor's uninit/free, or returns the value
// to a freelist). It mirrors LF_TRAN_CLEANUP_NECESSARY gating: a claim is a
// no-op cheaply when nothing has advanced since the entry's last_cleanup_id.
func (e *Entry) Claim() []Retired {
	minActive := e.sys.minActiveID.Load()
	if minActive <= e.lastCleanupID {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var reclaim []Retired
	remaining := e.retiredList[:0]
	for _, r := range e.retiredList {
		if r.StampID < minActive {
			reclaim = append(reclaim, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	e.retiredList = remaining
	e.lastCleanupID = minActive
	return reclaim
}

// ComputeMinActiveID recomputes the system-wide minimum active transaction
// id by scanning every live entry, amortized to run only once every
// mati_refresh_interval calls (default 100), matching
// lf_tran_compute_minimum_transaction_id's amortization note in §4.1.
func (s *System) ComputeMinActiveID() {
	s.mu.Lock()
	s.transactionsSinceMin++
	due := s.transactionsSinceMin >= uint64(s.matiRefreshInterval)
	if due {
		s.transactionsSinceMin = 0
	}
	entries := make([]*Entry, len(s.entries))
	copy(entries, s.entries)
	s.mu.Unlock()

	if !due {
		return
	}

	// With no active entry the minimum is one past the newest id, so every
	// stamp handed out so far is below it.
	min := s.globalTransactionID.Load() + 1
	for _, e := range entries {
		if e == nil {
			continue
		}
		id := e.transactionID.Load()
		if id != NullID && id < min {
			min = id
		}
	}
	s.minActiveID.Store(min)
}

// SetMatiRefreshInterval overrides the amortization cadence; mostly useful in
// tests that want ComputeMinActiveID to take effect on every call.
func (s *System) SetMatiRefreshInterval(n int) {
	if n <= 0 {
		n = 1
	}
	s.mu.Lock()
	s.matiRefreshInterval = n
	s.transactionsSinceMin = uint64(n) // force next ComputeMinActiveID to run
	s.mu.Unlock()
}

// GlobalID returns the current global transaction counter, mostly for tests
// and diagnostics.
func (s *System) GlobalID() uint64 {
	return s.globalTransactionID.Load()
}

// MinActiveID returns the last computed minimum active transaction id.
func (s *System) MinActiveID() uint64 {
	return s.minActiveID.Load()
}
