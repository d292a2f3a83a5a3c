package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cubrid/qxengine/internal/lfring/epoch"
	"github.com/cubrid/qxengine/internal/lfring/lfhash"
	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/sysparam"
)

// Manager owns the registry of live sessions. Every method that mutates a
// State acquires that entry's per-entry mutex via the backing
// lfhash.Table (Mutexed: true) rather than a second lock on State itself —
// the registry's entry-locked mode is the "session mutex" of §3's Session
// fields.
type Manager struct {
	tbl    *lfhash.Table[uint32, State]
	tran   *epoch.System
	lastID atomic.Uint32
	params *sysparam.Manager
}

// NewManager builds a Manager with hashSize buckets in its registry, backed
// by its own epoch.System, reading timeouts and caps from params.
func NewManager(hashSize int, params *sysparam.Manager) *Manager {
	tran := epoch.NewSystem(256)
	desc := lfhash.EntryDescriptor[uint32, State]{
		Hash:    func(key uint32, size uint32) uint32 { return key % size },
		Less:    func(a, b uint32) bool { return a < b },
		Alloc:   func(key uint32) *State { return newState(key) },
		Mutexed: true,
	}
	return &Manager{
		tbl:    lfhash.New[uint32, State](hashSize, tran, desc),
		tran:   tran,
		params: params,
	}
}

// Create allocates a new session id (atomic-increment of a module-wide
// counter, the id doubling as the lookup key per §4.7) and inserts its
// blank State into the registry, retrying with the next id on collision.
func (m *Manager) Create(ctx context.Context) (uint32, error) {
	e, err := m.tbl.RequestEntry()
	if err != nil {
		return 0, qxerr.Wrap(qxerr.Failed, "session.Create", err)
	}
	defer m.tbl.ReturnEntry(e)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Microsecond
	b.MaxInterval = time.Millisecond
	b.MaxElapsedTime = 0

	for {
		id := m.lastID.Add(1)
		if id == 0 {
			continue // 0 is the reserved "no session" sentinel id
		}
		_, inserted, err := m.tbl.InsertGiven(e, id, newState(id), lfhash.DuplicateCallHandler)
		if err != nil {
			return 0, qxerr.Wrap(qxerr.Failed, "session.Create", err)
		}
		if inserted {
			return id, nil
		}
		// collided with a live session at this id: bump and retry, as
		// session_state_create does via its CAS-rollback loop.
		if d := b.NextBackOff(); d > 0 {
			time.Sleep(d)
		}
	}
}

// Check finds id's session, bumps its activity time, increments its
// reference count, and returns it. Callers must pair every successful Check
// with a Release once done using the session.
func (m *Manager) Check(id uint32) (*State, error) {
	e, err := m.tbl.RequestEntry()
	if err != nil {
		return nil, qxerr.Wrap(qxerr.Failed, "session.Check", err)
	}
	defer m.tbl.ReturnEntry(e)

	ref, ok := m.tbl.Find(e, id)
	if !ok {
		return nil, qxerr.New(qxerr.SessionExpired, "session.Check")
	}
	defer ref.Unlock()

	ref.Value.ActiveTime = nowFunc()
	ref.Value.RefCount++
	return ref.Value, nil
}

// Release decrements id's reference count without destroying it, matching
// the "drop the reference" half of the create flow and the unlock half of
// session_check_session.
func (m *Manager) Release(id uint32) error {
	e, err := m.tbl.RequestEntry()
	if err != nil {
		return qxerr.Wrap(qxerr.Failed, "session.Release", err)
	}
	defer m.tbl.ReturnEntry(e)

	ref, ok := m.tbl.Find(e, id)
	if !ok {
		return qxerr.New(qxerr.SessionExpired, "session.Release")
	}
	if ref.Value.RefCount > 0 {
		ref.Value.RefCount--
	}
	ref.Unlock()
	return nil
}

// Destroy removes id's session if its reference count is zero; otherwise it
// is busy (in use by another request) and Destroy is a no-op, matching
// session_state_destroy's "I can't remove" path.
func (m *Manager) Destroy(id uint32) error {
	e, err := m.tbl.RequestEntry()
	if err != nil {
		return qxerr.Wrap(qxerr.Failed, "session.Destroy", err)
	}
	defer m.tbl.ReturnEntry(e)

	ref, ok := m.tbl.Find(e, id)
	if !ok {
		return qxerr.New(qxerr.SessionExpired, "session.Destroy")
	}
	busy := ref.Value.RefCount > 0
	ref.Unlock()
	if busy {
		return nil
	}

	m.tbl.Erase(e, id)
	return nil
}

// withSession locates id's session, holds its entry mutex for the duration
// of fn, and returns fn's error (or ErrSessionExpired if id is unknown).
func (m *Manager) withSession(id uint32, fn func(*State) error) error {
	e, err := m.tbl.RequestEntry()
	if err != nil {
		return qxerr.Wrap(qxerr.Failed, "session", err)
	}
	defer m.tbl.ReturnEntry(e)

	ref, ok := m.tbl.Find(e, id)
	if !ok {
		return qxerr.New(qxerr.SessionExpired, "session")
	}
	defer ref.Unlock()

	return fn(ref.Value)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int64 { return m.tbl.Count() }

// nowFunc is a var so tests can observe deterministic active-time updates
// without sleeping.
var nowFunc = func() time.Time { return time.Now() }
