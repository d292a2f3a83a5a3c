package session

import (
	"sync/atomic"

	"github.com/cubrid/qxengine/internal/xexternal"
)

// HoldableQuery is a query result kept alive across a commit (WITH HOLD
// cursor), mirroring SESSION_QUERY_ENTRY.
type HoldableQuery struct {
	QueryID    int64
	ListID     xexternal.ListID
	TempFile   string
	NumTmp     int
	TotalCount int64
	QueryFlag  int
	Preserved  bool
}

// numHoldableCursors is process-wide, mirroring sessions.num_holdable_cursors.
var numHoldableCursors atomic.Int64

// NumHoldableCursors returns the process-wide count of held cursors.
func NumHoldableCursors() int64 { return numHoldableCursors.Load() }

// StoreHoldableQuery adds q to id's holdable list unless a query with the
// same QueryID is already held, matching session_store_query_entry_info's
// dedup-by-id scan. Returns true if q was newly stored.
func (m *Manager) StoreHoldableQuery(id uint32, q *HoldableQuery) (bool, error) {
	stored := false
	err := m.withSession(id, func(st *State) error {
		for _, existing := range st.Holdable {
			if existing.QueryID == q.QueryID {
				return nil
			}
		}
		st.Holdable = append([]*HoldableQuery{q}, st.Holdable...)
		stored = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if stored {
		numHoldableCursors.Add(1)
	}
	return stored, nil
}

// LoadHoldableQuery returns queryID's held entry, if any.
func (m *Manager) LoadHoldableQuery(id uint32, queryID int64) (*HoldableQuery, error) {
	var found *HoldableQuery
	err := m.withSession(id, func(st *State) error {
		for _, q := range st.Holdable {
			if q.QueryID == queryID {
				found = q
				return nil
			}
		}
		return nil
	})
	return found, err
}

// RemoveHoldableQuery drops queryID's entry and tells the caller whether a
// close of its backing list files is required (it is, unlike
// ClearHoldableQuery), mirroring session_remove_query_entry_info vs.
// session_clear_query_entry_info.
func (m *Manager) RemoveHoldableQuery(id uint32, queryID int64) (*HoldableQuery, error) {
	var removed *HoldableQuery
	err := m.withSession(id, func(st *State) error {
		for i, q := range st.Holdable {
			if q.QueryID == queryID {
				removed = q
				st.Holdable = append(st.Holdable[:i], st.Holdable[i+1:]...)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed != nil {
		numHoldableCursors.Add(-1)
	}
	return removed, nil
}

// ClearHoldableQuery drops queryID's entry without counting it as a
// list-file close, since the caller already took ownership of the files.
func (m *Manager) ClearHoldableQuery(id uint32, queryID int64) error {
	return m.withSession(id, func(st *State) error {
		for i, q := range st.Holdable {
			if q.QueryID == queryID {
				st.Holdable = append(st.Holdable[:i], st.Holdable[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

// RemoveAllHoldableQueries clears id's entire holdable list, returning the
// removed entries so the caller can close their backing list files,
// mirroring session_remove_query_entry_all.
func (m *Manager) RemoveAllHoldableQueries(id uint32) ([]*HoldableQuery, error) {
	var all []*HoldableQuery
	err := m.withSession(id, func(st *State) error {
		all = st.Holdable
		st.Holdable = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	numHoldableCursors.Add(-int64(len(all)))
	return all, nil
}
