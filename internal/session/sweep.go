package session

import (
	"context"
	"time"

	"github.com/cubrid/qxengine/internal/lfring/epoch"
	"github.com/cubrid/qxengine/internal/lfring/lfhash"
	"github.com/cubrid/qxengine/internal/qxerr"
)

// expiredBatchSize bounds one pass's expired-id buffer, matching
// EXPIRED_SESSION_BUFFER_SIZE: lf_hash_table's erase cannot be called while
// an iterator transaction is open, so expired ids are collected in batches
// and erased only once the scan pauses.
const expiredBatchSize = 1024

// Sweep walks every live session and destroys those that have been idle
// past the session-state timeout and have no active connection, per
// session_remove_expired_sessions / session_check_timeout. isActive reports
// whether a session id still has a live client connection; it may be nil,
// in which case every timed-out session is treated as connection-less.
// Sweep restarts its scan after each batch erase, since erasing while an
// iterator transaction is open is not supported.
func (m *Manager) Sweep(ctx context.Context, isActive func(id uint32) bool) (int, error) {
	params := m.params.Get()
	timeout := time.Duration(params.SessionStateTimeoutSeconds) * time.Second

	e, err := m.tbl.RequestEntry()
	if err != nil {
		return 0, qxerr.Wrap(qxerr.Failed, "session.Sweep", err)
	}
	defer m.tbl.ReturnEntry(e)

	removed := 0
	for {
		select {
		case <-ctx.Done():
			return removed, ctx.Err()
		default:
		}

		expired, more := m.collectExpiredBatch(e, timeout, isActive)
		for _, id := range expired {
			m.tbl.Erase(e, id)
			removed++
		}
		if !more {
			return removed, nil
		}
	}
}

// collectExpiredBatch scans up to one full iterator pass, returning the
// first expiredBatchSize expired ids it finds and whether the pass was cut
// short (more work may remain) versus exhausted normally.
func (m *Manager) collectExpiredBatch(e *epoch.Entry, timeout time.Duration, isActive func(uint32) bool) ([]uint32, bool) {
	it := lfhash.NewIterator[uint32, State](m.tbl, e)
	defer it.Close()

	var expired []uint32
	for {
		id, st, ok := it.Iterate()
		if !ok {
			return expired, false
		}
		if nowFunc().Sub(st.ActiveTime) >= timeout && (isActive == nil || !isActive(id)) {
			expired = append(expired, id)
			if len(expired) == expiredBatchSize {
				return expired, true
			}
		}
	}
}
