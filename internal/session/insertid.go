package session

import (
	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// numericTargetDomain is the domain a coerced insert id is normalized to,
// mirroring session_set_cur_insert_id's DB_TYPE_NUMERIC(38,0) target
// (DB_MAX_NUMERIC_PRECISION, scale 0).
const numericTargetDomain regu.Domain = "NUMERIC(38,0)"

var errFailedCoercion = qxerr.New(qxerr.DomainConflict, "session.SetCurInsertID")

// GetLastInsertID returns the session's last-insert-id value. When
// updateLastInsertID is set and the session is not inside a trigger and a
// current insert id is pending, the pending value is folded into
// last-insert-id first (and cleared), matching session_get_last_insert_id.
func (m *Manager) GetLastInsertID(id uint32, vd xexternal.ValueDescriptor, updateLastInsertID bool) (*regu.DBValue, error) {
	var out *regu.DBValue
	err := m.withSession(id, func(st *State) error {
		if updateLastInsertID && !st.IsTriggerInvolved && st.CurInsertID != nil && !st.CurInsertID.IsNull {
			st.LastInsertID = vd.Clone(st.CurInsertID)
			st.CurInsertID = &regu.DBValue{IsNull: true}
		}
		out = vd.Clone(st.LastInsertID)
		return nil
	})
	return out, err
}

// SetCurInsertID records value as the session's pending insert id. Unless
// force is set, a value already generated this statement (or a session
// inside a trigger) is left untouched, matching session_set_cur_insert_id.
// value is coerced to the session's fixed NUMERIC(38,0) storage domain
// whenever it does not already carry it.
func (m *Manager) SetCurInsertID(id uint32, vd xexternal.ValueDescriptor, value *regu.DBValue, force bool) error {
	return m.withSession(id, func(st *State) error {
		if (!force && st.IsLastInsertIDGenerated) || st.IsTriggerInvolved {
			return nil
		}
		if st.CurInsertID != nil && !st.CurInsertID.IsNull {
			st.LastInsertID = vd.Clone(st.CurInsertID)
		}
		coerced, status := vd.Cast(value, numericTargetDomain)
		if status != xexternal.CastOK {
			st.CurInsertID = &regu.DBValue{IsNull: true}
			return errFailedCoercion
		}
		st.CurInsertID = coerced
		st.IsLastInsertIDGenerated = true
		return nil
	})
}

// ResetCurInsertID clears the pending insert id after a failed insert,
// unless the session is inside a trigger or no id was generated yet,
// matching session_reset_cur_insert_id.
func (m *Manager) ResetCurInsertID(id uint32) error {
	return m.withSession(id, func(st *State) error {
		if st.IsTriggerInvolved || !st.IsLastInsertIDGenerated {
			return nil
		}
		st.CurInsertID = &regu.DBValue{IsNull: true}
		st.IsLastInsertIDGenerated = false
		return nil
	})
}

// BeginInsertValues marks the start of a new INSERT ... VALUES statement,
// unless the session is inside a trigger, matching session_begin_insert_values.
func (m *Manager) BeginInsertValues(id uint32) error {
	return m.withSession(id, func(st *State) error {
		if st.IsTriggerInvolved {
			return nil
		}
		st.IsLastInsertIDGenerated = false
		return nil
	})
}

// SetTriggerState records whether id's session is currently executing
// trigger code, suppressing insert-id bookkeeping while true.
func (m *Manager) SetTriggerState(id uint32, inTrigger bool) error {
	return m.withSession(id, func(st *State) error {
		st.IsTriggerInvolved = inTrigger
		return nil
	})
}

// GetRowCount returns id's last affected-row count.
func (m *Manager) GetRowCount(id uint32) (int, error) {
	var n int
	err := m.withSession(id, func(st *State) error {
		n = st.RowCount
		return nil
	})
	return n, err
}

// SetRowCount stores id's affected-row count.
func (m *Manager) SetRowCount(id uint32, rowCount int) error {
	return m.withSession(id, func(st *State) error {
		st.RowCount = rowCount
		return nil
	})
}
