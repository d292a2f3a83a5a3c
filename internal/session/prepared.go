package session

import (
	"context"
	"strings"

	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// PreparedStatement is one named compiled-statement handle (§4.7).
type PreparedStatement struct {
	Name       string
	AliasPrint string // empty means "no alias print": GetPreparedStatement skips the XASL lookup
	SHA1       xexternal.SHA1Hash
	Info       []byte
}

// CreatePreparedStatement stores stmt under its Name, replacing any existing
// statement with the same name (case-insensitive), and fails with
// TooManyStatements once the session already holds MaxPreparedStatements
// distinctly-named statements, mirroring session_create_prepared_statement's
// find-and-remove-then-count-then-insert order.
func (m *Manager) CreatePreparedStatement(id uint32, stmt *PreparedStatement) error {
	return m.withSession(id, func(st *State) error {
		for i, s := range st.Statements {
			if strings.EqualFold(s.Name, stmt.Name) {
				st.Statements = append(st.Statements[:i], st.Statements[i+1:]...)
				st.Statements = append([]*PreparedStatement{stmt}, st.Statements...)
				return nil
			}
		}
		if len(st.Statements) >= MaxPreparedStatements {
			return qxerr.New(qxerr.TooManyStatements, "session.CreatePreparedStatement")
		}
		st.Statements = append([]*PreparedStatement{stmt}, st.Statements...)
		return nil
	})
}

// GetPreparedStatement returns name's statement and, when it carries a
// non-empty AliasPrint, the resolved XASL cache entry. When AliasPrint is
// empty, finder.FindBySHA1 is deliberately never called — we do not search
// for the XASL entry, mirroring session_get_prepared_statement's
// alias_print == NULL early return.
func (m *Manager) GetPreparedStatement(ctx context.Context, id uint32, finder xexternal.XASLCacheFinder, name string) (*PreparedStatement, xexternal.XASLCacheEntry, error) {
	var found *PreparedStatement
	err := m.withSession(id, func(st *State) error {
		for _, s := range st.Statements {
			if strings.EqualFold(s.Name, name) {
				found = s
				return nil
			}
		}
		return qxerr.New(qxerr.PreparedNameNotFound, "session.GetPreparedStatement")
	})
	if err != nil {
		return nil, nil, err
	}

	if found.AliasPrint == "" {
		return found, nil, nil
	}

	// The XASL id is not session-specific, so this lookup happens outside
	// the session's entry lock.
	entry, _, err := finder.FindBySHA1(ctx, found.SHA1)
	if err != nil {
		return nil, nil, qxerr.Wrap(qxerr.Failed, "session.GetPreparedStatement", err)
	}
	return found, entry, nil
}

// DeletePreparedStatement removes name if present; an unknown name is not an
// error, matching session_delete_prepared_statement.
func (m *Manager) DeletePreparedStatement(id uint32, name string) error {
	return m.withSession(id, func(st *State) error {
		for i, s := range st.Statements {
			if strings.EqualFold(s.Name, name) {
				st.Statements = append(st.Statements[:i], st.Statements[i+1:]...)
				return nil
			}
		}
		return nil
	})
}
