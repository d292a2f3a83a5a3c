package session

import "github.com/cubrid/qxengine/internal/sysparam"

// SessionParameters returns id's own SET SYSTEM PARAMETERS overrides, or nil
// if it has none, mirroring session_get_session_parameters.
func (m *Manager) SessionParameters(id uint32) (*sysparam.Override, error) {
	var out *sysparam.Override
	err := m.withSession(id, func(st *State) error {
		out = st.Overrides
		return nil
	})
	return out, err
}

// SetSessionParameters replaces id's override set wholesale, mirroring
// session_set_session_parameters.
func (m *Manager) SetSessionParameters(id uint32, override *sysparam.Override) error {
	return m.withSession(id, func(st *State) error {
		st.Overrides = override
		return nil
	})
}

// EffectiveParams resolves id's session parameters against the Manager's
// global snapshot.
func (m *Manager) EffectiveParams(id uint32) (*sysparam.Params, error) {
	var out *sysparam.Params
	err := m.withSession(id, func(st *State) error {
		out = st.Params(m.params.Get())
		return nil
	})
	return out, err
}
