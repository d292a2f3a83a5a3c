package session

import (
	"strings"

	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// Variable is one SESSION_VARIABLE entry.
type Variable struct {
	Name  string
	Value *regu.DBValue
}

func findVariable(vars []*Variable, name string) *Variable {
	for _, v := range vars {
		if strings.EqualFold(v.Name, name) {
			return v
		}
	}
	return nil
}

// coerceForStore implements db_value_alloc_and_copy's update rule: numeric
// values are cloned as-is; char/bit values are copied as-is (already a text
// form); anything else is coerced through VARCHAR via vd, so the session
// only ever retains numeric or textual payloads. When oracleStyleEmptyString
// is set, a NULL input becomes an empty string instead of staying NULL,
// matching the Oracle-compatibility fallback gated by that parameter.
func coerceForStore(vd xexternal.ValueDescriptor, v *regu.DBValue, oracleStyleEmptyString bool) *regu.DBValue {
	if v == nil || v.IsNull {
		if oracleStyleEmptyString {
			return &regu.DBValue{Data: ""}
		}
		return &regu.DBValue{IsNull: true}
	}
	switch v.Data.(type) {
	case int, int32, int64, float32, float64:
		return vd.Clone(v)
	case string, []byte:
		return vd.Clone(v)
	default:
		coerced, status := vd.Cast(v, "VARCHAR")
		if status != xexternal.CastOK {
			return &regu.DBValue{IsNull: true}
		}
		return coerced
	}
}

// SetVariable adds or updates a session variable. A name already present is
// updated in place (coerceForStore's rule); a new name beyond
// MaxSessionVariables fails with TooManyVariables.
func (m *Manager) SetVariable(id uint32, vd xexternal.ValueDescriptor, name string, value *regu.DBValue) error {
	return m.withSession(id, func(st *State) error {
		oracleEmpty := st.Params(m.params.Get()).OracleStyleEmptyString
		if existing := findVariable(st.Variables, name); existing != nil {
			existing.Value = coerceForStore(vd, value, oracleEmpty)
			return nil
		}
		if len(st.Variables) >= MaxSessionVariables {
			return qxerr.New(qxerr.TooManyVariables, "session.SetVariable")
		}
		st.Variables = append(st.Variables, &Variable{Name: name, Value: coerceForStore(vd, value, oracleEmpty)})
		return nil
	})
}

// GetVariable returns a copy of name's current value.
func (m *Manager) GetVariable(id uint32, vd xexternal.ValueDescriptor, name string) (*regu.DBValue, error) {
	var out *regu.DBValue
	err := m.withSession(id, func(st *State) error {
		v := findVariable(st.Variables, name)
		if v == nil {
			return qxerr.New(qxerr.VariableNotFound, "session.GetVariable")
		}
		out = vd.Clone(v.Value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DropVariable removes name if present; dropping an unknown name is not an
// error, matching session_drop_variable's unconditional NO_ERROR return.
func (m *Manager) DropVariable(id uint32, name string) error {
	return m.withSession(id, func(st *State) error {
		for i, v := range st.Variables {
			if strings.EqualFold(v.Name, name) {
				st.Variables = append(st.Variables[:i], st.Variables[i+1:]...)
				return nil
			}
		}
		return nil
	})
}
