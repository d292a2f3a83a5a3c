package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SetTraceStats records a completed query's plan/statistics text and the
// format GetTraceStats should render it in, mirroring session_set_trace_stats.
func (m *Manager) SetTraceStats(id uint32, planString, traceStats string, format TraceFormat) error {
	return m.withSession(id, func(st *State) error {
		st.PlanString = planString
		st.TraceStats = traceStats
		st.TraceFormat = format
		return nil
	})
}

// ClearTraceStats discards id's captured plan/statistics text, mirroring
// session_clear_trace_stats.
func (m *Manager) ClearTraceStats(id uint32) error {
	return m.withSession(id, func(st *State) error {
		st.PlanString = ""
		st.TraceStats = ""
		return nil
	})
}

// tracedStats is rendered with encoding/json's struct-declaration-order
// guarantee standing in for jansson's JSON_PRESERVE_ORDER: "Query Plan" must
// precede "Trace Statistics" in the output exactly as the fields appear here.
type tracedStats struct {
	QueryPlan       json.RawMessage `json:"Query Plan,omitempty"`
	TraceStatistics json.RawMessage `json:"Trace Statistics,omitempty"`
}

// GetTraceStats renders id's captured plan/statistics as text or JSON per
// its stored TraceFormat. An empty string with ok=false means nothing was
// captured, matching session_get_trace_stats's DB_VALUE-null path.
func (m *Manager) GetTraceStats(id uint32) (string, bool, error) {
	var plan, stats string
	var format TraceFormat
	err := m.withSession(id, func(st *State) error {
		plan, stats, format = st.PlanString, st.TraceStats, st.TraceFormat
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if plan == "" && stats == "" {
		return "", false, nil
	}

	if format == TraceJSON {
		out := tracedStats{}
		if plan != "" && json.Valid([]byte(plan)) {
			out.QueryPlan = json.RawMessage(plan)
		}
		if stats != "" && json.Valid([]byte(stats)) {
			out.TraceStatistics = json.RawMessage(stats)
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	}

	var buf bytes.Buffer
	if plan != "" {
		fmt.Fprintf(&buf, "\nQuery Plan:\n%s", plan)
	}
	if stats != "" {
		fmt.Fprintf(&buf, "\nTrace Statistics:\n%s", stats)
	}
	return buf.String(), true, nil
}

// SessionTZRegion returns id's session timezone region name, set at login.
func (m *Manager) SessionTZRegion(id uint32) (string, error) {
	var tz string
	err := m.withSession(id, func(st *State) error {
		tz = st.TZRegion
		return nil
	})
	return tz, err
}

// SetSessionTZRegion sets id's session timezone region name.
func (m *Manager) SetSessionTZRegion(id uint32, tz string) error {
	return m.withSession(id, func(st *State) error {
		st.TZRegion = tz
		return nil
	})
}
