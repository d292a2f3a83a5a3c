// Package session implements the per-connection session state manager
// (§4.7, §3 "Session"): id allocation, a lock-free registry, prepared
// statements, session variables, holdable cursors, last-insert-id tracking,
// trace-stats capture, and a reaper sweep. It is grounded on
// original_source/src/session/session.c, with the registry built on
// internal/lfring/lfhash the way the teacher's internal/rpc/server_core.go
// tracks live connections behind a shared table.
package session

import (
	"time"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/sysparam"
)

// MaxSessionVariables is the per-session cap on session variables
// (MAX_SESSION_VARIABLES_COUNT).
const MaxSessionVariables = 20

// MaxPreparedStatements is the per-session cap on prepared statements
// (MAX_PREPARED_STATEMENTS_COUNT).
const MaxPreparedStatements = 20

// TraceFormat selects how GetTraceStats renders a session's captured trace.
type TraceFormat int

const (
	TraceText TraceFormat = iota
	TraceJSON
)

// State is one session's transient data, keyed by ID in a Manager's
// registry. Every field is mutated only while the owning Manager holds this
// entry's lfhash per-entry mutex (see Manager's doc comment) — there is
// deliberately no separate sync.Mutex field on State itself, since the
// registry's entry-locked mode already provides exactly that exclusion.
type State struct {
	ID         uint32
	RefCount   int
	ActiveTime time.Time
	AutoCommit bool

	IsTriggerInvolved          bool
	IsLastInsertIDGenerated    bool
	CurInsertID                *regu.DBValue
	LastInsertID               *regu.DBValue
	RowCount                   int

	Variables  []*Variable
	Statements []*PreparedStatement
	Holdable   []*HoldableQuery

	PlanString  string
	TraceStats  string
	TraceFormat TraceFormat

	TZRegion string

	// Overrides holds this session's SET SYSTEM PARAMETERS changes, layered
	// on top of the Manager's global sysparam.Params by Params().
	Overrides *sysparam.Override

	PrivateLRUIndex int
}

func newState(id uint32) *State {
	return &State{
		ID:           id,
		ActiveTime:   nowFunc(),
		CurInsertID:  &regu.DBValue{IsNull: true},
		LastInsertID: &regu.DBValue{IsNull: true},
	}
}

// Params resolves this session's effective parameter snapshot, layering its
// own overrides (if any) on top of the Manager-wide base.
func (s *State) Params(base *sysparam.Params) *sysparam.Params {
	return s.Overrides.Resolve(base)
}
