package session

import (
	"fmt"
	"io"

	"github.com/cubrid/qxengine/internal/lfring/lfhash"
	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// DumpText writes every live session's state to w in the original's
// fprintf(stdout, ...) layout, mirroring session_states_dump /
// session_dump_session / session_dump_variable / session_dump_prepared_statement.
func (m *Manager) DumpText(w io.Writer, vd xexternal.ValueDescriptor) error {
	e, err := m.tbl.RequestEntry()
	if err != nil {
		return qxerr.Wrap(qxerr.Failed, "session.DumpText", err)
	}
	defer m.tbl.ReturnEntry(e)

	fmt.Fprintf(w, "\nSESSION COUNT = %d\n", m.tbl.Count())

	it := lfhash.NewIterator[uint32, State](m.tbl, e)
	defer it.Close()

	for {
		_, st, ok := it.Iterate()
		if !ok {
			break
		}
		dumpSession(w, st, vd)
	}
	return nil
}

func dumpSession(w io.Writer, st *State, vd xexternal.ValueDescriptor) {
	fmt.Fprintf(w, "SESSION ID = %d\n", st.ID)

	lastInsertStr := "NULL"
	if st.LastInsertID != nil && !st.LastInsertID.IsNull {
		if v, status := vd.Cast(st.LastInsertID, "VARCHAR"); status == xexternal.CastOK && v.Data != nil {
			lastInsertStr = fmt.Sprint(v.Data)
		}
	}
	fmt.Fprintf(w, "\tLAST_INSERT_ID = %s\n", lastInsertStr)
	fmt.Fprintf(w, "\tROW_COUNT = %d\n", st.RowCount)
	fmt.Fprintf(w, "\tAUTO_COMMIT = %v\n", st.AutoCommit)

	fmt.Fprintf(w, "\tSESSION VARIABLES\n")
	for _, v := range st.Variables {
		dumpVariable(w, v, vd)
	}

	fmt.Fprintf(w, "\tPREPRARE STATEMENTS\n")
	for _, s := range st.Statements {
		dumpPreparedStatement(w, s)
	}

	fmt.Fprintln(w)
}

func dumpVariable(w io.Writer, v *Variable, vd xexternal.ValueDescriptor) {
	if v == nil {
		return
	}
	if v.Name != "" {
		fmt.Fprintf(w, "\t\t%s = ", v.Name)
	}
	if v.Value != nil {
		if s, status := vd.Cast(v.Value, "VARCHAR"); status == xexternal.CastOK {
			fmt.Fprintf(w, "%v\n", s.Data)
		}
	}
}

func dumpPreparedStatement(w io.Writer, s *PreparedStatement) {
	if s == nil {
		return
	}
	if s.Name != "" {
		fmt.Fprintf(w, "\t\t%s = ", s.Name)
	}
	if s.AliasPrint != "" {
		fmt.Fprintf(w, "%s\n", s.AliasPrint)
		fmt.Fprintf(w, "sha1 = %08x | %08x | %08x | %08x | %08x\n",
			s.SHA1[0], s.SHA1[1], s.SHA1[2], s.SHA1[3], s.SHA1[4])
	}
}
