package fixtures

import (
	"context"
	"fmt"
	"sync"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// XASLExecutor materializes one subquery plan's result list. The fixture
// has no query compiler/optimizer of its own (out of scope per
// SPEC_FULL.md's Non-goals), so a caller registers one executor per
// regu.XASLNode identity it expects to see, the way a test wires a canned
// subquery result.
type XASLExecutor func(ctx context.Context, vd xexternal.ValueDescriptor) (xexternal.ListID, error)

// xaslRegistry maps a regu.XASLNode identity to its executor, plus the
// per-node status recorded once ExecuteReguVariableXASL has run.
type xaslRegistry struct {
	mu        sync.Mutex
	executors map[regu.XASLNode]XASLExecutor
	status    map[regu.XASLNode]xexternal.XASLStatus
}

// RegisterXASL associates node with the executor run when a regu.ListID
// variable carrying that XASL identity is lazily executed.
func (e *Engine) RegisterXASL(node regu.XASLNode, exec XASLExecutor) {
	e.xaslExec.mu.Lock()
	defer e.xaslExec.mu.Unlock()
	if e.xaslExec.executors == nil {
		e.xaslExec.executors = make(map[regu.XASLNode]XASLExecutor)
		e.xaslExec.status = make(map[regu.XASLNode]xexternal.XASLStatus)
	}
	e.xaslExec.executors[node] = exec
}

// ExecuteReguVariableXASL mirrors execute_regu_variable_xasl: runs v's
// registered executor and stores the resulting list handle in v's
// ListHandle field, matching the "materialize on first use" lazy
// subquery contract a LIST_ID regu variable has with the XASL runtime.
func (e *Engine) ExecuteReguVariableXASL(ctx context.Context, v regu.Variable, vd xexternal.ValueDescriptor) error {
	lst, ok := v.(*regu.ListID)
	if !ok {
		return fmt.Errorf("fixtures: ExecuteReguVariableXASL: expected *regu.ListID, got %T", v)
	}

	node := lst.Common.XASL
	e.xaslExec.mu.Lock()
	exec, found := e.xaslExec.executors[node]
	e.xaslExec.mu.Unlock()
	if !found {
		e.setStatus(node, xexternal.XASLError)
		return fmt.Errorf("fixtures: ExecuteReguVariableXASL: no executor registered for %v", node)
	}

	handle, err := exec(ctx, vd)
	if err != nil {
		e.setStatus(node, xexternal.XASLError)
		return fmt.Errorf("fixtures: ExecuteReguVariableXASL: %w", err)
	}

	lst.ListHandle = handle
	e.setStatus(node, xexternal.XASLOK)
	return nil
}

// ReguVariableXASLStatus mirrors regu_variable_xasl_status.
func (e *Engine) ReguVariableXASLStatus(v regu.Variable) xexternal.XASLStatus {
	node := v.Common().XASL
	e.xaslExec.mu.Lock()
	defer e.xaslExec.mu.Unlock()
	status, found := e.xaslExec.status[node]
	if !found {
		return xexternal.XASLError
	}
	return status
}

func (e *Engine) setStatus(node regu.XASLNode, status xexternal.XASLStatus) {
	e.xaslExec.mu.Lock()
	defer e.xaslExec.mu.Unlock()
	if e.xaslExec.status == nil {
		e.xaslExec.status = make(map[regu.XASLNode]xexternal.XASLStatus)
	}
	e.xaslExec.status[node] = status
}
