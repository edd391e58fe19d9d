package domain

import (
	"errors"
	"fmt"
)

// ErrCode classifies an Error into the taxonomy the scheduler and CLI
// reason about: which exit code to use, whether a retry makes sense, and
// how to report the failure to a caller.
type ErrCode string

const (
	// ErrLoad covers malformed workflow documents: duplicate node ids,
	// unknown kinds, dangling dependencies, cycles.
	ErrLoad ErrCode = "LOAD_ERROR"

	// ErrResolution covers template parse failures and references to
	// undeclared or not-yet-completed nodes.
	ErrResolution ErrCode = "RESOLUTION_ERROR"

	// ErrHandler covers kind-specific failures: non-zero exit, HTTP
	// status, JSONPath miss, file I/O, LLM API error.
	ErrHandler ErrCode = "HANDLER_ERROR"

	// ErrTimeout is raised when a node's timeout_ms elapses.
	ErrTimeout ErrCode = "TIMEOUT_ERROR"

	// ErrCancellation is raised when a run is aborted mid-flight.
	ErrCancellation ErrCode = "CANCELLATION_ERROR"

	// ErrProtocol covers distributed-mode failures: worker lost,
	// duplicate result, schema mismatch.
	ErrProtocol ErrCode = "PROTOCOL_ERROR"
)

// Error is the engine's structured error type. It carries enough context
// (workflow/run/node identifiers) to be reported usefully without string
// parsing, and wraps an optional underlying cause.
type Error struct {
	Code       ErrCode
	Message    string
	WorkflowID string
	RunID      string
	NodeID     string
	Cause      error
}

func (e *Error) Error() string {
	switch {
	case e.NodeID != "" && e.Cause != nil:
		return fmt.Sprintf("%s: node %q: %s: %v", e.Code, e.NodeID, e.Message, e.Cause)
	case e.NodeID != "":
		return fmt.Sprintf("%s: node %q: %s", e.Code, e.NodeID, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError creates an Error with no node/run/workflow context attached.
func NewError(code ErrCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewNodeError creates an Error attributed to a specific node.
func NewNodeError(code ErrCode, nodeID, message string, cause error) *Error {
	return &Error{Code: code, NodeID: nodeID, Message: message, Cause: cause}
}

// WithRun returns a copy of the error annotated with workflow/run identifiers.
func (e *Error) WithRun(workflowID, runID string) *Error {
	cp := *e
	cp.WorkflowID = workflowID
	cp.RunID = runID
	return &cp
}

// Code extracts the ErrCode from err if it is (or wraps) an *Error.
func Code(err error) (ErrCode, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}
