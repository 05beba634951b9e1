package flow

// These errors are editor errors, not internal errors.  Each check in
// Validate fails with its own type so the flow editor can say exactly
// what was wrong with the submission.

import (
	"errors"
	"fmt"
	"strings"
)

// GraphError marks an error as an editor-facing graph rejection.  The
// gateway maps these to a 400 and everything else to a 5xx.
type GraphError interface {
	error
	graphError()
}

// IsGraphError reports whether err (or anything it wraps) is an
// editor-facing graph rejection.
func IsGraphError(err error) bool {
	var ge GraphError
	return errors.As(err, &ge)
}

// FormatError occurs when the submitted graph is not even the right
// shape: not an object, or nodes/edges not arrays.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid graph format: " + e.Reason
}

func (e *FormatError) graphError() {}

// EmptyGraphError occurs when a graph has no nodes.
type EmptyGraphError struct{}

func (e *EmptyGraphError) Error() string {
	return "invalid graph: there should be at least one node"
}

func (e *EmptyGraphError) graphError() {}

// EntryPointError occurs when the number of nodes with no incoming
// edge is not exactly one: either dangling nodes or multiple roots.
type EntryPointError struct {
	// Untargeted are the ids of the nodes with no incoming edge.
	Untargeted []string
}

func (e *EntryPointError) Error() string {
	if len(e.Untargeted) == 0 {
		return "invalid graph: no entry point (every node has an incoming edge)"
	}
	return fmt.Sprintf("invalid graph: %d entry points (%s); expected exactly one",
		len(e.Untargeted), strings.Join(e.Untargeted, ", "))
}

func (e *EntryPointError) graphError() {}

// RootError occurs when the single entry-point node is not a context
// node titled "root".
type RootError struct {
	ID    string
	Kind  string
	Title string
}

func (e *RootError) Error() string {
	return fmt.Sprintf(`invalid graph: entry node %q must be a context node titled %q (got type %q, title %q)`,
		e.ID, RootState, e.Kind, e.Title)
}

func (e *RootError) graphError() {}

// UnknownKindError occurs when a node's type is neither an intent node
// nor a context node.
type UnknownKindError struct {
	ID   string
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unrecognized node type %q (node %q)", e.Kind, e.ID)
}

func (e *UnknownKindError) graphError() {}

// DuplicateIntentError occurs when two intent nodes compile to the
// same display name.  The provider would otherwise silently collide
// them.
type DuplicateIntentError struct {
	Title string
}

func (e *DuplicateIntentError) Error() string {
	return fmt.Sprintf("duplicate intent display name %q", e.Title)
}

func (e *DuplicateIntentError) graphError() {}
