package route

import (
	"sync/atomic"

	"github.com/Comcast/chatflow/flow"
)

// Engine serves routing lookups against the most recently installed
// table.
//
// The table is the only state shared by concurrent lookups, and it is
// treated as an immutable value: Install performs a single atomic
// pointer swap, and a lookup that took its snapshot before a swap
// keeps reading the old table to completion.  No locks.
type Engine struct {
	table atomic.Pointer[Table]
}

// NewEngine returns an engine with an empty table installed, so that
// routing before the first successful rebuild cleanly reports no
// route.
func NewEngine() *Engine {
	e := &Engine{}
	e.table.Store(Build(nil))
	return e
}

// Install atomically swaps in a new table for all subsequent lookups.
func (e *Engine) Install(t *Table) {
	e.table.Store(t)
}

// Snapshot returns the current table.  Callers that need several
// reads against one consistent version should take one snapshot and
// use it throughout.
func (e *Engine) Snapshot() *Table {
	return e.table.Load()
}

// Route resolves the next states for the given current states and
// intent against the current table.
func (e *Engine) Route(states flow.StateSet, intent string) (flow.StateSet, error) {
	return e.Snapshot().Route(states, intent)
}
