/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package route builds and serves the state-transition table: the
// mapping (conversation state, intent display name) → next states.
package route

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Comcast/chatflow/flow"
	"github.com/Comcast/chatflow/nlu"
)

// Table is the compiled routing structure.  A Table is built once from
// the provider's confirmed intent set and never mutated afterwards;
// rebuilds produce a brand-new Table.
type Table struct {
	m map[string]map[string][]string
}

// Build constructs a fresh table from the provider's intent list (the
// single source of truth after a successful sync).
//
// For every (input state, display name) pair the intent's next states
// are appended to that cell; full provider context paths are trimmed
// to bare state names.
func Build(intents []nlu.Intent) *Table {
	t := &Table{
		m: make(map[string]map[string][]string, len(intents)),
	}

	for _, in := range intents {
		next := make([]string, 0, len(in.OutputContexts))
		for _, oc := range in.OutputContexts {
			next = append(next, nlu.ShortContextName(oc.Name))
		}

		for _, name := range in.InputContextNames {
			state := nlu.ShortContextName(name)
			cell, have := t.m[state]
			if !have {
				cell = make(map[string][]string, 4)
				t.m[state] = cell
			}
			cell[in.DisplayName] = appendNew(cell[in.DisplayName], next)
		}
	}

	return t
}

// Next returns the next states for one (state, intent) cell.
func (t *Table) Next(state, intent string) ([]string, bool) {
	cell, have := t.m[state]
	if !have {
		return nil, false
	}
	next, have := cell[intent]
	return next, have
}

// Route unions the next states licensed by any of the current states.
// An empty union is a NoRouteError, which is an expected outcome of
// off-script user input, not a crash condition.
func (t *Table) Route(states flow.StateSet, intent string) (flow.StateSet, error) {
	acc := flow.NewStateSet()
	for state := range states {
		if next, have := t.Next(state, intent); have {
			for _, s := range next {
				acc.Add(s)
			}
		}
	}
	if len(acc) == 0 {
		return nil, &NoRouteError{
			States: states.Sorted(),
			Intent: intent,
		}
	}
	return acc, nil
}

// States lists the table's input states, sorted, for diagnostics.
func (t *Table) States() []string {
	acc := make([]string, 0, len(t.m))
	for state := range t.m {
		acc = append(acc, state)
	}
	sort.Strings(acc)
	return acc
}

// Len reports the number of input states.
func (t *Table) Len() int {
	return len(t.m)
}

// NoRouteError occurs when a valid classification has no table entry
// for any of the user's current states.  It carries both sides of the
// failed lookup for flow-authoring diagnostics.
type NoRouteError struct {
	States []string
	Intent string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route for intent %q from states [%s]",
		e.Intent, strings.Join(e.States, " "))
}

// appendNew appends states not already present, preserving first-seen
// order.
func appendNew(existing []string, next []string) []string {
	for _, s := range next {
		dup := false
		for _, have := range existing {
			if have == s {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, s)
		}
	}
	return existing
}
