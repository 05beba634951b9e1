package flow

import (
	"encoding/json"
	"sort"
)

// StateSet is an order-independent set of conversation state names.  A
// user may occupy several states at once ("root" plus a situational
// context, say), and routing results are unions, so sets rather than
// lists keep incidental ordering out of the picture.
type StateSet map[string]struct{}

// NewStateSet builds a set from the given state names.
func NewStateSet(states ...string) StateSet {
	s := make(StateSet, len(states))
	for _, state := range states {
		s[state] = struct{}{}
	}
	return s
}

// RootSet is the default state set for a new user.
func RootSet() StateSet {
	return NewStateSet(RootState)
}

// Add puts a state into the set.
func (s StateSet) Add(state string) {
	s[state] = struct{}{}
}

// Has reports membership.
func (s StateSet) Has(state string) bool {
	_, have := s[state]
	return have
}

// Union adds all of other's states to s.
func (s StateSet) Union(other StateSet) {
	for state := range other {
		s[state] = struct{}{}
	}
}

// Copy returns an independent copy.
func (s StateSet) Copy() StateSet {
	acc := make(StateSet, len(s))
	for state := range s {
		acc[state] = struct{}{}
	}
	return acc
}

// Equal reports whether two sets hold the same states.
func (s StateSet) Equal(other StateSet) bool {
	if len(s) != len(other) {
		return false
	}
	for state := range s {
		if _, have := other[state]; !have {
			return false
		}
	}
	return true
}

// Sorted returns the states as a sorted slice, for stable persistence
// and diagnostics.
func (s StateSet) Sorted() []string {
	acc := make([]string, 0, len(s))
	for state := range s {
		acc = append(acc, state)
	}
	sort.Strings(acc)
	return acc
}

// MarshalJSON writes the set as a sorted array.
func (s StateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON reads the set from an array.
func (s *StateSet) UnmarshalJSON(data []byte) error {
	var states []string
	if err := json.Unmarshal(data, &states); err != nil {
		return err
	}
	*s = NewStateSet(states...)
	return nil
}
