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

// Package action runs the handlers named by an intent's action field.
// A handler sees the routed result and may override the next states,
// the outgoing messages, or both.
package action

import (
	"context"
	"fmt"
	"sync"

	"github.com/Comcast/chatflow/flow"
	"github.com/Comcast/chatflow/nlu"
)

// Invocation is what a handler receives.
type Invocation struct {
	UserID string
	Input  string

	// Current is the user's state set before this message.
	Current flow.StateSet

	// Next is the routed result the orchestrator will persist
	// unless the handler overrides it.
	Next flow.StateSet
}

// Outcome is a handler's override.  A nil field keeps the routed
// states / provider messages respectively; a nil Outcome keeps both.
type Outcome struct {
	States   flow.StateSet
	Messages []nlu.Message
}

// Handler is a named action implementation.
type Handler func(ctx context.Context, inv Invocation) (*Outcome, error)

// UnknownActionError occurs when an intent names an action nobody
// registered.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("no action handler registered for %q", e.Name)
}

// Registry maps action names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler, 8),
	}
}

// Register adds or replaces a handler.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
}

// Lookup finds a handler by name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	h, have := r.handlers[name]
	r.mu.RUnlock()
	return h, have
}

// Invoke runs the named handler.  An unregistered name returns an
// UnknownActionError; the caller decides whether that's fatal (it
// isn't, for live traffic).
func (r *Registry) Invoke(ctx context.Context, name string, inv Invocation) (*Outcome, error) {
	h, have := r.Lookup(name)
	if !have {
		return nil, &UnknownActionError{Name: name}
	}
	return h(ctx, inv)
}
