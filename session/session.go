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

// Package session persists each user's current conversation states.
package session

import (
	"context"
	"sync"

	"github.com/Comcast/chatflow/flow"
)

// Store is the session persistence contract.
//
// Get returns {"root"} for an id it has never seen; the session
// becomes durable on the first Set.  Implementations must be safe for
// concurrent use across different user ids.  Concurrent calls for the
// same id are not ordered here; serialize upstream if that matters.
type Store interface {
	Get(ctx context.Context, userID string) (flow.StateSet, error)
	Set(ctx context.Context, userID string, states flow.StateSet) error
	Delete(ctx context.Context, userID string) error
}

// Memory is a map-backed Store for tests and single-process runs.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]flow.StateSet
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]flow.StateSet),
	}
}

func (m *Memory) Get(ctx context.Context, userID string) (flow.StateSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if states, have := m.sessions[userID]; have {
		return states.Copy(), nil
	}
	return flow.RootSet(), nil
}

func (m *Memory) Set(ctx context.Context, userID string, states flow.StateSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = states.Copy()
	return nil
}

func (m *Memory) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
