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

// Package trigger injects intent events on cron schedules, driving
// event-matched intents without any user input.
package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
)

// EmitFunc delivers a fired event to the orchestrator.
type EmitFunc func(ctx context.Context, userID, event string)

// Entry is one scheduled event injection.
type Entry struct {
	ID       string `json:"id"`
	UserID   string `json:"user"`
	Event    string `json:"event"`
	Schedule string `json:"schedule"`

	expr *cronexpr.Expression
	ctl  chan bool
}

// Triggers owns a set of entries, one goroutine each.
type Triggers struct {
	mu      sync.Mutex
	entries map[string]*Entry
	emit    EmitFunc
}

// NewTriggers creates a Triggers that delivers fired events via emit.
func NewTriggers(emit EmitFunc) *Triggers {
	return &Triggers{
		entries: make(map[string]*Entry, 8),
		emit:    emit,
	}
}

// Add schedules an entry.  Adding an id that already exists replaces
// (and cancels) the previous entry.
func (ts *Triggers) Add(ctx context.Context, e Entry) error {
	expr, err := cronexpr.Parse(e.Schedule)
	if err != nil {
		return fmt.Errorf("bad schedule %q: %w", e.Schedule, err)
	}
	e.expr = expr
	e.ctl = make(chan bool)

	ts.mu.Lock()
	if old, have := ts.entries[e.ID]; have {
		close(old.ctl)
	}
	ts.entries[e.ID] = &e
	ts.mu.Unlock()

	go ts.run(ctx, &e)
	return nil
}

// Cancel stops and removes an entry.  Unknown ids are fine.
func (ts *Triggers) Cancel(id string) {
	ts.mu.Lock()
	if e, have := ts.entries[id]; have {
		close(e.ctl)
		delete(ts.entries, id)
	}
	ts.mu.Unlock()
}

// Stop cancels everything.
func (ts *Triggers) Stop() {
	ts.mu.Lock()
	for id, e := range ts.entries {
		close(e.ctl)
		delete(ts.entries, id)
	}
	ts.mu.Unlock()
}

// Entries lists the scheduled entries.
func (ts *Triggers) Entries() []Entry {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	acc := make([]Entry, 0, len(ts.entries))
	for _, e := range ts.entries {
		acc = append(acc, *e)
	}
	return acc
}

func (ts *Triggers) run(ctx context.Context, e *Entry) {
	for {
		next := e.expr.Next(time.Now())
		if next.IsZero() {
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-e.ctl:
			timer.Stop()
			return
		case <-timer.C:
			ts.emit(ctx, e.UserID, e.Event)
		}
	}
}
