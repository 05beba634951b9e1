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

// Package switchboard composes the validator, compiler, provider sync,
// table builder, and routing engine into the two workflows the service
// exposes: applying an authored graph and progressing a user through
// the flow.
package switchboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/Comcast/chatflow/action"
	"github.com/Comcast/chatflow/flow"
	"github.com/Comcast/chatflow/graphstore"
	"github.com/Comcast/chatflow/metric"
	"github.com/Comcast/chatflow/nlu"
	"github.com/Comcast/chatflow/route"
	"github.com/Comcast/chatflow/session"
	"github.com/Comcast/chatflow/webhook"
)

// DefaultFallbackTexts is the generic reply for anything the flow
// can't handle.  Internal error detail never reaches chat users.
var DefaultFallbackTexts = []string{"Sorry, I didn't get that."}

// Payload is what an adapter delivers back to the user: reply texts
// plus an optional structured payload for platforms that render one.
type Payload struct {
	Texts   []string               `json:"texts"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Config wires a Switchboard.
type Config struct {
	Provider nlu.Provider
	Sessions session.Store

	// Agent is the provider agent path for context names.  Empty
	// means nlu.DefaultAgent.
	Agent string

	// Actions, Webhook, and Graphs are optional.
	Actions *action.Registry
	Webhook *webhook.Client
	Graphs  *graphstore.Store

	Logger *slog.Logger

	// FallbackTexts replaces DefaultFallbackTexts when non-empty.
	FallbackTexts []string
}

// Switchboard is the orchestrator.
type Switchboard struct {
	provider nlu.Provider
	sync     *nlu.Sync
	engine   *route.Engine
	sessions session.Store
	actions  *action.Registry
	webhook  *webhook.Client
	graphs   *graphstore.Store
	logger   *slog.Logger
	fallback []string

	// rebuildMu serializes administrative rebuilds.  Lookups never
	// take it; they read the engine's atomic snapshot.
	rebuildMu sync.Mutex
}

// New creates a Switchboard from the given configuration.
func New(conf Config) *Switchboard {
	logger := conf.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	fallback := conf.FallbackTexts
	if len(fallback) == 0 {
		fallback = DefaultFallbackTexts
	}
	return &Switchboard{
		provider: conf.Provider,
		sync:     &nlu.Sync{Provider: conf.Provider, Agent: conf.Agent},
		engine:   route.NewEngine(),
		sessions: conf.Sessions,
		actions:  conf.Actions,
		webhook:  conf.Webhook,
		graphs:   conf.Graphs,
		logger:   logger,
		fallback: fallback,
	}
}

// Engine exposes the routing engine, mainly for tests and diagnostics.
func (s *Switchboard) Engine() *route.Engine {
	return s.engine
}

// SubmitGraph runs the authoring pipeline: validate, compile, sync the
// provider, rebuild the routing table, and atomically install it.
//
// The sequence is strict and the first failure stops it.  A failed
// sync or rebuild leaves the previously installed table authoritative;
// nothing is ever partially applied.
func (s *Switchboard) SubmitGraph(ctx context.Context, g *flow.Graph) error {
	buckets, err := flow.Validate(g)
	if err != nil {
		return err
	}

	compiled, err := flow.Compile(buckets)
	if err != nil {
		return err
	}

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	if err := s.sync.Replace(ctx, compiled); err != nil {
		metric.SyncFailures.Inc()
		return err
	}

	if err := s.rebuild(ctx); err != nil {
		return err
	}

	if s.graphs != nil {
		if _, err := s.graphs.Save(ctx, g); err != nil {
			// The flow is live; losing a version record is
			// not worth failing the submission over.
			s.logger.Warn("graph version not recorded", "err", err)
		}
	}

	s.logger.Info("graph applied",
		"intents", len(compiled),
		"states", s.engine.Snapshot().Len())
	return nil
}

// Refresh rebuilds the routing table from the provider's current
// intents without resyncing.  On failure the previous table stays
// authoritative.
func (s *Switchboard) Refresh(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	return s.rebuild(ctx)
}

func (s *Switchboard) rebuild(ctx context.Context) error {
	intents, err := s.provider.ListIntents(ctx)
	if err != nil {
		return &nlu.SyncError{Op: "list", Err: err}
	}
	s.engine.Install(route.Build(intents))
	metric.Rebuilds.Inc()
	return nil
}

// HandleMessage progresses a user through the flow on free text.
//
// A classification miss or a no-route result is a normal outcome: the
// user gets the generic fallback payload and their states stay put.
// Only session-store failures surface as errors.  Messages for the
// same user are not ordered here; serialize upstream if that matters.
func (s *Switchboard) HandleMessage(ctx context.Context, userID, text string) (*Payload, error) {
	return s.handle(ctx, userID, nlu.Query{Text: text})
}

// HandleEvent progresses a user through the flow on an intent event
// (from a scheduled trigger, say) instead of text.
func (s *Switchboard) HandleEvent(ctx context.Context, userID, event string) (*Payload, error) {
	return s.handle(ctx, userID, nlu.Query{Event: event})
}

func (s *Switchboard) handle(ctx context.Context, userID string, q nlu.Query) (*Payload, error) {
	states, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	q.Contexts = states.Sorted()

	det, err := s.provider.Detect(ctx, userID, q)
	if err != nil {
		s.logger.Warn("classification failed", "user", userID, "err", err)
		metric.Fallbacks.Inc()
		return s.fallbackPayload(), nil
	}
	if det == nil || det.Intent == "" {
		s.logger.Debug("no intent detected", "user", userID, "states", q.Contexts)
		metric.Fallbacks.Inc()
		return s.fallbackPayload(), nil
	}

	next, err := s.engine.Route(states, det.Intent)
	if err != nil {
		var nr *route.NoRouteError
		if errors.As(err, &nr) {
			s.logger.Info("no route", "user", userID,
				"intent", nr.Intent, "states", nr.States)
			metric.NoRoutes.Inc()
			metric.Fallbacks.Inc()
			return s.fallbackPayload(), nil
		}
		return nil, err
	}

	msgs := det.Messages

	if det.Action != "" && s.actions != nil {
		out, err := s.actions.Invoke(ctx, det.Action, action.Invocation{
			UserID:  userID,
			Input:   q.Text,
			Current: states,
			Next:    next,
		})
		switch {
		case err != nil:
			// A broken or missing action handler is an
			// authoring problem; the routed result stands.
			s.logger.Warn("action failed", "user", userID,
				"action", det.Action, "err", err)
		case out != nil:
			if out.States != nil {
				next = out.States
			}
			if out.Messages != nil {
				msgs = out.Messages
			}
		}
	}

	if det.Webhook && s.webhook != nil {
		resp, err := s.webhook.Fulfill(ctx, webhook.Fulfillment{
			UserID: userID,
			Intent: det.Intent,
			Action: det.Action,
			Input:  q.Text,
			States: states.Sorted(),
			Next:   next.Sorted(),
		})
		if err != nil {
			s.logger.Warn("fulfillment failed", "user", userID,
				"intent", det.Intent, "err", err)
		} else if len(resp.Texts) > 0 {
			msgs = append(msgs, nlu.Message{Texts: resp.Texts})
		}
	}

	if err := s.sessions.Set(ctx, userID, next); err != nil {
		return nil, err
	}

	return payloadFrom(msgs, s.fallback), nil
}

// RemoveUser deletes a user's session.
func (s *Switchboard) RemoveUser(ctx context.Context, userID string) error {
	return s.sessions.Delete(ctx, userID)
}

func (s *Switchboard) fallbackPayload() *Payload {
	return &Payload{
		Texts: append([]string{}, s.fallback...),
	}
}

// payloadFrom flattens intent messages into one adapter payload: the
// first alternative of each text pool, and the last structured payload
// if several appear.
func payloadFrom(msgs []nlu.Message, fallback []string) *Payload {
	p := &Payload{}
	for _, m := range msgs {
		if len(m.Texts) > 0 {
			p.Texts = append(p.Texts, m.Texts[0])
		}
		if m.Payload != nil {
			p.Payload = m.Payload
		}
	}
	if len(p.Texts) == 0 && p.Payload == nil {
		p.Texts = append([]string{}, fallback...)
	}
	return p
}
