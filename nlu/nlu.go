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

// Package nlu is the boundary to the natural-language-understanding
// provider.  The provider owns classification; this package owns the
// wire shapes, the full-replacement sync protocol, and an in-memory
// provider used for tests and local runs.
package nlu

import (
	"context"
	"strings"

	"github.com/Comcast/chatflow/flow"
)

// DefaultAgent is the agent path used when a Sync or Wire caller
// doesn't name one.
const DefaultAgent = "agents/default"

// Intent is the provider-facing intent record.
type Intent struct {
	DisplayName     string           `json:"displayName"`
	TrainingPhrases []TrainingPhrase `json:"trainingPhrases,omitempty"`

	// InputContextNames are full context paths
	// ("<agent>/sessions/-/contexts/<state>").
	InputContextNames []string  `json:"inputContextNames,omitempty"`
	OutputContexts    []Context `json:"outputContexts,omitempty"`

	IsFallback     bool      `json:"isFallback,omitempty"`
	WebhookEnabled bool      `json:"webhookEnabled,omitempty"`
	Events         []string  `json:"events,omitempty"`
	Action         string    `json:"action,omitempty"`
	Messages       []Message `json:"messages,omitempty"`
}

// TrainingPhrase is one training example.  This version emits only
// single-part literal text: no entity or slot annotation.
type TrainingPhrase struct {
	Parts []Part `json:"parts"`
}

// Part is one literal segment of a training phrase.
type Part struct {
	Text string `json:"text"`
}

// Context is a provider context reference with its lifespan.
type Context struct {
	Name          string `json:"name"`
	LifespanCount int    `json:"lifespanCount,omitempty"`
}

// Message is one reply configured on an intent: a pool of alternative
// texts, or a structured payload, or both.
type Message struct {
	Texts   []string               `json:"text,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Query is a classification request: free text or an intent event,
// scoped by the user's active state names.
type Query struct {
	Text     string
	Event    string
	Contexts []string
}

// Detection is the provider's classification result.
type Detection struct {
	Intent   string
	Action   string
	Webhook  bool
	Messages []Message
}

// Provider is the external NLU collaborator.  Implementations perform
// the actual matching; this repository only compiles intents for them
// and consumes their results.
//
// A nil Detection with a nil error means the provider found no intent.
type Provider interface {
	ListIntents(ctx context.Context) ([]Intent, error)
	BatchDeleteIntents(ctx context.Context, intents []Intent) error
	BatchCreateIntents(ctx context.Context, intents []Intent) error
	Detect(ctx context.Context, userID string, q Query) (*Detection, error)
}

// DefaultLifespan is the lifespan assigned to output contexts.
const DefaultLifespan = 5

// ContextPath builds the full provider path for a state name.
func ContextPath(agent, state string) string {
	return agent + "/sessions/-/contexts/" + state
}

// ShortContextName extracts the state name from a full context path.
// Already-short names pass through unchanged.
func ShortContextName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Wire maps one compiled intent to the provider's wire shape under the
// given agent path.  The structured payload, when present, rides along
// as one extra message after the text pools.
func Wire(agent string, ci flow.CompiledIntent) Intent {
	if agent == "" {
		agent = DefaultAgent
	}

	in := Intent{
		DisplayName:    ci.DisplayName,
		IsFallback:     ci.Fallback,
		WebhookEnabled: ci.Webhook,
		Events:         append([]string{}, ci.Events...),
		Action:         ci.Action,
	}

	for _, phrase := range ci.TrainingPhrases {
		in.TrainingPhrases = append(in.TrainingPhrases, TrainingPhrase{
			Parts: []Part{{Text: phrase}},
		})
	}

	for _, state := range ci.InputContexts {
		in.InputContextNames = append(in.InputContextNames, ContextPath(agent, state))
	}
	for _, state := range ci.OutputContexts {
		in.OutputContexts = append(in.OutputContexts, Context{
			Name:          ContextPath(agent, state),
			LifespanCount: DefaultLifespan,
		})
	}

	for _, pool := range ci.Responses {
		in.Messages = append(in.Messages, Message{
			Texts: append([]string{}, pool...),
		})
	}
	if ci.Payload != nil {
		in.Messages = append(in.Messages, Message{Payload: ci.Payload})
	}

	return in
}
