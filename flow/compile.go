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

package flow

import (
	"encoding/json"
)

// CompiledIntent is a provider-neutral intent definition.  The nlu
// package maps it to the provider's exact wire shape at the sync
// boundary; nothing in here depends on any provider SDK.
type CompiledIntent struct {
	DisplayName     string
	TrainingPhrases []string

	// InputContexts and OutputContexts hold state names (context
	// node titles).  Names are stable across recompiles: they
	// derive from graph content, never from session identifiers.
	InputContexts  []string
	OutputContexts []string

	Fallback bool
	Webhook  bool
	Events   []string
	Action   string

	// Responses preserves the author's reply pools: one pool per
	// outgoing message, alternatives within a pool.
	Responses [][]string

	// Payload is the parsed structured reply, or nil when the
	// author supplied none (or supplied JSON that didn't parse to
	// a non-empty object).
	Payload map[string]interface{}
}

// Compile turns validated node buckets into compiled intents.
//
// Context resolution: an intent's input contexts are the titles of the
// context nodes wired in; no input context means the intent hangs off
// "root".  Output contexts follow the reset policy: explicit wiring
// wins; otherwise a fallback or event intent stays in its input
// contexts, and anything else resets the conversation to "root".
//
// The only possible failure from validated input is a duplicate
// display name.
func Compile(b *Buckets) ([]CompiledIntent, error) {
	states := make(map[string]string, len(b.Contexts))
	for _, cn := range b.Contexts {
		states[cn.ID] = cn.Title
	}

	seen := make(map[string]bool, len(b.Intents))
	compiled := make([]CompiledIntent, 0, len(b.Intents))

	for _, n := range b.Intents {
		if seen[n.Title] {
			return nil, &DuplicateIntentError{Title: n.Title}
		}
		seen[n.Title] = true

		inputs := resolveStates(n.Contexts.In, states)
		if len(inputs) == 0 {
			inputs = []string{RootState}
		}

		fallback := n.IsFallback()

		var outputs []string
		switch {
		case len(n.Contexts.Out) > 0:
			outputs = resolveStates(n.Contexts.Out, states)
		case fallback || len(n.Events) > 0:
			outputs = append([]string{}, inputs...)
		default:
			outputs = []string{RootState}
		}

		compiled = append(compiled, CompiledIntent{
			DisplayName:     n.Title,
			TrainingPhrases: append([]string{}, n.TrainingPhrases...),
			InputContexts:   inputs,
			OutputContexts:  outputs,
			Fallback:        fallback,
			Webhook:         n.Fulfillment,
			Events:          append([]string{}, n.Events...),
			Action:          n.Action,
			Responses:       copyPools(n.Responses),
			Payload:         parsePayload(n.Payload),
		})
	}

	return compiled, nil
}

// resolveStates maps context node ids to state names, skipping ids
// that don't name a context node in this graph.
func resolveStates(ids []string, states map[string]string) []string {
	acc := make([]string, 0, len(ids))
	for _, id := range ids {
		if title, have := states[id]; have {
			acc = append(acc, title)
		}
	}
	return acc
}

// parsePayload parses the author's structured payload.  A payload that
// is absent, malformed, or not a non-empty JSON object yields nil:
// the author just doesn't get a structured reply.
func parsePayload(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func copyPools(pools [][]string) [][]string {
	acc := make([][]string, len(pools))
	for i, pool := range pools {
		acc[i] = append([]string{}, pool...)
	}
	return acc
}
