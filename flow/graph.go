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

// Package flow holds the author-facing flowchart model, its validator,
// and the compiler that turns a validated graph into provider-neutral
// intent definitions.
package flow

import (
	"bytes"
	"encoding/json"
)

// Node kinds as the flowchart editor emits them.
const (
	KindIntent  = "intentNode"
	KindContext = "contextNode"
)

// RootState is the title of the mandatory entry-point context node and
// the default conversation state for a new user.
const RootState = "root"

// Graph is a raw flowchart submitted by the editor.
//
// A Graph arrives as JSON and should be decoded with json.Unmarshal so
// that the shape checks in UnmarshalJSON run.  A Graph built in code is
// fine too; Validate performs the semantic checks either way.
type Graph struct {
	// Doc is optional author documentation for the whole flow.
	// Treated as Markdown by the rendering tools.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// Edge is a directed connection: source enables target.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Node is one vertex of the flowchart.
//
// The editor tags each node with a type string.  A recognized type
// decodes into exactly one of Intent or Context; an unrecognized type
// leaves both nil so that Validate can reject it with a specific
// error.  Code downstream of Validate only ever sees the typed
// IntentNode/ContextNode buckets.
type Node struct {
	ID    string `json:"id"`
	Kind  string `json:"type"`
	Title string `json:"title"`

	Intent  *IntentNode  `json:"-"`
	Context *ContextNode `json:"-"`
}

// IntentNode describes one recognizable user input pattern.
type IntentNode struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// Fulfillment asks for a webhook call when this intent matches.
	Fulfillment bool `json:"fulfillment,omitempty" yaml:"fulfillment,omitempty"`

	// Fallback is the author's explicit catch-all flag.  See
	// IsFallback for the derived value.
	Fallback bool `json:"isFallback,omitempty" yaml:"isFallback,omitempty"`

	Contexts        NodeContexts `json:"contexts,omitempty" yaml:"contexts,omitempty"`
	Events          []string     `json:"events,omitempty" yaml:"events,omitempty"`
	TrainingPhrases []string     `json:"trainingPhrases,omitempty" yaml:"trainingPhrases,omitempty"`
	Action          string       `json:"action,omitempty" yaml:"action,omitempty"`

	// Responses is a list of reply pools.  Each pool is a set of
	// alternative texts for one reply message.
	Responses [][]string `json:"responses,omitempty" yaml:"responses,omitempty"`

	// Payload is an optional raw JSON object for platforms that
	// want structured replies.  Malformed JSON here is not an
	// error; the compiler just skips it.
	Payload string `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// NodeContexts are the context-node ids wired into and out of an
// intent node.
type NodeContexts struct {
	In  []string `json:"in,omitempty" yaml:"in,omitempty"`
	Out []string `json:"out,omitempty" yaml:"out,omitempty"`
}

// IsFallback reports whether the intent is a catch-all: explicitly
// flagged, or with nothing to match on (no training phrases and no
// events).
func (n *IntentNode) IsFallback() bool {
	return n.Fallback || (len(n.TrainingPhrases) == 0 && len(n.Events) == 0)
}

// ContextNode names a conversation state.
type ContextNode struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// UnmarshalJSON rejects submissions whose nodes or edges are not
// arrays before any per-node decoding happens.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var raw struct {
		Doc   string          `json:"doc"`
		Nodes json.RawMessage `json:"nodes"`
		Edges json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return &FormatError{Reason: "graph is not a JSON object"}
	}
	if !isJSONArray(raw.Nodes) || !isJSONArray(raw.Edges) {
		return &FormatError{Reason: "nodes and edges must be arrays"}
	}

	g.Doc = raw.Doc
	g.Nodes = nil
	g.Edges = nil
	if err := json.Unmarshal(raw.Nodes, &g.Nodes); err != nil {
		return err
	}
	return json.Unmarshal(raw.Edges, &g.Edges)
}

// UnmarshalJSON decodes the common head of a node and then, for a
// recognized kind, the kind-specific fields.
func (n *Node) UnmarshalJSON(data []byte) error {
	var head struct {
		ID    string `json:"id"`
		Kind  string `json:"type"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	n.ID = head.ID
	n.Kind = head.Kind
	n.Title = head.Title

	switch head.Kind {
	case KindIntent:
		var in IntentNode
		if err := json.Unmarshal(data, &in); err != nil {
			return err
		}
		in.ID = head.ID
		in.Title = head.Title
		n.Intent = &in
	case KindContext:
		n.Context = &ContextNode{
			ID:    head.ID,
			Title: head.Title,
		}
	}

	return nil
}

// MarshalJSON writes the node back in the editor's shape.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Intent != nil {
		type alias IntentNode
		return json.Marshal(&struct {
			Kind string `json:"type"`
			*alias
		}{Kind: KindIntent, alias: (*alias)(n.Intent)})
	}
	return json.Marshal(&struct {
		ID    string `json:"id"`
		Kind  string `json:"type"`
		Title string `json:"title"`
	}{ID: n.ID, Kind: n.Kind, Title: n.Title})
}

// NewIntentNode wraps an IntentNode as a graph Node.
func NewIntentNode(in *IntentNode) *Node {
	return &Node{
		ID:     in.ID,
		Kind:   KindIntent,
		Title:  in.Title,
		Intent: in,
	}
}

// NewContextNode wraps a ContextNode as a graph Node.
func NewContextNode(cn *ContextNode) *Node {
	return &Node{
		ID:      cn.ID,
		Kind:    KindContext,
		Title:   cn.Title,
		Context: cn,
	}
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
