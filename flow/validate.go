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

// Buckets are the typed node collections of a validated graph.
type Buckets struct {
	Intents  []*IntentNode
	Contexts []*ContextNode
}

// Validate checks the structural and semantic rules for a submitted
// graph and partitions its nodes into typed buckets.
//
// The checks run in order and fail fast:
//
//  1. at least one node;
//  2. exactly one node has no incoming edge;
//  3. that node is a context node titled "root";
//  4. every node is either an intent node or a context node.
//
// Validate has no side effects; a rejected graph yields no buckets at
// all.
func Validate(g *Graph) (*Buckets, error) {
	if g == nil || len(g.Nodes) < 1 {
		return nil, &EmptyGraphError{}
	}

	targeted := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if e != nil {
			targeted[e.Target] = true
		}
	}

	var entry *Node
	untargeted := make([]string, 0, 1)
	for _, n := range g.Nodes {
		if !targeted[n.ID] {
			untargeted = append(untargeted, n.ID)
			entry = n
		}
	}
	if len(untargeted) != 1 {
		return nil, &EntryPointError{Untargeted: untargeted}
	}

	if entry.Context == nil || entry.Title != RootState {
		return nil, &RootError{
			ID:    entry.ID,
			Kind:  entry.Kind,
			Title: entry.Title,
		}
	}

	b := &Buckets{
		Intents:  make([]*IntentNode, 0, len(g.Nodes)),
		Contexts: make([]*ContextNode, 0, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		switch {
		case n.Intent != nil:
			b.Intents = append(b.Intents, n.Intent)
		case n.Context != nil:
			b.Contexts = append(b.Contexts, n.Context)
		default:
			return nil, &UnknownKindError{ID: n.ID, Kind: n.Kind}
		}
	}

	return b, nil
}
