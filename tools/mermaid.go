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

package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/chatflow/flow"
)

type MermaidOpts struct {
	// IntentFill is the fill color for intent nodes.
	IntentFill string `json:"intentFill,omitempty"`

	// ShowPhrases adds the first training phrase as an edge label.
	ShowPhrases bool `json:"showPhrases"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given graph.  Contexts render as rounded nodes, intents as
// boxes.
func Mermaid(g *flow.Graph, w io.Writer, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			IntentFill:  "#bcf2db",
			ShowPhrases: true,
		}
	}

	fmt.Fprintf(w, "graph TB\n")

	nids := make(map[string]string, len(g.Nodes))
	byID := make(map[string]*flow.Node, len(g.Nodes))
	num := 0

	for _, n := range g.Nodes {
		num++
		nid := fmt.Sprintf("n%d", num)
		nids[n.ID] = nid
		byID[n.ID] = n

		title := strings.Replace(n.Title, `"`, `'`, -1)
		switch n.Kind {
		case flow.KindContext:
			fmt.Fprintf(w, "  %s(\"%s\")\n", nid, title)
		default:
			fmt.Fprintf(w, "  %s[\"%s\"]\n", nid, title)
			if opts.IntentFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.IntentFill)
			}
		}
	}

	for _, e := range g.Edges {
		from, haveFrom := nids[e.Source]
		to, haveTo := nids[e.Target]
		if !haveFrom || !haveTo {
			return fmt.Errorf("edge %s -> %s references an unknown node", e.Source, e.Target)
		}

		label := ""
		if opts.ShowPhrases {
			if n := byID[e.Target]; n != nil && n.Intent != nil && 0 < len(n.Intent.TrainingPhrases) {
				phrase := strings.Replace(n.Intent.TrainingPhrases[0], `"`, `'`, -1)
				label = fmt.Sprintf(`-- "%s"`, phrase)
			}
		}

		fmt.Fprintf(w, "  %s %s --> %s\n", from, label, to)
	}

	fmt.Fprintf(w, "\n")

	return nil
}
