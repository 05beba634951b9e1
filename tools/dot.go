package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/chatflow/flow"
)

// Dot makes a Graphviz dot file for the given graph.  Contexts are
// rounded records, intents are notes carrying their training phrases.
func Dot(g *flow.Graph, w io.Writer) error {
	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	targeted := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		targeted[e.Target] = true
	}

	nids := make(map[string]string, len(g.Nodes))
	num := 0
	for _, n := range g.Nodes {
		num++
		nid := fmt.Sprintf("n%d", num)
		nids[n.ID] = nid

		label := htmlEscape(n.Title)
		fillcolor := "#99ddc8"
		shape := "record"
		style := "rounded,filled"

		if n.Kind == flow.KindIntent && n.Intent != nil {
			shape = "note"
			style = "filled"
			fillcolor = "#2d93ad"
			if n.Intent.IsFallback() {
				fillcolor = "#f98b8b"
			}
			if 0 < len(n.Intent.TrainingPhrases) {
				label += `<FONT POINT-SIZE="6"><BR/>`
				for _, p := range n.Intent.TrainingPhrases {
					label += htmlEscape(p) + `<BR ALIGN="LEFT"/>`
				}
				label += `</FONT>`
			}
		}
		if !targeted[n.ID] {
			style += ",bold"
		}

		fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			nid, shape, style, fillcolor, label)
	}

	for _, e := range g.Edges {
		from, haveFrom := nids[e.Source]
		to, haveTo := nids[e.Target]
		if !haveFrom || !haveTo {
			return fmt.Errorf("edge %s -> %s references an unknown node", e.Source, e.Target)
		}
		fmt.Fprintf(w, "  %s -> %s\n", from, to)
	}

	fmt.Fprintf(w, "}\n")
	return nil
}

// PNG generates a PNG image based on output from Dot.
//
// This function writes two files: basename.dot and basename.png, where
// the basename is the given string.
func PNG(g *flow.Graph, basename string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(g, dotfile); err != nil {
		dotfile.Close()
		return pngname, err
	}
	if err := dotfile.Close(); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng -Gstart=1 " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func htmlEscape(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}
