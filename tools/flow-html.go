package tools

import (
	"fmt"
	"io"

	"github.com/Comcast/chatflow/flow"

	md "github.com/russross/blackfriday/v2"
)

// RenderGraphHTML writes an HTML fragment describing the graph: the
// flow doc, then one row per node with its phrases, contexts, and
// responses.
func RenderGraphHTML(g *flow.Graph, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	if g.Doc != "" {
		f(`<div class="flowDoc doc">%s</div>`, md.Run([]byte(g.Doc)))
	}

	f(`<div class="nodes"><table>`)
	for _, n := range g.Nodes {
		f(`<tr class="node"><td><span id="%s" class="nodeName">%s</span></td><td>`,
			htmlEscape(n.ID), htmlEscape(n.Title))

		switch {
		case n.Kind == flow.KindContext:
			f(`<div class="nodeKind">context</div>`)
		case n.Intent != nil:
			i := n.Intent
			f(`<table>`)
			if i.IsFallback() {
				f(`<tr><td>fallback</td><td>yes</td></tr>`)
			}
			for _, p := range i.TrainingPhrases {
				f(`<tr><td>phrase</td><td><code>%s</code></td></tr>`, htmlEscape(p))
			}
			for _, ev := range i.Events {
				f(`<tr><td>event</td><td><code>%s</code></td></tr>`, htmlEscape(ev))
			}
			for _, c := range i.Contexts.In {
				f(`<tr><td>in</td><td><a href="#%s"><code>%s</code></a></td></tr>`,
					htmlEscape(c), htmlEscape(c))
			}
			for _, c := range i.Contexts.Out {
				f(`<tr><td>out</td><td><a href="#%s"><code>%s</code></a></td></tr>`,
					htmlEscape(c), htmlEscape(c))
			}
			if i.Action != "" {
				f(`<tr><td>action</td><td><code>%s</code></td></tr>`, htmlEscape(i.Action))
			}
			for _, pool := range i.Responses {
				for _, text := range pool {
					f(`<tr><td>says</td><td>%s</td></tr>`, htmlEscape(text))
				}
			}
			f(`</table>`)
		}
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

// RenderGraphPage writes a standalone HTML page for the graph.
func RenderGraphPage(g *flow.Graph, out io.Writer, cssFiles []string) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/flow-html.css"}
	}

	title := g.Doc
	if title == "" {
		title = "flow"
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, htmlEscape(title))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
`)

	if err := RenderGraphHTML(g, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderGraphPage reads a graph file (JSON or YAML) and renders
// its page.
func ReadAndRenderGraphPage(filename string, cssFiles []string, out io.Writer) error {
	g, err := DecodeGraphFile(filename)
	if err != nil {
		return err
	}
	return RenderGraphPage(g, out, cssFiles)
}
