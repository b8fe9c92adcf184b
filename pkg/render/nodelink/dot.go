package nodelink

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/flowgraph/pkg/flow"
)

const (
	// groupDelimiter separates a group name from the display label.
	groupDelimiter = ":"

	// colorScheme is the Brewer palette used for group fills.
	colorScheme = "pastel28"

	// colorSchemeSize is the number of colors in colorScheme.
	colorSchemeSize = 8
)

// header holds the fixed graph, node and edge style directives.
const header = "\tgraph [ center=true, margin=0.75, nodesep=0.5, ranksep=0.75, rankdir=LR ];\n" +
	"\tnode [ shape=box, style=\"rounded,filled\", width=0, height=0, fontname=Helvetica, fontsize=11 ];\n" +
	"\tedge [ fontname=Helvetica, fontsize=9 ];\n"

// Node is a distinct edge endpoint as it appears in the DOT document.
type Node struct {
	ID      string // synthetic identifier: n1, n2, ...
	Label   string // label as found in the edges
	Display string // label without the group prefix
	Group   string // text before the first ':' (empty when Grouped is false)
	Grouped bool   // whether Label contains ':'
	Color   int    // 1-based group color index, unique per group, 0 for ungrouped nodes
}

// Nodes returns the distinct endpoints of edges sorted by label, with
// identifiers, groups and group colors assigned.
func Nodes(edges []flow.Edge) []Node {
	labels := make(map[string]struct{}, 2*len(edges))
	for _, e := range edges {
		labels[e.Source] = struct{}{}
		labels[e.Target] = struct{}{}
	}

	colors := make(map[string]int)
	nodes := make([]Node, 0, len(labels))
	for i, label := range slices.Sorted(maps.Keys(labels)) {
		n := Node{
			ID:      fmt.Sprintf("n%d", i+1),
			Label:   label,
			Display: label,
		}
		if group, display, ok := strings.Cut(label, groupDelimiter); ok {
			n.Group, n.Display, n.Grouped = group, display, true
			if _, seen := colors[group]; !seen {
				colors[group] = len(colors) + 1
			}
			n.Color = colors[group]
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// ToDOT renders edges as a Graphviz DOT document.
//
// Nodes are declared in label order, edges in input order. Edges with
// metadata carry it as their label. The document has no trailing newline.
//
// Grouped nodes are filled from the eight-color pastel28 palette. Node.Color
// stays unique per group, but the emitted color attribute wraps past the
// palette end: the ninth group is drawn like the first, the tenth like the
// second and so on. The group attribute always carries the group name, so
// groups sharing a fill remain distinguishable in the document.
// ToDOT fails with a MALFORMED_EDGE error if an edge lacks a source or target;
// self-loops and duplicate edges are rendered as given.
func ToDOT(edges []flow.Edge) (string, error) {
	for _, e := range edges {
		if err := e.Validate(); err != nil {
			return "", err
		}
	}

	nodes := Nodes(edges)
	ids := make(map[string]string, len(nodes))

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString(header)

	buf.WriteString("\n\t// nodes\n")
	for _, n := range nodes {
		ids[n.Label] = n.ID
		fmt.Fprintf(&buf, "\t%s [%s];\n", n.ID, strings.Join(fmtAttrs(n), ", "))
	}

	buf.WriteString("\n\t// edges\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "\t%s -> %s", ids[e.Source], ids[e.Target])
		if e.Metadata != "" {
			fmt.Fprintf(&buf, " [label=\"%s\"]", Escape(e.Metadata))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}")
	return buf.String(), nil
}

// Escape prefixes every double quote in s with a backslash.
func Escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func fmtLabel(n Node) string {
	if !n.Grouped {
		return Escape(n.Display)
	}
	return Escape(n.Display) + `\n` + Escape(n.Group)
}

func fmtAttrs(n Node) []string {
	attrs := []string{fmt.Sprintf(`label="%s"`, fmtLabel(n))}
	if n.Grouped {
		attrs = append(attrs,
			fmt.Sprintf(`group="%s"`, Escape(n.Group)),
			"colorscheme="+colorScheme,
			fmt.Sprintf("color=%d", paletteIndex(n.Color)),
		)
	}
	return attrs
}

// paletteIndex maps a group color onto the palette, wrapping past its end.
func paletteIndex(color int) int {
	return (color-1)%colorSchemeSize + 1
}
