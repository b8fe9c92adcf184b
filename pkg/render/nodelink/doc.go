// Package nodelink renders data-flow edges as Graphviz node-link diagrams.
//
// # Overview
//
// [ToDOT] turns a list of [flow.Edge] values into a DOT document: a
// left-to-right digraph with rounded, filled boxes for nodes and one arrow per
// edge. [RenderSVG] and [RenderPNG] lay the document out with the embedded
// Graphviz engine.
//
// # Node Identifiers
//
// Every label used as a source or target becomes one node. Labels are sorted
// byte-wise and numbered n1, n2, ... in that order, so node identifiers only
// depend on the set of labels, never on the order of the input edges. Diffs of
// two renders of the same graph stay small.
//
// # Groups
//
// A label containing ':' is split at the first ':' into a group and a display
// label. "mysql:products" is shown as "products" with "mysql" on a second line,
// and every node of the mysql group gets the same pastel fill color. Colors are
// handed out in the order groups first appear among the sorted nodes.
//
// # Escaping
//
// Double quotes inside display labels, group names and edge metadata are
// escaped with a backslash before being placed in a quoted attribute.
//
// # Usage
//
//	dot, err := nodelink.ToDOT(edges)
//	if err != nil {
//	    return err
//	}
//	svg, err := nodelink.RenderSVG(ctx, dot)
package nodelink
