// Package render groups the graph renderers.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage turns weighted edges into a Graphviz DOT
// document and lays it out as SVG or PNG with an embedded Graphviz:
//
//	dot, err := nodelink.ToDOT(edges)
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// Nodes are colored by group: a name such as "mysql:products" belongs to
// the group "mysql", so tables of one database share a color.
//
// [nodelink]: github.com/matzehuels/flowgraph/pkg/render/nodelink
package render
