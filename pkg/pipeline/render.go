package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/flowgraph/pkg/flow"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
// The DOT document is built once and shared by the dot, svg and png outputs.
func (r *Runner) Render(ctx context.Context, edges []flow.Edge, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(ctx, edges, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Edges:     edges,
		Artifacts: artifacts,
		Stats: Stats{
			EdgeCount:  len(edges),
			NodeCount:  len(nodelink.Nodes(edges)),
			RenderTime: time.Since(start),
		},
	}
	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.RenderTime)
	return result, nil
}

func render(ctx context.Context, edges []flow.Edge, opts Options) (map[string][]byte, error) {
	var dot string
	if opts.NeedsDOT() {
		var err error
		if dot, err = nodelink.ToDOT(edges); err != nil {
			return nil, fmt.Errorf("render dot: %w", err)
		}
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatTSV:
			data, err = renderTSV(edges, opts.Header)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderTSV writes the optional header line followed by one line per edge.
func renderTSV(edges []flow.Edge, header string) ([]byte, error) {
	var buf bytes.Buffer
	if header != "" {
		buf.WriteString(header + "\n")
	}
	if err := flow.WriteTSV(&buf, edges); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
