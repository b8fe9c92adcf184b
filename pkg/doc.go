// Package pkg provides the core libraries for flowgraph data-flow
// visualization.
//
// # Overview
//
// flowgraph turns traces of how services talk to each other (SQL query
// logs, packet captures) into weighted directed graphs. The pkg directory
// is organized into four areas:
//
//  1. [flow] - Domain model (edges, TSV, generic aggregation)
//  2. Log sources that produce draft edges ([source/pcap], [source/sqllog])
//  3. [render] - Graphviz output ([render/nodelink])
//  4. [pipeline] - Orchestration (aggregate → render)
//
// Supporting packages: [cache] (hostname cache backends), [config]
// (TOML + environment settings), [errors] (coded errors), [observability]
// (hooks), [retry] (transient failure handling) and [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	Elasticsearch / pcap file
//	         ↓
//	    [source/sqllog], [source/pcap] (records → flow.Draft)
//	         ↓
//	    [flow] (classify + count → weighted flow.Edge)
//	         ↓
//	    [pipeline] (weight floor, ordering, formats)
//	         ↓
//	    TSV / DOT / SVG / PNG
//
// # Quick Start
//
//	packets, stats, err := pcap.ReadFile(ctx, "capture.pcap")
//	if err != nil {
//	    return err
//	}
//	parser, _ := pcap.NewParser(pcap.ProtoRedis, pcap.NewResolver(nil, nil), "")
//	drafts := pcap.Drafts(ctx, packets, parser)
//
//	result, err := pipeline.Run(ctx, pipeline.NewRunner(nil), drafts,
//	    flow.Counter{Unit: "packets"}, pipeline.Options{
//	        Formats: []string{"tsv", "svg"},
//	        Header:  pcap.Header(stats, pcap.ProtoRedis),
//	    })
//
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/flow
// [source/pcap]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/source/pcap
// [source/sqllog]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/source/sqllog
// [render]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/observability
// [retry]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/retry
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/buildinfo
package pkg
