// Package flow builds weighted data-flow edges from raw log records.
//
// A data-flow graph connects logical nodes (application classes, database
// tables, caches, queues, storage buckets) with directed, labeled edges. This
// package holds the pieces every log source shares:
//
//   - [Edge]: one weighted, labeled connection between two nodes
//   - [Aggregate]: groups raw records with a [Classifier] and turns each group
//     into one edge whose value is its frequency relative to the largest group
//   - [FormatTSV], [WriteTSV], [ReadTSV]: the tab-separated edge-list format
//
// # Aggregation
//
// A log source implements [Classifier] for its own record type:
//
//	type requests struct{}
//
//	func (requests) Classify(r Request) string { return r.Caller + "-" + r.URL }
//
//	func (requests) Summarize(rs []Request) (flow.Draft, error) {
//	    return flow.Draft{Source: rs[0].Caller, Edge: "http", Target: rs[0].Host}, nil
//	}
//
//	edges, err := flow.Aggregate(records, requests{})
//
// Edges come back in the order their keys were first seen. The most frequent
// group gets value 1.0 and every other group count/top.
//
// # TSV Format
//
// One line per edge:
//
//	source<TAB>edge<TAB>target[<TAB>value[<TAB>metadata]]
//
// The value uses four decimals; trailing absent fields are omitted. There is no
// header row and tabs or newlines inside fields are not escaped.
//
// # Concurrency
//
// All functions are pure and keep their state local to the call.
package flow
