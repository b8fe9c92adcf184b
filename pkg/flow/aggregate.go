package flow

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// ErrNoEntries is returned by [Aggregate] when there is nothing to group.
// Without at least one group there is no top count to normalize against.
var ErrNoEntries = errors.New(errors.ErrCodeEmptyInput, "no entries to aggregate")

// Classifier groups raw records of one log source and summarizes each group
// into an edge.
//
// Classify returns the grouping key of a record. Summarize receives every
// record of one group, in input order, and is never called with an empty
// slice. The value of the resulting edge is computed by [Aggregate].
type Classifier[T any, K comparable] interface {
	Classify(entry T) K
	Summarize(entries []T) (Draft, error)
}

// ClassifierFuncs adapts a pair of functions to the [Classifier] interface.
type ClassifierFuncs[T any, K comparable] struct {
	ClassifyFunc  func(T) K
	SummarizeFunc func([]T) (Draft, error)
}

// Classify calls f.ClassifyFunc.
func (f ClassifierFuncs[T, K]) Classify(entry T) K { return f.ClassifyFunc(entry) }

// Summarize calls f.SummarizeFunc.
func (f ClassifierFuncs[T, K]) Summarize(entries []T) (Draft, error) {
	return f.SummarizeFunc(entries)
}

// Counter is a [Classifier] over drafts that groups identical
// source/edge/target triples and annotates each edge with the size of its
// group, e.g. "12 packets". Incoming metadata is ignored.
type Counter struct {
	Unit string // plural noun of what is counted, e.g. "queries"
}

// Classify returns the draft without its metadata.
func (c Counter) Classify(d Draft) Draft {
	d.Metadata = ""
	return d
}

// Summarize returns the group's triple with the count as metadata.
func (c Counter) Summarize(drafts []Draft) (Draft, error) {
	d := drafts[0]
	d.Metadata = fmt.Sprintf("%d %s", len(drafts), c.Unit)
	return d, nil
}

// Aggregate groups entries by c.Classify and returns one edge per distinct key.
//
// Edges are ordered by the first occurrence of their key in entries. Each
// edge's value is the size of its group divided by the size of the largest
// group, so the largest group(s) get exactly 1.0.
//
// Aggregate returns [ErrNoEntries] for empty input. An error from
// c.Summarize aborts the aggregation and is returned wrapped with the key.
func Aggregate[T any, K comparable](entries []T, c Classifier[T, K]) ([]Edge, error) {
	return AggregateSeq(slices.Values(entries), c)
}

// AggregateSeq is [Aggregate] over a sequence, for sources that stream their
// records. The sequence is consumed exactly once.
func AggregateSeq[T any, K comparable](entries iter.Seq[T], c Classifier[T, K]) ([]Edge, error) {
	groups := make(map[K][]T)
	var order []K

	for entry := range entries {
		key := c.Classify(entry)
		group, seen := groups[key]
		if !seen {
			order = append(order, key)
		}
		groups[key] = append(group, entry)
	}

	if len(order) == 0 {
		return nil, ErrNoEntries
	}

	top := 0
	for _, key := range order {
		top = max(top, len(groups[key]))
	}

	edges := make([]Edge, 0, len(order))
	for _, key := range order {
		group := groups[key]
		d, err := c.Summarize(group)
		if err != nil {
			return nil, fmt.Errorf("summarize group %v: %w", key, err)
		}
		e := d.ToEdge()
		e.Value = Weight(float64(len(group)) / float64(top))
		edges = append(edges, e)
	}
	return edges, nil
}

// SortByWeight orders edges by descending value, most frequent first.
// The sort is stable; unweighted edges go last.
func SortByWeight(edges []Edge) {
	slices.SortStableFunc(edges, func(a, b Edge) int {
		switch {
		case a.Value == nil && b.Value == nil:
			return 0
		case a.Value == nil:
			return 1
		case b.Value == nil:
			return -1
		}
		return cmp.Compare(*b.Value, *a.Value)
	})
}

// ApplyFloor returns a copy of edges where every value below floor is raised
// to floor. Some extractors use a small floor (e.g. 0.0001) so rare edges stay
// visible to tools that drop zero weights. A floor <= 0 returns edges as is.
func ApplyFloor(edges []Edge, floor float64) []Edge {
	if floor <= 0 {
		return edges
	}
	out := make([]Edge, len(edges))
	for i, e := range edges {
		if e.Value != nil && *e.Value < floor {
			e.Value = Weight(floor)
		}
		out[i] = e
	}
	return out
}
