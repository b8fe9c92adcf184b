package flow

import (
	"github.com/matzehuels/flowgraph/pkg/errors"
)

// Edge is a directed, labeled and optionally weighted connection between two
// nodes of a data-flow graph.
type Edge struct {
	Source string `json:"source"`
	Edge   string `json:"edge"` // relationship label, e.g. "select" or "rpush"; may be empty
	Target string `json:"target"`

	// Value is the edge weight, usually the edge frequency relative to the most
	// frequent edge of the same batch. Nil means unweighted; zero is a weight.
	Value *float64 `json:"value,omitempty"`

	// Metadata is a free-text annotation such as "123 requests". Empty means none.
	Metadata string `json:"metadata,omitempty"`
}

// Draft is the edge shape a [Classifier] returns for one group of records.
// It has no value: [Aggregate] computes the weight.
type Draft struct {
	Source   string
	Edge     string
	Target   string
	Metadata string
}

// Weight returns a pointer to v for use as [Edge.Value].
func Weight(v float64) *float64 {
	return &v
}

// Weighted reports whether the edge carries a value.
func (e Edge) Weighted() bool { return e.Value != nil }

// Validate reports a MALFORMED_EDGE error when either endpoint is missing.
func (e Edge) Validate() error {
	if e.Source == "" {
		return errors.New(errors.ErrCodeMalformedEdge, "edge %q -> %q has no source", e.Edge, e.Target)
	}
	if e.Target == "" {
		return errors.New(errors.ErrCodeMalformedEdge, "edge %q -> %q has no target", e.Source, e.Edge)
	}
	return nil
}

// ToEdge converts the draft into an unweighted edge.
func (d Draft) ToEdge() Edge {
	return Edge{
		Source:   d.Source,
		Edge:     d.Edge,
		Target:   d.Target,
		Metadata: d.Metadata,
	}
}
