package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/flow"
	"github.com/matzehuels/flowgraph/pkg/observability"
)

// Runner executes pipeline stages and logs their progress.
//
// The Runner is stateless except for the logger - it doesn't store pipeline
// results. Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Run aggregates entries with c and renders the edges.
func Run[T any, K comparable](ctx context.Context, r *Runner, entries []T, c flow.Classifier[T, K], opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	edges, err := Aggregate(ctx, r, entries, c, opts)
	if err != nil {
		return nil, err
	}
	aggregateTime := time.Since(start)

	result, err := r.Render(ctx, edges, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.EntryCount = len(entries)
	result.Stats.AggregateTime = aggregateTime
	return result, nil
}

// Aggregate groups entries into edges, then applies opts.WeightFloor and
// opts.SortByWeight.
//
// Aggregate is a function rather than a Runner method because methods
// cannot have type parameters.
func Aggregate[T any, K comparable](ctx context.Context, r *Runner, entries []T, c flow.Classifier[T, K], opts Options) ([]flow.Edge, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnAggregateStart(ctx, len(entries))
	start := time.Now()

	edges, err := flow.Aggregate(entries, c)
	hooks.OnAggregateComplete(ctx, len(edges), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	edges = flow.ApplyFloor(edges, opts.WeightFloor)
	if opts.SortByWeight {
		flow.SortByWeight(edges)
	}

	r.Logger.Info("aggregated entries",
		"entries", len(entries),
		"edges", len(edges),
		"duration", time.Since(start))
	return edges, nil
}
