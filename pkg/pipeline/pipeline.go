// Package pipeline provides the aggregate → render pipeline shared by every
// flowgraph command.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Aggregate: group raw records of a log source into weighted edges
//     ([flow.Aggregate]), then apply the weight floor and ordering policy.
//  2. Render: produce output in the requested formats (TSV, DOT, SVG, PNG).
//
// Each stage can be run on its own, e.g. the render command starts from
// edges read back from a TSV file.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{
//	    Formats:      []string{"tsv", "svg"},
//	    SortByWeight: true,
//	}
//	result, err := pipeline.Run(ctx, runner, drafts, flow.Counter{Unit: "packets"}, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/flow"
)

// Format constants for output formats.
const (
	FormatTSV = "tsv"
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatTSV

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatTSV: true,
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
}

// FormatNames lists the supported formats in display order.
var FormatNames = []string{FormatTSV, FormatDOT, FormatSVG, FormatPNG}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
type Options struct {
	// Aggregate options

	// WeightFloor raises every edge value below it to the floor. Zero
	// disables the floor.
	WeightFloor float64 `json:"weight_floor,omitempty"`
	// SortByWeight orders edges most frequent first instead of first seen.
	SortByWeight bool `json:"sort_by_weight,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	// Header is written as the first line of the TSV output, e.g. a
	// "# processed ..." comment.
	Header string `json:"header,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Edges are the aggregated edges after floor and ordering.
	Edges []flow.Edge

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EntryCount    int
	EdgeCount     int
	NodeCount     int
	AggregateTime time.Duration
	RenderTime    time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(FormatNames, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list such as "tsv,svg".
// Blank entries are dropped and duplicates removed.
func ParseFormats(s string) []string {
	var formats []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	return formats
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.WeightFloor < 0 || o.WeightFloor > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "weight floor must be within [0, 1], got %v", o.WeightFloor)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if strings.Contains(o.Header, "\n") {
		return errors.New(errors.ErrCodeInvalidInput, "header must be a single line")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// NeedsDOT reports whether any requested format is produced from DOT.
func (o *Options) NeedsDOT() bool {
	for _, f := range o.Formats {
		if f != FormatTSV {
			return true
		}
	}
	return false
}
