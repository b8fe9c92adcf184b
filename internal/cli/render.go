package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/config"
	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/flow"
	"github.com/matzehuels/flowgraph/pkg/pipeline"
)

// outputFlags holds the flags shared by every command that renders a graph.
type outputFlags struct {
	formats string  // comma-separated output formats
	output  string  // output file path (or base path for multiple outputs)
	floor   float64 // minimum edge weight
	sort    bool    // order edges by weight
}

// register adds the output flags to cmd. Defaults come from the config file
// at run time, so the flag defaults shown here are the built-in ones.
func (f *outputFlags) register(cmd *cobra.Command, sortByDefault bool) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output formats: "+strings.Join(pipeline.FormatNames, ", ")+" (comma-separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (stdout if omitted and a single format is requested)")
	cmd.Flags().Float64Var(&f.floor, "floor", 0, "raise edge weights below this value to it (0 disables)")
	cmd.Flags().BoolVar(&f.sort, "sort", sortByDefault, "order edges by weight, most frequent first")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
}

// options builds pipeline options from the flags, falling back to the
// [render] config section for flags left unset.
func (f *outputFlags) options(cmd *cobra.Command, cfg config.RenderConfig) (pipeline.Options, error) {
	formats := cfg.Formats
	if cmd.Flags().Changed("format") {
		formats = pipeline.ParseFormats(f.formats)
	}
	floor := cfg.WeightFloor
	if cmd.Flags().Changed("floor") {
		floor = f.floor
	}
	opts := pipeline.Options{
		Formats:      formats,
		WeightFloor:  floor,
		SortByWeight: f.sort,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

// renderCommand creates the render command, which turns an edge list back
// into a graph.
func (c *CLI) renderCommand() *cobra.Command {
	var flags outputFlags

	cmd := &cobra.Command{
		Use:   "render <edges.tsv|->",
		Short: "Render a TSV edge list as DOT, SVG or PNG",
		Long: `Render a tab-separated edge list as produced by the sql-logs and pcap commands.

Each line holds source, edge label, target, and optionally weight and
metadata. Lines starting with # are comments. Use - to read from stdin.`,
		Example: `  flowgraph render edges.tsv -f svg -o graph.svg
  flowgraph pcap capture.pcap | flowgraph render - -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, cfg.Render)
			if err != nil {
				return err
			}
			opts.Logger = c.Logger

			edges, err := readEdges(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if len(edges) == 0 {
				return errors.New(errors.ErrCodeEmptyInput, "no edges in %s", args[0])
			}
			edges = flow.ApplyFloor(edges, opts.WeightFloor)
			if opts.SortByWeight {
				flow.SortByWeight(edges)
			}

			result, err := c.newRunner().Render(cmd.Context(), edges, opts)
			if err != nil {
				return err
			}
			if err := c.writeArtifacts(result.Artifacts, opts.Formats, flags.output, "graph"); err != nil {
				return err
			}
			printStats(0, result.Stats.EdgeCount, result.Stats.NodeCount)
			return nil
		},
	}

	flags.register(cmd, false)
	return cmd
}

// readEdges parses an edge list from path, or from stdin when path is "-".
func readEdges(stdin io.Reader, path string) ([]flow.Edge, error) {
	if path == "-" {
		return flow.ReadTSV(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return flow.ReadTSV(f)
}

// fallbackBase names output files after the input file, e.g. "edges.tsv"
// gives "edges". Stdin input uses def.
func fallbackBase(input, def string) string {
	if input == "" || input == "-" {
		return def
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}
