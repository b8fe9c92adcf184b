package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/pipeline"
)

// textFormats are written to a terminal as-is; other formats are binary.
var textFormats = map[string]bool{
	pipeline.FormatTSV: true,
	pipeline.FormatDOT: true,
	pipeline.FormatSVG: true,
}

// writeArtifacts writes rendered outputs.
//
// A single format without an output path is written to stdout. Otherwise
// each format goes to "<base>.<format>", where base is output with its
// extension removed, or fallback when output is empty.
func (c *CLI) writeArtifacts(artifacts map[string][]byte, formats []string, output, fallback string) error {
	if output == "" && len(formats) == 1 {
		return writeStdout(c.Stdout, formats[0], artifacts[formats[0]])
	}

	base := basePath(output, fallback)
	if err := errors.ValidatePath(base); err != nil {
		return err
	}
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", dir)
		}
	}

	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		printFile(path)
	}
	return nil
}

func writeStdout(w io.Writer, format string, data []byte) error {
	if !textFormats[format] {
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			return errors.New(errors.ErrCodeInvalidInput, "refusing to write %s to a terminal, use --output", format)
		}
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if textFormats[format] && !bytes.HasSuffix(data, []byte("\n")) {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}

// basePath derives the output base path from the --output flag.
// "graph.svg" and "graph" both give "graph".
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	ext := filepath.Ext(output)
	if ext != "" && pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
