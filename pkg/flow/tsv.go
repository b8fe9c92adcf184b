package flow

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// maxLineSize bounds a single TSV line read by ReadTSV.
const maxLineSize = 1 << 20

// FormatTSV renders e as a single tab-separated line:
//
//	source<TAB>edge<TAB>target[<TAB>value[<TAB>metadata]]
//
// The value is printed with four decimals (0 becomes "0.0000"). Trailing empty
// fields and their separators are dropped, so an unweighted edge without
// metadata yields exactly three fields.
func FormatTSV(e Edge) string {
	var value string
	if e.Value != nil {
		value = fmt.Sprintf("%.4f", *e.Value)
	}
	line := strings.Join([]string{e.Source, e.Edge, e.Target, value, e.Metadata}, "\t")
	return strings.TrimRight(line, " \t")
}

// FormatTSVLines renders every edge with [FormatTSV], keeping the input order.
func FormatTSVLines(edges []Edge) []string {
	lines := make([]string, len(edges))
	for i, e := range edges {
		lines[i] = FormatTSV(e)
	}
	return lines
}

// WriteTSV writes one newline-terminated line per edge to w.
// It fails on the first edge without a source or target.
func WriteTSV(w io.Writer, edges []Edge) error {
	bw := bufio.NewWriter(w)
	for _, e := range edges {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, err := bw.WriteString(FormatTSV(e) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadTSV parses an edge list written by [WriteTSV] or by the log sources.
//
// Blank lines and lines starting with '#' are skipped. A line needs at least
// source, edge and target; an empty value column leaves the edge unweighted.
// Errors name the offending line number.
func ReadTSV(r io.Reader) ([]Edge, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var edges []Edge
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		e, err := parseTSVLine(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d", lineNo)
		}
		edges = append(edges, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read edges: %w", err)
	}
	return edges, nil
}

func parseTSVLine(line string) (Edge, error) {
	fields := strings.SplitN(line, "\t", 5)
	if len(fields) < 3 {
		return Edge{}, fmt.Errorf("want at least 3 tab-separated fields, got %d", len(fields))
	}

	e := Edge{Source: fields[0], Edge: fields[1], Target: fields[2]}
	if len(fields) > 3 && fields[3] != "" {
		v, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return Edge{}, fmt.Errorf("parse value %q: %w", fields[3], err)
		}
		e.Value = &v
	}
	if len(fields) > 4 {
		e.Metadata = fields[4]
	}

	if err := e.Validate(); err != nil {
		return Edge{}, err
	}
	return e, nil
}
