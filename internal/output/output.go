// Package output renders finished scan sessions as human-readable tables,
// JSON documents, or CSV rows, to stdout or to a file.
package output

import (
	"io"
	"os"

	"github.com/nexscan/nexscan/internal/engine"
	scanerrors "github.com/nexscan/nexscan/internal/errors"
	"github.com/nexscan/nexscan/internal/probe"
)

// Format names a supported output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat converts a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", scanerrors.ErrConfigInvalid("output.format", s)
	}
}

// Options controls rendering.
type Options struct {
	// Format selects the encoding.
	Format Format
	// ShowAll includes closed and filtered ports; by default only open and
	// open|filtered ports (and errors) are rendered.
	ShowAll bool
	// Color enables ANSI colors in text output.
	Color bool
}

// Write renders a session to w in the selected format.
func Write(w io.Writer, session *engine.ScanSession, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, session, opts)
	case FormatCSV:
		return writeCSV(w, session, opts)
	default:
		return writeText(w, session, opts)
	}
}

// Save renders a session to a file. Color never goes to files.
func Save(path string, session *engine.ScanSession, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return scanerrors.WrapConfigError(scanerrors.CodeFileWrite,
			"failed to create output file", err)
	}
	defer f.Close()

	opts.Color = false
	if err := Write(f, session, opts); err != nil {
		return err
	}
	return f.Close()
}

// visible applies the ShowAll filter: without it, only ports worth reporting
// (open, open|filtered, error) are rendered.
func visible(results []engine.PortResult, showAll bool) []engine.PortResult {
	if showAll {
		return results
	}
	out := make([]engine.PortResult, 0, len(results))
	for _, r := range results {
		switch r.State {
		case probe.StateOpen, probe.StateOpenFiltered, probe.StateError:
			out = append(out, r)
		}
	}
	return out
}
