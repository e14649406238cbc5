// Package output renders scan reports for the terminal, JSON, SARIF and
// Markdown.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/tatu/internal/types"
	"github.com/garagon/tatu/internal/version"
)

// ToolVersion is the tatu version reported in SARIF and Markdown output.
var ToolVersion = version.Version

// ToolURI is the project home reported in SARIF output.
const ToolURI = "https://github.com/garagon/tatu"

// Formatter is the interface for outputting scan reports.
type Formatter interface {
	Format(w io.Writer, report *types.ScanReport) error
}

// Formats lists the accepted format names.
var Formats = []string{"terminal", "json", "sarif", "markdown"}

// Options carries the presentation settings shared by the formatters.
type Options struct {
	NoColor bool
	Verbose bool
}

// New returns the formatter for a format name.
func New(format string, opts Options) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "terminal", "text":
		return &TerminalFormatter{NoColor: opts.NoColor, Verbose: opts.Verbose}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
