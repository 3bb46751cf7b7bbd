package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, highcharts).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose enables detailed output including per-sensor temperatures.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool

	// Color enables terminal styling in the text format.
	Color bool

	// Title is used by the highcharts format.
	Title string

	// BandColors are cycled through for calibration run bands.
	BandColors []string
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"text", "json", "highcharts"}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "highcharts":
		return NewHighchartsFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be text, json, or highcharts)", name)
	}
}
