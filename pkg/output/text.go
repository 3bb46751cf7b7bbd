package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ccollicutt/probeplot/pkg/accuracy"
	"github.com/ccollicutt/probeplot/pkg/probelog"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	runStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	issueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) paint(style lipgloss.Style, s string) string {
	if !f.opts.Color {
		return s
	}
	return style.Render(s)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "probeplot: %d samples, %d runs, %d with issues, %d total issues\n",
		report.Summary.Samples,
		report.Summary.Runs,
		report.Summary.RunsWithIssues,
		report.Summary.TotalIssues)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	title := "=== probeplot report ==="
	if report.Source.Name != "" {
		title = fmt.Sprintf("=== probeplot report: %s (%s) ===", report.Source.Name, report.Source.HumanSize)
	}
	fmt.Fprintln(w, f.paint(headerStyle, title))
	fmt.Fprintln(w)

	sensors := "none"
	if len(report.Summary.Sensors) > 0 {
		sensors = strings.Join(report.Summary.Sensors, ", ")
	}
	fmt.Fprintf(w, "Samples: %d  Runs: %d  Sensors: %s\n", report.Summary.Samples, report.Summary.Runs, sensors)
	fmt.Fprintln(w)

	if report.Accuracy != nil {
		for _, run := range report.Accuracy.Runs {
			f.formatRun(report.Result, run, w)
		}
	}

	if f.opts.Verbose && report.Result != nil {
		f.formatUnassigned(report.Result, w)
		f.formatTemperatures(report, w)
	}

	fmt.Fprintln(w, "---")
	_, err := fmt.Fprintf(w, "Summary: %d runs checked, %d runs with issues, %d total issues\n",
		report.Summary.Runs,
		report.Summary.RunsWithIssues,
		report.Summary.TotalIssues)
	if err != nil {
		return err
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatRun(res *probelog.Result, run *accuracy.RunResult, w io.Writer) {
	md := run.Run.Metadata
	fmt.Fprintf(w, "%s PROBE_ACCURACY at X:%.3f Y:%.3f Z:%.3f\n",
		f.paint(runStyle, fmt.Sprintf("[RUN %d]", run.Number)), md.X, md.Y, md.Z)
	fmt.Fprintf(w, "  samples %d-%d, %d of %d observed\n",
		run.Run.StartIndex, run.Run.EndIndex-1, run.Stats.Observed, md.Samples)

	if f.opts.Verbose {
		fmt.Fprintf(w, "  %s\n", f.paint(mutedStyle, fmt.Sprintf("retract=%.3f speed=%.1fmm/s lift_speed=%.1fmm/s",
			md.Retract, md.Speed, md.LiftSpeed)))
		if res != nil {
			for _, s := range res.SamplesIn(run.Run) {
				fmt.Fprintf(w, "    Sample %d / %d  z=%.5f\n", s.Index-run.Run.StartIndex+1, md.Samples, s.Z)
			}
		}
	}

	if run.Stats.Observed > 0 {
		s := run.Stats
		fmt.Fprintf(w, "  range %.5f mm  mean %.5f  median %.5f  stddev %.5f\n", s.Range, s.Mean, s.Median, s.StdDev)
	}

	if !run.HasIssues() {
		fmt.Fprintf(w, "  %s\n", f.paint(okStyle, "No issues detected"))
		fmt.Fprintln(w)
		return
	}

	for _, issue := range run.Issues {
		fmt.Fprintf(w, "  - %s: %s\n", f.paint(issueStyle, string(issue.Type)), issue.Description)
	}
	fmt.Fprintln(w)
}

// formatUnassigned reports probe samples that fall outside every run.
func (f *TextFormatter) formatUnassigned(res *probelog.Result, w io.Writer) {
	n := 0
	for _, s := range res.Samples {
		if _, ok := res.RunAt(s.Index); !ok {
			n++
		}
	}
	if n > 0 {
		fmt.Fprintf(w, "Samples outside any run: %d\n\n", n)
	}
}

func (f *TextFormatter) formatTemperatures(report *Report, w io.Writer) {
	for _, sensor := range report.Result.Sensors {
		series := report.Result.Temperatures[sensor]
		if len(series) == 0 {
			continue
		}
		last := series[len(series)-1]
		fmt.Fprintf(w, "Temperature %s: %d points, last %.1f°C at sample %d\n", sensor, len(series), last.Value, last.Index)
	}
	fmt.Fprintln(w)
}
