// Package output provides formatting and output generation for parsed probe logs.
package output

import (
	"time"

	"github.com/ccollicutt/probeplot/pkg/accuracy"
	"github.com/ccollicutt/probeplot/pkg/logfile"
	"github.com/ccollicutt/probeplot/pkg/probelog"
)

// Report is the complete output for one log.
type Report struct {
	// Source describes the log the report was built from.
	Source Source `json:"source"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Result is the parsed series and runs.
	Result *probelog.Result `json:"result"`

	// Accuracy holds per-run statistics and issues.
	Accuracy *accuracy.Result `json:"accuracy"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Source identifies a parsed log.
type Source struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	HumanSize string `json:"human_size"`
}

// Summary provides aggregate statistics.
type Summary struct {
	Samples        int      `json:"samples"`
	Runs           int      `json:"runs"`
	Sensors        []string `json:"sensors"`
	RunsWithIssues int      `json:"runs_with_issues"`
	TotalIssues    int      `json:"total_issues"`
}

// Metadata provides context about the parse.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// AnalyzedAt is when the parse finished.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long parsing and analysis took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from a loaded log and its parse results.
func NewReport(log *logfile.Log, result *probelog.Result, acc *accuracy.Result) *Report {
	report := &Report{
		Result:   result,
		Accuracy: acc,
		Summary: Summary{
			Samples:        len(result.Samples),
			Runs:           len(result.Runs),
			Sensors:        result.Sensors,
			RunsWithIssues: acc.RunsWithIssues(),
			TotalIssues:    acc.TotalIssues(),
		},
		Metadata: Metadata{
			AnalyzedAt: time.Now(),
		},
	}

	if log != nil {
		report.Source = Source{
			Name:      log.Name,
			Size:      log.Size,
			HumanSize: log.HumanSize(),
		}
	}

	return report
}

// HasIssues returns true if any issues were detected.
func (r *Report) HasIssues() bool {
	return r.Summary.TotalIssues > 0
}
