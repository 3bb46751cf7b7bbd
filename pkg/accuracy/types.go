// Package accuracy computes PROBE_ACCURACY statistics over a parsed log and
// flags runs that look wrong.
package accuracy

import "github.com/ccollicutt/probeplot/pkg/probelog"

// IssueType categorizes detected issues.
type IssueType string

const (
	// IssueTypeTruncated indicates fewer samples were logged than the header declared.
	IssueTypeTruncated IssueType = "truncated"

	// IssueTypeOverlap indicates the next run started before this run's declared end.
	IssueTypeOverlap IssueType = "overlap"

	// IssueTypeRangeExceeded indicates the spread of Z values is above the configured limit.
	IssueTypeRangeExceeded IssueType = "range_exceeded"
)

// Issue represents a single detected problem with a run.
type Issue struct {
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
}

// RunStats summarises the Z values observed inside a run's band.
type RunStats struct {
	// Observed is the number of probe samples found in the band.
	Observed int `json:"observed"`

	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Range  float64 `json:"range"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`

	// StdDev is the population standard deviation.
	StdDev float64 `json:"stddev"`
}

// RunResult contains the findings for one calibration run.
type RunResult struct {
	// Number is the 1-based position of the run in the log.
	Number int                     `json:"number"`
	Run    probelog.CalibrationRun `json:"run"`
	Stats  RunStats                `json:"stats"`
	Issues []Issue                 `json:"issues"`
}

// HasIssues returns true if any issues were detected.
func (r *RunResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// Result holds the analysis of every selected run.
type Result struct {
	Runs []*RunResult `json:"runs"`

	// MaxRange is the range limit that was applied; zero means none.
	MaxRange float64 `json:"max_range,omitempty"`
}

// TotalIssues returns the total number of issues across all runs.
func (r *Result) TotalIssues() int {
	total := 0
	for _, run := range r.Runs {
		total += len(run.Issues)
	}
	return total
}

// RunsWithIssues returns the count of runs that have at least one issue.
func (r *Result) RunsWithIssues() int {
	count := 0
	for _, run := range r.Runs {
		if run.HasIssues() {
			count++
		}
	}
	return count
}
