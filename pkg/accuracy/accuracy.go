package accuracy

import (
	"fmt"
	"math"
	"sort"

	"github.com/ccollicutt/probeplot/pkg/probelog"
)

// Analyzer computes run statistics for parse results.
type Analyzer struct {
	maxRange  float64
	runFilter map[int]bool // nil means all runs
}

// Option configures analyzer behavior.
type Option func(*Analyzer)

// WithMaxRange flags runs whose Z range exceeds mm. Zero disables the check.
func WithMaxRange(mm float64) Option {
	return func(a *Analyzer) {
		if mm > 0 {
			a.maxRange = mm
		}
	}
}

// WithRunFilter limits analysis to the given 1-based run numbers.
func WithRunFilter(numbers []int) Option {
	return func(a *Analyzer) {
		if len(numbers) > 0 {
			a.runFilter = make(map[int]bool)
			for _, n := range numbers {
				a.runFilter[n] = true
			}
		}
	}
}

// New creates an analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes statistics and issues for every run in res.
func (a *Analyzer) Analyze(res *probelog.Result) *Result {
	out := &Result{
		Runs:     make([]*RunResult, 0, len(res.Runs)),
		MaxRange: a.maxRange,
	}

	for i, run := range res.Runs {
		number := i + 1
		if a.runFilter != nil && !a.runFilter[number] {
			continue
		}

		rr := &RunResult{
			Number: number,
			Run:    run,
			Stats:  computeStats(res.SamplesIn(run)),
			Issues: []Issue{},
		}

		if rr.Stats.Observed < run.Metadata.Samples {
			rr.Issues = append(rr.Issues, Issue{
				Type: IssueTypeTruncated,
				Description: fmt.Sprintf("declared %d samples, observed %d",
					run.Metadata.Samples, rr.Stats.Observed),
			})
		}

		if i+1 < len(res.Runs) && res.Runs[i+1].StartIndex < run.EndIndex {
			rr.Issues = append(rr.Issues, Issue{
				Type: IssueTypeOverlap,
				Description: fmt.Sprintf("run %d starts at sample %d, before this run ends at %d",
					number+1, res.Runs[i+1].StartIndex, run.EndIndex),
			})
		}

		if a.maxRange > 0 && rr.Stats.Observed > 0 && rr.Stats.Range > a.maxRange {
			rr.Issues = append(rr.Issues, Issue{
				Type: IssueTypeRangeExceeded,
				Description: fmt.Sprintf("range %.6f mm exceeds %.6f mm",
					rr.Stats.Range, a.maxRange),
			})
		}

		out.Runs = append(out.Runs, rr)
	}

	return out
}

func computeStats(samples []probelog.ProbeSample) RunStats {
	stats := RunStats{Observed: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	values := make([]float64, len(samples))
	sum := 0.0
	for i, s := range samples {
		values[i] = s.Z
		sum += s.Z
	}
	sort.Float64s(values)

	n := float64(len(values))
	stats.Min = values[0]
	stats.Max = values[len(values)-1]
	stats.Range = stats.Max - stats.Min
	stats.Mean = sum / n

	mid := len(values) / 2
	if len(values)%2 == 0 {
		stats.Median = (values[mid-1] + values[mid]) / 2
	} else {
		stats.Median = values[mid]
	}

	variance := 0.0
	for _, v := range values {
		d := v - stats.Mean
		variance += d * d
	}
	stats.StdDev = math.Sqrt(variance / n)

	return stats
}
