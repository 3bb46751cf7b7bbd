// Package probelog extracts probe samples, temperature series and
// PROBE_ACCURACY runs from Klipper firmware logs.
package probelog

// ProbeSample is a single probe height measurement.
type ProbeSample struct {
	// Index is the probe counter value, not a line number.
	Index int `json:"index"`

	// Z is the measured probe height in mm.
	Z float64 `json:"z"`
}

// TemperatureSample is a sensor reading aligned to the probe counter.
type TemperatureSample struct {
	// Index is the probe counter value the reading was carried forward to.
	Index int `json:"index"`

	// Value is the last temperature reported for the sensor.
	Value float64 `json:"value"`
}

// RunMetadata holds the parameters announced by a PROBE_ACCURACY header.
type RunMetadata struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Samples   int     `json:"samples"`
	Retract   float64 `json:"retract"`
	Speed     float64 `json:"speed"`
	LiftSpeed float64 `json:"lift_speed"`
}

// CalibrationRun is the probe index range covered by one PROBE_ACCURACY run.
type CalibrationRun struct {
	// StartIndex is the probe counter when the header line was seen.
	StartIndex int `json:"start_index"`

	// EndIndex is StartIndex plus the declared sample count. It is not
	// checked against the samples that actually follow.
	EndIndex int `json:"end_index"`

	// Alternate is set on every second run. It is carried for JSON
	// consumers that shade bands with two colors; the Highcharts and image
	// renderers cycle through a configurable palette by run position
	// instead, which picks the same colors for the default pair.
	Alternate bool `json:"alternate"`

	Metadata RunMetadata `json:"metadata"`
}

// Contains reports whether a probe index falls inside the run's band.
func (r CalibrationRun) Contains(index int) bool {
	return index >= r.StartIndex && index < r.EndIndex
}

// Result is the structured output of a parse. All collections are non-nil.
type Result struct {
	Samples      []ProbeSample                  `json:"samples"`
	Temperatures map[string][]TemperatureSample `json:"temperatures"`
	Runs         []CalibrationRun               `json:"runs"`

	// Sensors lists the keys of Temperatures in first-observation order.
	Sensors []string `json:"sensors"`
}

func newResult() *Result {
	return &Result{
		Samples:      []ProbeSample{},
		Temperatures: map[string][]TemperatureSample{},
		Runs:         []CalibrationRun{},
		Sensors:      []string{},
	}
}

// RunAt returns the run whose band contains index.
func (r *Result) RunAt(index int) (CalibrationRun, bool) {
	for _, run := range r.Runs {
		if run.Contains(index) {
			return run, true
		}
	}
	return CalibrationRun{}, false
}

// SamplesIn returns the probe samples whose index falls inside run.
func (r *Result) SamplesIn(run CalibrationRun) []ProbeSample {
	var out []ProbeSample
	for _, s := range r.Samples {
		if run.Contains(s.Index) {
			out = append(out, s)
		}
	}
	return out
}

// IsEmpty reports whether the parse produced nothing at all.
func (r *Result) IsEmpty() bool {
	return len(r.Samples) == 0 && len(r.Temperatures) == 0 && len(r.Runs) == 0
}

// LineKind identifies which rule claimed a log line.
type LineKind string

const (
	LineKindNone           LineKind = "none"
	LineKindAccuracyHeader LineKind = "accuracy_header"
	LineKindProbe          LineKind = "probe"
	LineKindStats          LineKind = "stats"
)
