package probelog

import "fmt"

// LineError describes a line that matched a rule but carried a numeric
// field that could not be parsed.
type LineError struct {
	// Line is the 1-based line number within the parsed text.
	Line int

	// Kind is the rule whose pattern matched the line.
	Kind LineKind

	// Field names the capture that failed (e.g. "samples", "extruder.temp").
	Field string

	// Text is the offending raw value.
	Text string

	Err error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): invalid %s %q: %v", e.Line, e.Kind, e.Field, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
