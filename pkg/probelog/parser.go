package probelog

import "strings"

// foldState is the accumulator threaded through a single pass over a log.
type foldState struct {
	counter int

	// last holds the most recent reading per sensor; order keeps the
	// sensors in first-observation order.
	last  map[string]float64
	order []string

	result *Result
}

func newFoldState() *foldState {
	return &foldState{
		last:   map[string]float64{},
		result: newResult(),
	}
}

func (s *foldState) observe(sensor string, value float64) {
	if _, seen := s.last[sensor]; !seen {
		s.order = append(s.order, sensor)
	}
	s.last[sensor] = value
}

// carryForward re-emits every known reading at the current counter.
func (s *foldState) carryForward() {
	for _, sensor := range s.order {
		series, ok := s.result.Temperatures[sensor]
		if !ok {
			s.result.Sensors = append(s.result.Sensors, sensor)
		}
		s.result.Temperatures[sensor] = append(series, TemperatureSample{
			Index: s.counter,
			Value: s.last[sensor],
		})
	}
}

// Parse extracts probe samples, temperatures and PROBE_ACCURACY runs from
// the full text of a log. Lines matching no rule are ignored. A line that
// matches a rule but holds an unparsable number is skipped entirely.
func Parse(text string) *Result {
	res, _ := fold(text, func(LineKind, *LineError) error { return nil })
	return res
}

// ParseStrict is Parse, except that the first matched line with an
// unparsable number aborts the parse with a *LineError.
func ParseStrict(text string) (*Result, error) {
	return fold(text, func(_ LineKind, lerr *LineError) error {
		if lerr != nil {
			return lerr
		}
		return nil
	})
}

// Classify returns the kind of rule that claims line, or LineKindNone.
// Malformed lines still report the kind whose pattern matched.
func Classify(line string) LineKind {
	kind, _, _ := classify(line)
	return kind
}

// Inspection summarises how the lines of a log were handled.
type Inspection struct {
	// Lines is the number of lines in the text.
	Lines int

	// Counts is the number of lines claimed per kind, malformed lines included.
	Counts map[LineKind]int

	// Malformed lists the lines that were skipped because of a bad number.
	Malformed []*LineError

	Result *Result
}

// Inspect parses text like Parse and records per-line statistics.
func Inspect(text string) *Inspection {
	in := &Inspection{Counts: map[LineKind]int{}}
	res, _ := fold(text, func(kind LineKind, lerr *LineError) error {
		in.Lines++
		in.Counts[kind]++
		if lerr != nil {
			in.Malformed = append(in.Malformed, lerr)
		}
		return nil
	})
	in.Result = res
	return in
}

// fold runs the rules over every line. visit sees each line's kind and
// decode error before its effect is applied; a non-nil return stops the fold.
func fold(text string, visit func(LineKind, *LineError) error) (*Result, error) {
	st := newFoldState()
	for i, line := range splitLines(text) {
		kind, apply, lerr := classify(line)
		if lerr != nil {
			lerr.Line = i + 1
			lerr.Kind = kind
		}
		if err := visit(kind, lerr); err != nil {
			return nil, err
		}
		if apply != nil {
			apply(st)
		}
	}
	return st.result, nil
}

func classify(line string) (LineKind, applyFunc, *LineError) {
	for _, rule := range lineRules {
		m := rule.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		f := &fields{pattern: rule.pattern, match: m}
		apply := rule.decode(f)
		if f.err != nil {
			return rule.kind, nil, f.err
		}
		return rule.kind, apply, nil
	}
	return LineKindNone, nil, nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
