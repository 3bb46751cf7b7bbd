package probelog

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	accuracyHeaderPattern = regexp.MustCompile(`PROBE_ACCURACY at X:(?P<x>-?\d+\.\d+) Y:(?P<y>-?\d+\.\d+) Z:(?P<z>-?\d+\.\d+) \(samples=(?P<samples>\d+) retract=(?P<retract>\d+\.\d+) speed=(?P<speed>\d+\.\d+) lift_speed=(?P<lift_speed>\d+\.\d+)`)

	probePattern = regexp.MustCompile(`probe at (?P<x>-?\d+\.\d+),(?P<y>-?\d+\.\d+) is z=(?P<z>-?\d+\.\d+)`)

	statsPattern = regexp.MustCompile(`Stats \d+\.\d: (?P<stats>.*)$`)

	// statsSegmentPattern matches one "name: key=value key=value " group.
	statsSegmentPattern = regexp.MustCompile(`\w+:\s(?:\w+=\S+\s+)+`)
	statsTempPattern    = regexp.MustCompile(`\stemp=(?P<temp>-?\d+.\d+)`)
)

// applyFunc mutates the fold state once a line has been fully decoded.
type applyFunc func(*foldState)

// lineRule pairs a pattern with the decoder for the lines it claims.
type lineRule struct {
	kind    LineKind
	pattern *regexp.Regexp
	decode  func(f *fields) applyFunc
}

// lineRules is evaluated in order; the first matching pattern owns the line.
var lineRules = []lineRule{
	{kind: LineKindAccuracyHeader, pattern: accuracyHeaderPattern, decode: decodeAccuracyHeader},
	{kind: LineKindProbe, pattern: probePattern, decode: decodeProbe},
	{kind: LineKindStats, pattern: statsPattern, decode: decodeStats},
}

// fields reads named captures from a match. The first conversion failure
// is kept and every later read returns zero.
type fields struct {
	pattern *regexp.Regexp
	match   []string
	err     *LineError
}

func (f *fields) raw(name string) string {
	return f.match[f.pattern.SubexpIndex(name)]
}

func (f *fields) float(name string) float64 {
	return f.parseFloat(name, f.raw(name))
}

func (f *fields) parseFloat(field, raw string) float64 {
	if f.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f.err = &LineError{Field: field, Text: raw, Err: err}
		return 0
	}
	return v
}

// integer reads a 32-bit count so that counter+count cannot overflow int.
func (f *fields) integer(name string) int {
	if f.err != nil {
		return 0
	}
	raw := f.raw(name)
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		f.err = &LineError{Field: name, Text: raw, Err: err}
		return 0
	}
	return int(v)
}

func decodeAccuracyHeader(f *fields) applyFunc {
	meta := RunMetadata{
		X:         f.float("x"),
		Y:         f.float("y"),
		Z:         f.float("z"),
		Samples:   f.integer("samples"),
		Retract:   f.float("retract"),
		Speed:     f.float("speed"),
		LiftSpeed: f.float("lift_speed"),
	}
	return func(s *foldState) {
		s.result.Runs = append(s.result.Runs, CalibrationRun{
			StartIndex: s.counter,
			EndIndex:   s.counter + meta.Samples,
			Alternate:  len(s.result.Runs)%2 == 1,
			Metadata:   meta,
		})
	}
}

func decodeProbe(f *fields) applyFunc {
	// Coordinates are validated but only z is kept.
	f.float("x")
	f.float("y")
	z := f.float("z")
	return func(s *foldState) {
		s.carryForward()
		s.result.Samples = append(s.result.Samples, ProbeSample{Index: s.counter, Z: z})
		s.counter++
	}
}

type reading struct {
	sensor string
	value  float64
}

func decodeStats(f *fields) applyFunc {
	var readings []reading
	for _, segment := range statsSegmentPattern.FindAllString(f.raw("stats"), -1) {
		if !strings.Contains(segment, "temp=") {
			continue
		}
		m := statsTempPattern.FindStringSubmatch(segment)
		if m == nil {
			// e.g. "mcu_temp=" without a standalone temp key
			continue
		}
		sensor := segment[:strings.Index(segment, ":")]
		v := f.parseFloat(sensor+".temp", m[statsTempPattern.SubexpIndex("temp")])
		readings = append(readings, reading{sensor: sensor, value: v})
	}
	return func(s *foldState) {
		for _, r := range readings {
			s.observe(r.sensor, r.value)
		}
	}
}
