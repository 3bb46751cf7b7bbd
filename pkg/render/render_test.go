package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/ccollicutt/probeplot/pkg/probelog"
)

const testLog = `Stats 1.0: extruder: target=210 temp=209.8 pwm=0.500 heater_bed: target=60 temp=60.0 pwm=0.300
PROBE_ACCURACY at X:10.000 Y:20.000 Z:5.000 (samples=3 retract=2.000 speed=5.0 lift_speed=10.0)
probe at 10.000,20.000 is z=1.000
probe at 10.000,20.000 is z=1.004
Stats 2.0: extruder: target=210 temp=210.2 pwm=0.500 heater_bed: target=60 temp=60.0 pwm=0.300
probe at 10.000,20.000 is z=1.002
PROBE_ACCURACY at X:30.000 Y:40.000 Z:5.000 (samples=2 retract=2.000 speed=5.0 lift_speed=10.0)
probe at 30.000,40.000 is z=0.998
probe at 30.000,40.000 is z=0.999
`

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Width, opts.Height = 640, 320

	if err := Render(&buf, probelog.Parse(testLog), opts); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG")
	}
}

func TestRender_SVG(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Format = FormatSVG
	opts.Title = "bed probe"

	if err := Render(&buf, probelog.Parse(testLog), opts); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Error("output is not an SVG document")
	}
	if !strings.Contains(out, "bed probe") {
		t.Error("SVG missing title")
	}
}

func TestRender_NoSamples(t *testing.T) {
	for _, text := range []string{
		"",
		"PROBE_ACCURACY at X:1.000 Y:1.000 Z:1.000 (samples=3 retract=1.0 speed=1.0 lift_speed=1.0)\n",
	} {
		err := Render(&bytes.Buffer{}, probelog.Parse(text), DefaultOptions())
		if !errors.Is(err, ErrNoSamples) {
			t.Errorf("Render(%q) error = %v, want ErrNoSamples", text, err)
		}
	}
}

func TestRender_SingleSample(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, probelog.Parse("probe at 1.000,1.000 is z=0.250\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Render() wrote nothing")
	}
}

func TestBuild_Series(t *testing.T) {
	ch, err := build(probelog.Parse(testLog), Options{BandColors: []string{"#112233"}})
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	// Two bands, two sensors, one probe series.
	if len(ch.Series) != 5 {
		t.Fatalf("len(Series) = %d, want 5", len(ch.Series))
	}

	band := ch.Series[0].(chart.ContinuousSeries)
	if band.XValues[0] != 0 || band.XValues[1] != 3 {
		t.Errorf("first band spans %v, want [0 3]", band.XValues)
	}
	if band.Style.FillColor != hexColor("#112233") {
		t.Errorf("band fill = %v", band.Style.FillColor)
	}

	temps := ch.Series[2].(chart.ContinuousSeries)
	if temps.YAxis != chart.YAxisSecondary {
		t.Error("temperature series should use the secondary axis")
	}

	probes := ch.Series[4].(chart.ContinuousSeries)
	if len(probes.XValues) != 5 {
		t.Errorf("probe points = %d, want 5", len(probes.XValues))
	}

	if ch.Width != 1280 || ch.Height != 600 {
		t.Errorf("size = %dx%d, want defaults", ch.Width, ch.Height)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"SVG", FormatSVG, false},
		{"gif", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}

	if FormatSVG.ContentType() != "image/svg+xml" || FormatPNG.ContentType() != "image/png" {
		t.Error("unexpected content types")
	}
}

func TestPad(t *testing.T) {
	lo, hi := pad(5, 5)
	if lo != 4 || hi != 6 {
		t.Errorf("pad(5, 5) = %v, %v, want 4, 6", lo, hi)
	}

	lo, hi = pad(0, 10)
	if lo != -0.5 || hi != 10.5 {
		t.Errorf("pad(0, 10) = %v, %v, want -0.5, 10.5", lo, hi)
	}
}
