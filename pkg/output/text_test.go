package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/probeplot/pkg/accuracy"
	"github.com/ccollicutt/probeplot/pkg/logfile"
	"github.com/ccollicutt/probeplot/pkg/probelog"
)

const testLog = `Stats 1.0: extruder: target=210 temp=209.8 pwm=0.500 heater_bed: target=60 temp=60.1 pwm=0.300
PROBE_ACCURACY at X:10.000 Y:20.000 Z:5.000 (samples=2 retract=2.000 speed=5.0 lift_speed=10.0)
probe at 10.000,20.000 is z=1.000
probe at 10.000,20.000 is z=1.004
PROBE_ACCURACY at X:30.000 Y:40.000 Z:5.000 (samples=3 retract=2.000 speed=5.0 lift_speed=10.0)
probe at 30.000,40.000 is z=0.500
`

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format_Empty(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	res := probelog.Parse("")
	report := NewReport(nil, res, accuracy.New().Analyze(res))

	var buf bytes.Buffer
	err := f.Format(context.Background(), report, &buf)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "=== probeplot report ===") {
		t.Error("Output missing header")
	}
	if !strings.Contains(output, "Sensors: none") {
		t.Error("Output missing empty sensor list")
	}
	if !strings.Contains(output, "0 runs checked") {
		t.Error("Output missing summary")
	}
}

func TestTextFormatter_Format_WithIssues(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"klippy.log (",
		"Samples: 3  Runs: 2  Sensors: extruder, heater_bed",
		"[RUN 1] PROBE_ACCURACY at X:10.000 Y:20.000 Z:5.000",
		"samples 0-1, 2 of 2 observed",
		"No issues detected",
		"[RUN 2]",
		"- truncated: declared 3 samples, observed 1",
		"2 runs checked, 1 runs with issues, 1 total issues",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q\n%s", want, output)
		}
	}

	if strings.Contains(output, "\x1b[") {
		t.Error("Output contains escape codes with Color disabled")
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()

	// Quiet mode should be a single line
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 1 {
		t.Errorf("Quiet output has %d lines, want 1", len(lines))
	}

	want := "probeplot: 3 samples, 2 runs, 1 with issues, 1 total issues"
	if strings.TrimSpace(output) != want {
		t.Errorf("Quiet output = %q, want %q", output, want)
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "lift_speed=10.0mm/s") {
		t.Error("Verbose output missing run metadata")
	}
	if !strings.Contains(output, "Temperature extruder: 3 points, last 209.8°C at sample 2") {
		t.Errorf("Verbose output missing temperature summary\n%s", output)
	}
	if !strings.Contains(output, "Duration:") {
		t.Error("Verbose output missing duration")
	}
	if !strings.Contains(output, "Sample 2 / 2  z=1.00400") {
		t.Errorf("Verbose output missing per-sample lines\n%s", output)
	}
	if !strings.Contains(output, "Sample 1 / 3  z=0.50000") {
		t.Errorf("Sample numbering should restart per run\n%s", output)
	}
	if strings.Contains(output, "outside any run") {
		t.Error("every sample belongs to a run")
	}
}

func TestTextFormatter_Format_Unassigned(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true})
	res := probelog.Parse("probe at 1.000,1.000 is z=0.100\nprobe at 1.000,1.000 is z=0.200\n" + testLog)
	report := NewReport(nil, res, accuracy.New().Analyze(res))

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if !strings.Contains(buf.String(), "Samples outside any run: 2") {
		t.Errorf("missing unassigned sample count\n%s", buf.String())
	}
}

func TestTextFormatter_Format_Color(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Color: true})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Styling may or may not emit escapes depending on the terminal, but the
	// text must survive either way.
	output := buf.String()
	if !strings.Contains(output, "truncated") || !strings.Contains(output, "RUN 2") {
		t.Errorf("Color output lost content\n%s", output)
	}
}

func TestReport_HasIssues(t *testing.T) {
	if !createTestReport().HasIssues() {
		t.Error("HasIssues() = false, want true")
	}

	res := probelog.Parse("probe at 1.000,1.000 is z=0.1\n")
	if NewReport(nil, res, accuracy.New().Analyze(res)).HasIssues() {
		t.Error("HasIssues() = true for a log without runs")
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range Formats {
		f, err := NewFormatter(name, FormatOptions{})
		if err != nil {
			t.Errorf("NewFormatter(%q) error = %v", name, err)
			continue
		}
		if f.Name() != name {
			t.Errorf("NewFormatter(%q).Name() = %q", name, f.Name())
		}
	}

	if _, err := NewFormatter("xml", FormatOptions{}); err == nil {
		t.Error("NewFormatter(xml) expected error")
	}
}

func createTestReport() *Report {
	res := probelog.Parse(testLog)
	log := &logfile.Log{Name: "klippy.log", Size: int64(len(testLog)), Text: testLog}
	report := NewReport(log, res, accuracy.New().Analyze(res))
	report.Metadata.Duration = 1500 * time.Microsecond
	return report
}
