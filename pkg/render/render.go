// Package render draws a parsed probe log as a PNG or SVG chart: probe Z
// values as dots, temperature series on a secondary axis, and one shaded
// band per calibration run.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ccollicutt/probeplot/pkg/probelog"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("log contains no probe samples")

// Format selects the image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("unknown image format %q (must be png or svg)", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Options controls chart rendering.
type Options struct {
	Width      int
	Height     int
	Format     Format
	Title      string
	BandColors []string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Width:      1280,
		Height:     600,
		Format:     FormatPNG,
		BandColors: []string{"#EFFFFF", "#FFFFEF"},
	}
}

var (
	probeColor  = drawing.ColorFromHex("2F7ED8")
	sensorColor = []drawing.Color{
		drawing.ColorFromHex("D35400"),
		drawing.ColorFromHex("8E44AD"),
		drawing.ColorFromHex("27AE60"),
		drawing.ColorFromHex("C0392B"),
		drawing.ColorFromHex("7F8C8D"),
	}
)

// Render writes res as an image to w.
func Render(w io.Writer, res *probelog.Result, opts Options) error {
	ch, err := build(res, opts)
	if err != nil {
		return err
	}

	provider := chart.PNG
	if opts.Format == FormatSVG {
		provider = chart.SVG
	}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func build(res *probelog.Result, opts Options) (*chart.Chart, error) {
	if len(res.Samples) == 0 {
		return nil, ErrNoSamples
	}

	defaults := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = defaults.Height
	}
	if len(opts.BandColors) == 0 {
		opts.BandColors = defaults.BandColors
	}

	xMax := float64(res.Samples[len(res.Samples)-1].Index)
	zMin, zMax := math.Inf(1), math.Inf(-1)
	xs := make([]float64, len(res.Samples))
	zs := make([]float64, len(res.Samples))
	for i, s := range res.Samples {
		xs[i] = float64(s.Index)
		zs[i] = s.Z
		zMin = math.Min(zMin, s.Z)
		zMax = math.Max(zMax, s.Z)
	}
	for _, run := range res.Runs {
		xMax = math.Max(xMax, float64(run.EndIndex))
	}
	zMin, zMax = pad(zMin, zMax)

	var series []chart.Series
	for i, run := range res.Runs {
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{float64(run.StartIndex), float64(run.EndIndex)},
			YValues: []float64{zMax, zMax},
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				FillColor:   hexColor(opts.BandColors[i%len(opts.BandColors)]),
			},
		})
	}
	bands := len(series)

	tMin, tMax := math.Inf(1), math.Inf(-1)
	for i, sensor := range res.Sensors {
		temps := res.Temperatures[sensor]
		if len(temps) == 0 {
			continue
		}
		tx := make([]float64, len(temps))
		ty := make([]float64, len(temps))
		for j, t := range temps {
			tx[j] = float64(t.Index)
			ty[j] = t.Value
			tMin = math.Min(tMin, t.Value)
			tMax = math.Max(tMax, t.Value)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    sensor + " (°C)",
			YAxis:   chart.YAxisSecondary,
			XValues: tx,
			YValues: ty,
			Style: chart.Style{
				StrokeColor: sensorColor[i%len(sensorColor)],
				StrokeWidth: 1.5,
			},
		})
	}

	series = append(series, chart.ContinuousSeries{
		Name:    "Probe Z (mm)",
		XValues: xs,
		YValues: zs,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    3,
			DotColor:    probeColor,
		},
	})

	if xMax <= 0 {
		xMax = 1
	}

	ch := &chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "sample",
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "Probe Z",
			Range: &chart.ContinuousRange{Min: zMin, Max: zMax},
		},
		Series: series,
	}

	if !math.IsInf(tMin, 1) {
		tMin, tMax = pad(tMin, tMax)
		ch.YAxisSecondary = chart.YAxis{
			Name:  "temperature (°C)",
			Range: &chart.ContinuousRange{Min: tMin, Max: tMax},
		}
	}

	// Bands have no names and stay out of the legend.
	legend := *ch
	legend.Series = series[bands:]
	ch.Elements = []chart.Renderable{chart.Legend(&legend)}

	return ch, nil
}

// pad widens [lo, hi] by 5% on each side, or by 1 when it is empty.
func pad(lo, hi float64) (float64, float64) {
	if hi <= lo {
		return lo - 1, hi + 1
	}
	d := (hi - lo) * 0.05
	return lo - d, hi + d
}

func hexColor(s string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}
