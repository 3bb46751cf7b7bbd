package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/probeplot/pkg/probelog"
)

// DefaultBandColors alternate between adjacent calibration runs.
var DefaultBandColors = []string{"#EFFFFF", "#FFFFEF"}

// ProbeSeriesName is the name of the probe Z series.
const ProbeSeriesName = "Probe Z"

// HighchartsFormatter renders a report as a Highcharts options object: the
// probe Z series, one hidden spline per temperature sensor on the secondary
// axis, and one x-axis plot band per calibration run.
type HighchartsFormatter struct {
	opts FormatOptions
}

// NewHighchartsFormatter creates a new highcharts formatter.
func NewHighchartsFormatter(opts FormatOptions) *HighchartsFormatter {
	if len(opts.BandColors) == 0 {
		opts.BandColors = DefaultBandColors
	}
	return &HighchartsFormatter{opts: opts}
}

// Name returns the format name.
func (f *HighchartsFormatter) Name() string {
	return "highcharts"
}

type hcText struct {
	Text string `json:"text"`
}

type hcMarker struct {
	Enabled bool `json:"enabled"`
}

type hcAxis struct {
	Title     hcText   `json:"title"`
	Opposite  bool     `json:"opposite,omitempty"`
	PlotBands []HCBand `json:"plotBands,omitempty"`
}

// HCBand is one calibration run drawn as an x-axis plot band.
type HCBand struct {
	From        int                  `json:"from"`
	To          int                  `json:"to"`
	Color       string               `json:"color"`
	Extra       probelog.RunMetadata `json:"extra"`
	BorderWidth int                  `json:"borderWidth"`
	BorderColor string               `json:"borderColor"`
}

// HCSeries is one chart series with [x, y] points.
type HCSeries struct {
	Type        string       `json:"type"`
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Data        [][2]float64 `json:"data"`
	YAxis       int          `json:"yAxis"`
	Visible     bool         `json:"visible"`
	ValueSuffix string       `json:"valueSuffix"`
	LineWidth   *int         `json:"lineWidth,omitempty"`
	Marker      hcMarker     `json:"marker"`
}

// HCOptions is the subset of Highcharts options probeplot produces.
type HCOptions struct {
	Title  hcText     `json:"title"`
	XAxis  hcAxis     `json:"xAxis"`
	YAxis  []hcAxis   `json:"yAxis"`
	Series []HCSeries `json:"series"`
}

// Format renders the report as Highcharts options JSON.
func (f *HighchartsFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.Options(report.Result))
}

// Options builds the chart options for a parse result.
func (f *HighchartsFormatter) Options(res *probelog.Result) HCOptions {
	zero := 0
	probes := HCSeries{
		Type:        "line",
		ID:          "probes",
		Name:        ProbeSeriesName,
		Data:        make([][2]float64, 0, len(res.Samples)),
		Visible:     true,
		ValueSuffix: "mm",
		LineWidth:   &zero,
		Marker:      hcMarker{Enabled: true},
	}
	for _, s := range res.Samples {
		probes.Data = append(probes.Data, [2]float64{float64(s.Index), s.Z})
	}

	series := []HCSeries{probes}
	for _, sensor := range res.Sensors {
		temps := res.Temperatures[sensor]
		data := make([][2]float64, 0, len(temps))
		for _, t := range temps {
			data = append(data, [2]float64{float64(t.Index), t.Value})
		}
		series = append(series, HCSeries{
			Type:        "spline",
			Name:        sensor,
			Data:        data,
			YAxis:       1,
			ValueSuffix: "°C",
		})
	}

	bands := make([]HCBand, 0, len(res.Runs))
	for i, run := range res.Runs {
		bands = append(bands, HCBand{
			From:        run.StartIndex,
			To:          run.EndIndex,
			Color:       f.opts.BandColors[i%len(f.opts.BandColors)],
			Extra:       run.Metadata,
			BorderWidth: 1,
			BorderColor: "#ffffff",
		})
	}

	return HCOptions{
		Title: hcText{Text: f.opts.Title},
		XAxis: hcAxis{PlotBands: bands},
		YAxis: []hcAxis{
			{Title: hcText{Text: ProbeSeriesName}},
			{Title: hcText{Text: "temperature (°C)"}, Opposite: true},
		},
		Series: series,
	}
}
