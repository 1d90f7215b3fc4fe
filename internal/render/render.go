// Package render draws chart descriptions as SVG or PNG using go-chart.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/star/launchdash/internal/charts"
	"github.com/star/launchdash/internal/metrics"
)

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// maxLegendSeries keeps the scatter legend from swamping the plot area.
const maxLegendSeries = 12

const emptyColor = "#c7c7c7"

// ParseFormat validates a format name. The empty string means SVG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported format %q, must be svg or png", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Renderer draws descriptions at a fixed size.
type Renderer struct {
	width  int
	height int
}

// New returns a Renderer. Non-positive sizes fall back to 800x450.
func New(width, height int) *Renderer {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 450
	}
	return &Renderer{width: width, height: height}
}

// Render writes d to w in format f. Empty descriptions render as empty charts.
func (r *Renderer) Render(d charts.Description, f Format, w io.Writer) error {
	provider := chart.SVG
	if f == FormatPNG {
		provider = chart.PNG
	}

	var err error
	switch d.Kind {
	case charts.KindPie:
		err = r.pie(d).Render(provider, w)
	case charts.KindScatter:
		err = r.scatter(d).Render(provider, w)
	default:
		err = fmt.Errorf("unknown chart kind %q", d.Kind)
	}
	if err != nil {
		return fmt.Errorf("rendering %s chart: %w", d.Kind, err)
	}

	metrics.IncChartRenders(d.Kind, string(f))
	return nil
}

// SVG renders d as an SVG document.
func (r *Renderer) SVG(d charts.Description) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(d, FormatSVG, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) pie(d charts.Description) chart.PieChart {
	values := make([]chart.Value, 0, len(d.Slices))
	for _, s := range d.Slices {
		if s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%g)", s.Label, s.Value),
			Value: s.Value,
			Style: sliceStyle(s.Color),
		})
	}
	if len(values) == 0 {
		values = []chart.Value{{Label: "No data", Value: 1, Style: sliceStyle(emptyColor)}}
	}

	return chart.PieChart{
		Title:  d.Title,
		Width:  r.width,
		Height: r.height,
		Values: values,
	}
}

func sliceStyle(hex string) chart.Style {
	return chart.Style{
		FillColor:   color(hex),
		StrokeColor: drawing.ColorWhite,
		StrokeWidth: 1,
	}
}

func (r *Renderer) scatter(d charts.Description) *chart.Chart {
	series := make([]chart.Series, 0, len(d.Series))
	for _, s := range d.Series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i], ys[i] = p.X, p.Y
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(color(s.Color)),
		})
	}

	xr := axisRange(d.XRange, 0, 10000)
	yr := axisRange(d.YRange, -0.1, 1.1)

	empty := len(series) == 0
	if empty {
		// go-chart refuses to draw without a series; plot one invisible point.
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{xr.Min},
			YValues: []float64{yr.Min},
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    0,
				DotColor:    drawing.ColorTransparent,
				StrokeColor: drawing.ColorTransparent,
			},
		})
	}

	c := &chart.Chart{
		Title:  d.Title,
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  d.XLabel,
			Range: xr,
		},
		YAxis: chart.YAxis{
			Name:  d.YLabel,
			Range: yr,
			Ticks: []chart.Tick{{Value: 0, Label: "0"}, {Value: 1, Label: "1"}},
		},
		Series: series,
	}
	if !empty && len(series) <= maxLegendSeries {
		c.Elements = []chart.Renderable{chart.Legend(c)}
	}
	return c
}

// pointStyle renders points only, with no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    5,
		DotColor:    col,
	}
}

// axisRange converts a description range, widening degenerate ranges so the
// axis always has a non-zero span.
func axisRange(r *charts.Range, defMin, defMax float64) *chart.ContinuousRange {
	lo, hi := defMin, defMax
	if r != nil {
		lo, hi = r.Min, r.Max
	}
	if hi <= lo {
		lo, hi = lo-500, lo+500
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
