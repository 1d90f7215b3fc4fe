// Package charts builds declarative chart descriptions from launch records.
// Descriptions are plain values, built fresh on every call.
package charts

// Chart kinds.
const (
	KindPie     = "pie"
	KindScatter = "scatter"
)

// Outcome colors for the single-site pie chart.
const (
	ColorFailure = "#d62728"
	ColorSuccess = "#2ca02c"
)

// palette colors pie slices and scatter series in first-seen order.
var palette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

// PaletteColor returns the i-th palette color, wrapping around.
func PaletteColor(i int) string {
	return palette[i%len(palette)]
}

// Description is a render-ready chart.
// Exactly one of Slices or Series is populated, depending on Kind.
type Description struct {
	Kind   string   `json:"kind"`
	Title  string   `json:"title"`
	XLabel string   `json:"xLabel,omitempty"`
	YLabel string   `json:"yLabel,omitempty"`
	XRange *Range   `json:"xRange,omitempty"`
	YRange *Range   `json:"yRange,omitempty"`
	Slices []Slice  `json:"slices,omitempty"`
	Series []Series `json:"series,omitempty"`
}

// Range is an axis range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Slice is one pie chart wedge.
type Slice struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Series is a group of scatter points sharing a color.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Point is a single scatter point with hover attributes.
type Point struct {
	X     float64           `json:"x"`
	Y     float64           `json:"y"`
	Hover map[string]string `json:"hover,omitempty"`
}

// Total returns the sum of slice values.
func (d Description) Total() float64 {
	var sum float64
	for _, s := range d.Slices {
		sum += s.Value
	}
	return sum
}

// PointCount returns the number of scatter points across all series.
func (d Description) PointCount() int {
	n := 0
	for _, s := range d.Series {
		n += len(s.Points)
	}
	return n
}

// Empty reports whether the chart has nothing to draw.
func (d Description) Empty() bool {
	switch d.Kind {
	case KindPie:
		return d.Total() == 0
	default:
		return d.PointCount() == 0
	}
}
