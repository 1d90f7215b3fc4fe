package dashboard

import (
	"strconv"

	"github.com/star/launchdash/internal/filter"
	"github.com/star/launchdash/internal/launch"
)

// Component identifiers shared with the web frontend.
const (
	SiteDropdown   = "site-dropdown"
	PayloadSlider  = "payload-slider"
	SuccessPie     = "success-pie-chart"
	PayloadScatter = "success-payload-scatter-chart"
)

// Range control bounds, in kilograms.
const (
	SliderMin  = 0
	SliderMax  = 10000
	SliderStep = 1000
)

// Option is one entry of the site dropdown.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Dropdown describes the launch-site selector.
type Dropdown struct {
	ID          string   `json:"id"`
	Options     []Option `json:"options"`
	Value       string   `json:"value"`
	Placeholder string   `json:"placeholder"`
	Searchable  bool     `json:"searchable"`
}

// RangeSlider describes the dual-handle payload control.
type RangeSlider struct {
	ID    string            `json:"id"`
	Label string            `json:"label"`
	Min   float64           `json:"min"`
	Max   float64           `json:"max"`
	Step  float64           `json:"step"`
	Marks map[string]string `json:"marks"`
	Value [2]float64        `json:"value"`
}

// Layout is the static page description served to the frontend.
type Layout struct {
	Title    string      `json:"title"`
	Dropdown Dropdown    `json:"dropdown"`
	Slider   RangeSlider `json:"slider"`
	Graphs   []string    `json:"graphs"`
}

// SiteOptions returns the dropdown options: "All Sites" first, then every
// site in first-seen order.
func SiteOptions(ds *launch.Dataset) []Option {
	sites := ds.Sites()
	opts := make([]Option, 0, len(sites)+1)
	opts = append(opts, Option{Label: filter.AllLabel, Value: string(filter.All)})
	for _, s := range sites {
		opts = append(opts, Option{Label: s, Value: s})
	}
	return opts
}

// NewLayout builds the page layout for ds.
func NewLayout(ds *launch.Dataset) Layout {
	marks := make(map[string]string)
	for v := SliderMin; v <= SliderMax; v += SliderStep {
		marks[strconv.Itoa(v)] = strconv.Itoa(v)
	}

	bounds := ds.Payload()
	return Layout{
		Title: "SpaceX Launch Records Dashboard",
		Dropdown: Dropdown{
			ID:          SiteDropdown,
			Options:     SiteOptions(ds),
			Value:       string(filter.All),
			Placeholder: "Select a Launch Site here",
			Searchable:  true,
		},
		Slider: RangeSlider{
			ID:    PayloadSlider,
			Label: "Payload range (Kg):",
			Min:   SliderMin,
			Max:   SliderMax,
			Step:  SliderStep,
			Marks: marks,
			Value: [2]float64{bounds.Min, bounds.Max},
		},
		Graphs: []string{SuccessPie, PayloadScatter},
	}
}

// DefaultState is the control state before any user interaction.
func DefaultState(ds *launch.Dataset) State {
	b := ds.Payload()
	return State{
		Site:    filter.All,
		Payload: filter.PayloadRange{Low: b.Min, High: b.Max},
	}
}
