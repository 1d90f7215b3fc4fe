// Package dashboard wires the dashboard controls to the chart builders.
//
// Each chart is produced by a Binding: a declared set of input controls, one
// output component and a pure compute function. Bindings are plain values
// built by New and owned by the App; nothing is registered globally.
package dashboard

import (
	"slices"

	"github.com/star/launchdash/internal/charts"
	"github.com/star/launchdash/internal/filter"
	"github.com/star/launchdash/internal/launch"
	"github.com/star/launchdash/internal/metrics"
)

// State holds the current control values.
type State struct {
	Site    filter.Selection
	Payload filter.PayloadRange
}

// Binding maps control values to one chart.
type Binding struct {
	Output  string
	Inputs  []string
	Compute func(ds *launch.Dataset, st State) charts.Description
}

// DependsOn reports whether any of changed is an input of b.
func (b Binding) DependsOn(changed []string) bool {
	for _, c := range changed {
		if slices.Contains(b.Inputs, c) {
			return true
		}
	}
	return false
}

// Output is the recomputed figure for one component.
type Output struct {
	Component string             `json:"component"`
	Figure    charts.Description `json:"figure"`
}

// App is the composition root of the dashboard: the dataset, the layout and
// the bindings, all fixed at construction.
type App struct {
	dataset  *launch.Dataset
	layout   Layout
	bindings []Binding
}

// New builds the dashboard for ds.
func New(ds *launch.Dataset) *App {
	return &App{
		dataset: ds,
		layout:  NewLayout(ds),
		bindings: []Binding{
			{
				Output:  SuccessPie,
				Inputs:  []string{SiteDropdown},
				Compute: pieBinding,
			},
			{
				Output:  PayloadScatter,
				Inputs:  []string{SiteDropdown, PayloadSlider},
				Compute: scatterBinding,
			},
		},
	}
}

func pieBinding(ds *launch.Dataset, st State) charts.Description {
	return charts.BuildOutcomePie(ds, st.Site)
}

func scatterBinding(ds *launch.Dataset, st State) charts.Description {
	d := charts.BuildPayloadScatter(ds, st.Site, st.Payload)
	metrics.ObserveFilterMatches(d.PointCount())
	return d
}

// Dataset returns the dataset the dashboard was built for.
func (a *App) Dataset() *launch.Dataset {
	return a.dataset
}

// Layout returns the page layout.
func (a *App) Layout() Layout {
	return a.layout
}

// Bindings returns a copy of the declared bindings.
func (a *App) Bindings() []Binding {
	return slices.Clone(a.bindings)
}

// Binding returns the binding that produces component.
func (a *App) Binding(component string) (Binding, bool) {
	for _, b := range a.bindings {
		if b.Output == component {
			return b, true
		}
	}
	return Binding{}, false
}

// Update recomputes every binding that depends on a changed control. An empty
// changed list recomputes all bindings, as on first page load.
func (a *App) Update(changed []string, st State) []Output {
	outputs := make([]Output, 0, len(a.bindings))
	for _, b := range a.bindings {
		if len(changed) > 0 && !b.DependsOn(changed) {
			continue
		}
		outputs = append(outputs, Output{
			Component: b.Output,
			Figure:    b.Compute(a.dataset, st),
		})
		metrics.IncBindingInvocations(b.Output)
	}
	return outputs
}

// Compute runs the binding for component alone.
func (a *App) Compute(component string, st State) (charts.Description, bool) {
	b, ok := a.Binding(component)
	if !ok {
		return charts.Description{}, false
	}
	metrics.IncBindingInvocations(b.Output)
	return b.Compute(a.dataset, st), true
}
