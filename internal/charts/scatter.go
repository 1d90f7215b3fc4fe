package charts

import (
	"github.com/star/launchdash/internal/filter"
	"github.com/star/launchdash/internal/launch"
)

// BuildPayloadScatter plots payload mass against outcome for the records that
// match both the site selection and the payload range. Points are grouped into
// one series per booster version.
func BuildPayloadScatter(ds *launch.Dataset, sel filter.Selection, rng filter.PayloadRange) Description {
	records := filter.Apply(ds, sel, rng)

	index := make(map[string]int)
	series := make([]Series, 0)
	for _, r := range records {
		i, ok := index[r.BoosterVersion]
		if !ok {
			i = len(series)
			index[r.BoosterVersion] = i
			series = append(series, Series{
				Name:  r.BoosterVersion,
				Color: PaletteColor(i),
			})
		}
		series[i].Points = append(series[i].Points, Point{
			X:     r.PayloadKg,
			Y:     float64(r.Outcome),
			Hover: map[string]string{"Booster Version": r.BoosterVersion},
		})
	}

	return Description{
		Kind:   KindScatter,
		Title:  "Payload vs. Launch Outcome for Site: " + sel.Label() + " (Payload Range: " + rng.String() + ")",
		XLabel: "Payload Mass (kg)",
		YLabel: "Launch Outcome (1=Success, 0=Failure)",
		XRange: &Range{Min: rng.Low, Max: rng.High},
		YRange: &Range{Min: -0.1, Max: 1.1},
		Series: series,
	}
}
