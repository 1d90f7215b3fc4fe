package charts

import (
	"sort"

	"github.com/star/launchdash/internal/filter"
	"github.com/star/launchdash/internal/launch"
)

// BuildOutcomePie builds the launch outcome pie chart.
//
// For All it sums the outcome flag per site over the whole dataset, which is
// the success count per site. For a single site it counts each outcome present
// among that site's records. The payload range never applies here.
func BuildOutcomePie(ds *launch.Dataset, sel filter.Selection) Description {
	if sel.IsAll() {
		return successBySite(ds)
	}
	return outcomesForSite(ds, sel)
}

func successBySite(ds *launch.Dataset) Description {
	sites := ds.Sites()
	totals := make(map[string]float64, len(sites))
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		totals[r.Site] += float64(r.Outcome)
	}

	slices := make([]Slice, 0, len(sites))
	for i, site := range sites {
		slices = append(slices, Slice{
			Key:   site,
			Label: site,
			Value: totals[site],
			Color: PaletteColor(i),
		})
	}

	return Description{
		Kind:   KindPie,
		Title:  "Total Successful Launches By Site (All Sites)",
		Slices: slices,
	}
}

func outcomesForSite(ds *launch.Dataset, sel filter.Selection) Description {
	counts := map[launch.Outcome]float64{}
	for _, r := range filter.BySite(ds, sel) {
		counts[r.Outcome]++
	}

	slices := make([]Slice, 0, len(counts))
	for _, o := range []launch.Outcome{launch.Success, launch.Failure} {
		if counts[o] == 0 {
			continue
		}
		slices = append(slices, outcomeSlice(o, counts[o]))
	}
	// Largest first; the stable sort keeps success ahead on ties.
	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Value > slices[j].Value
	})

	return Description{
		Kind:   KindPie,
		Title:  "Launch Outcomes for Site: " + sel.Label(),
		Slices: slices,
	}
}

func outcomeSlice(o launch.Outcome, count float64) Slice {
	s := Slice{Value: count}
	if o == launch.Success {
		s.Key, s.Label, s.Color = "1", "Success", ColorSuccess
	} else {
		s.Key, s.Label, s.Color = "0", "Failure", ColorFailure
	}
	return s
}
