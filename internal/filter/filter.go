// Package filter selects launch records by site and payload mass.
package filter

import (
	"strconv"

	"github.com/star/launchdash/internal/launch"
)

// Selection is either All or a single launch site identifier.
type Selection string

// All matches every launch site.
const All Selection = "ALL"

// AllLabel is the display label for All.
const AllLabel = "All Sites"

// IsAll reports whether s matches every site.
func (s Selection) IsAll() bool {
	return s == All
}

// Label returns the human-readable name of the selection.
func (s Selection) Label() string {
	if s.IsAll() {
		return AllLabel
	}
	return string(s)
}

// Matches reports whether site satisfies the selection.
func (s Selection) Matches(site string) bool {
	return s.IsAll() || string(s) == site
}

// PayloadRange is a closed payload interval in kilograms. Low <= High is
// expected but not checked.
type PayloadRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether kg lies in the range, bounds inclusive.
func (r PayloadRange) Contains(kg float64) bool {
	return kg >= r.Low && kg <= r.High
}

// String formats the range as "<low>kg - <high>kg".
func (r PayloadRange) String() string {
	return formatKg(r.Low) + "kg - " + formatKg(r.High) + "kg"
}

func formatKg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Apply returns the records matching both the selection and the payload range,
// in dataset order. The result may be empty.
func Apply(ds *launch.Dataset, sel Selection, rng PayloadRange) []launch.Record {
	out := make([]launch.Record, 0)
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		if sel.Matches(r.Site) && rng.Contains(r.PayloadKg) {
			out = append(out, r)
		}
	}
	return out
}

// BySite returns the records for the selection, ignoring payload.
func BySite(ds *launch.Dataset, sel Selection) []launch.Record {
	out := make([]launch.Record, 0)
	for i := 0; i < ds.Len(); i++ {
		if r := ds.At(i); sel.Matches(r.Site) {
			out = append(out, r)
		}
	}
	return out
}
