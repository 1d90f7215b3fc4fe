package launch

import (
	"errors"
	"slices"
	"time"
)

// Outcome is the binary mission outcome flag from the "class" column.
type Outcome int

const (
	Failure Outcome = 0
	Success Outcome = 1
)

// String returns "success" or "failure".
func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// Record represents a single launch row.
type Record struct {
	FlightNumber    int
	Site            string
	PayloadKg       float64
	Outcome         Outcome
	BoosterVersion  string
	BoosterCategory string
}

// PayloadBounds represents the minimum and maximum payload mass in a dataset.
type PayloadBounds struct {
	Min float64
	Max float64
}

// Dataset is the immutable set of launch records loaded at startup.
// All accessors are safe for concurrent use; none of them mutate the dataset.
type Dataset struct {
	Source   string
	LoadedAt time.Time

	records []Record
	bounds  PayloadBounds
	sites   []string
}

// NewDataset builds a Dataset from records, caching payload bounds and the
// first-seen order of launch sites.
func NewDataset(records []Record, source string) (*Dataset, error) {
	if len(records) == 0 {
		return nil, errors.New("dataset contains no launch records")
	}

	ds := &Dataset{
		Source:   source,
		LoadedAt: time.Now().UTC(),
		records:  slices.Clone(records),
		bounds:   PayloadBounds{Min: records[0].PayloadKg, Max: records[0].PayloadKg},
	}

	seen := make(map[string]bool)
	for _, r := range ds.records {
		if r.PayloadKg < ds.bounds.Min {
			ds.bounds.Min = r.PayloadKg
		}
		if r.PayloadKg > ds.bounds.Max {
			ds.bounds.Max = r.PayloadKg
		}
		if !seen[r.Site] {
			seen[r.Site] = true
			ds.sites = append(ds.sites, r.Site)
		}
	}

	return ds, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// At returns the record at index i in load order.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of all records in load order.
func (d *Dataset) Records() []Record {
	return slices.Clone(d.records)
}

// Payload returns the observed payload bounds.
func (d *Dataset) Payload() PayloadBounds {
	return d.bounds
}

// Sites returns the distinct launch sites in first-seen order.
func (d *Dataset) Sites() []string {
	return slices.Clone(d.sites)
}
