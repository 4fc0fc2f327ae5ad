package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// Observation is one measured report value of a species on a date.
type Observation struct {
	Date    time.Time
	Species string
	Field   string // report field ID, e.g. shoot_dm
	Value   float64
}

// observationCSV is the on-disk row layout.
type observationCSV struct {
	Date    string  `csv:"date"`
	Species string  `csv:"species"`
	Field   string  `csv:"field"`
	Value   float64 `csv:"value"`
}

// ReadObservations parses observations from CSV and checks them against the
// run in cfg: each must name a sown species and a report field, and fall
// on or after the start date.
func ReadObservations(r io.Reader, cfg *config.Config) ([]Observation, error) {
	var rows []*observationCSV
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading observations: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no observations")
	}
	obs := make([]Observation, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse(config.DateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("observation row %d: %w", i+1, err)
		}
		if date.Before(cfg.Derived.StartDate) {
			return nil, fmt.Errorf("observation row %d: %s is before the start date", i+1, row.Date)
		}
		if !slices.Contains(cfg.Sward.Sow, row.Species) {
			return nil, fmt.Errorf("observation row %d: species %q is not sown", i+1, row.Species)
		}
		if _, ok := components.FieldByID(row.Field); !ok {
			return nil, fmt.Errorf("observation row %d: unknown field %q", i+1, row.Field)
		}
		obs = append(obs, Observation{Date: date, Species: row.Species, Field: row.Field, Value: row.Value})
	}
	return obs, nil
}

// ReadObservationsFile parses an observation file.
func ReadObservationsFile(path string, cfg *config.Config) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening observations: %w", err)
	}
	defer f.Close()
	return ReadObservations(f, cfg)
}

// lastDate returns the latest observation date.
func lastDate(obs []Observation) time.Time {
	last := obs[0].Date
	for _, o := range obs[1:] {
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return last
}
