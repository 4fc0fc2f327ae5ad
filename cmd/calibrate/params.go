package main

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/sward/config"
)

// ParamSpec defines a single calibrated species parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	field func(sp *config.SpeciesConfig) *float64
}

// ParamVector holds the calibrated parameters of one species.
type ParamVector struct {
	Species string
	Specs   []ParamSpec
}

// NewParamVector creates the standard set of calibrated parameters for the
// named species.
func NewParamVector(species string) *ParamVector {
	return &ParamVector{
		Species: species,
		Specs: []ParamSpec{
			// Photosynthesis
			{Name: "pmax", Path: "reference_photosynthesis_rate", Min: 0.5, Max: 1.6,
				field: func(sp *config.SpeciesConfig) *float64 { return &sp.ReferencePhotosynthesisRate }},
			{Name: "growth_topt", Path: "growth_topt", Min: 14, Max: 26,
				field: func(sp *config.SpeciesConfig) *float64 { return &sp.GrowthTopt }},
			{Name: "sla", Path: "specific_leaf_area", Min: 12, Max: 35,
				field: func(sp *config.SpeciesConfig) *float64 { return &sp.SpecificLeafArea }},
			// Allocation (frac_to_leaf stays below 1 - frac_to_stolon for legumes)
			{Name: "max_root_alloc", Path: "max_root_allocation", Min: 0.05, Max: 0.5,
				field: func(sp *config.SpeciesConfig) *float64 { return &sp.MaxRootAllocation }},
			{Name: "frac_to_leaf", Path: "frac_to_leaf", Min: 0.4, Max: 0.7,
				field: func(sp *config.SpeciesConfig) *float64 { return &sp.FracToLeaf }},
			// Turnover
			{Name: "live_to_dead", Path: "turnover_live_to_dead", Min: 0.01, Max: 0.06,
				field: func(sp *config.SpeciesConfig) *float64 { return &sp.TurnoverLiveToDead }},
			{Name: "dead_to_litter", Path: "turnover_dead_to_litter", Min: 0.03, Max: 0.25,
				field: func(sp *config.SpeciesConfig) *float64 { return &sp.TurnoverDeadToLitter }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = max(spec.Min, min(spec.Max, v[i]))
	}
	return clamped
}

// speciesIndex finds the calibrated species in cfg.
func (pv *ParamVector) speciesIndex(cfg *config.Config) (int, error) {
	for i := range cfg.Species {
		if strings.EqualFold(cfg.Species[i].Name, pv.Species) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("species %q not in config", pv.Species)
}

// ApplyToConfig sets the clamped parameter values on the species. The
// species list is copied first, so configs sharing it are unchanged.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	i, err := pv.speciesIndex(cfg)
	if err != nil {
		return err
	}
	cfg.Species = append([]config.SpeciesConfig(nil), cfg.Species...)
	sp := &cfg.Species[i]
	for j, v := range pv.Clamp(values) {
		*pv.Specs[j].field(sp) = v
	}
	return nil
}

// ExtractFromConfig returns the current parameter values of the species.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) ([]float64, error) {
	i, err := pv.speciesIndex(cfg)
	if err != nil {
		return nil, err
	}
	v := make([]float64, len(pv.Specs))
	for j, spec := range pv.Specs {
		v[j] = *spec.field(&cfg.Species[i])
	}
	return v, nil
}
