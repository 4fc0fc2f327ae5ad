package main

import (
	"io"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sward"
)

func init() {
	config.MustInit("")
	sward.SetLogWriter(io.Discard)
}

func testConfig(days int) *config.Config {
	cfg := *config.Cfg()
	cfg.Simulation.Days = days
	cfg.Weather.File = ""
	return &cfg
}

// ---------- parameters ----------

func TestParamVector_Normalize(t *testing.T) {
	pv := NewParamVector("ryegrass")
	raw, err := pv.ExtractFromConfig(config.Cfg())
	if err != nil {
		t.Fatalf("ExtractFromConfig: %v", err)
	}
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}

	low := make([]float64, pv.Dim())
	for i, v := range pv.Clamp(low) {
		if v != pv.Specs[i].Min {
			t.Errorf("%s clamped to %v, want %v", pv.Specs[i].Name, v, pv.Specs[i].Min)
		}
	}
}

func TestParamVector_ApplyToConfig(t *testing.T) {
	base := testConfig(10)
	pv := NewParamVector("ryegrass")
	before, _ := pv.ExtractFromConfig(base)

	cfg := *base
	values := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		values[i] = spec.Max
	}
	if err := pv.ApplyToConfig(&cfg, values); err != nil {
		t.Fatalf("ApplyToConfig: %v", err)
	}
	got, _ := pv.ExtractFromConfig(&cfg)
	for i, spec := range pv.Specs {
		if got[i] != spec.Max {
			t.Errorf("%s = %v, want %v", spec.Name, got[i], spec.Max)
		}
	}

	after, _ := pv.ExtractFromConfig(base)
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("base config %s changed", pv.Specs[i].Name)
		}
	}

	if err := NewParamVector("lucerne").ApplyToConfig(&cfg, values); err == nil {
		t.Error("expected error for an unknown species")
	}
}

// ---------- observations ----------

func TestReadObservations(t *testing.T) {
	cfg := testConfig(60)
	obs, err := ReadObservations(strings.NewReader(
		"date,species,field,value\n2000-07-20,ryegrass,shoot_dm,2100\n2000-08-10,whiteclover,green_dm,450\n"), cfg)
	if err != nil {
		t.Fatalf("ReadObservations: %v", err)
	}
	if len(obs) != 2 || obs[1].Species != "whiteclover" || obs[1].Value != 450 {
		t.Errorf("observations = %+v", obs)
	}
	if got := lastDate(obs); got.Month() != 8 || got.Day() != 10 {
		t.Errorf("lastDate = %v", got)
	}
}

func TestReadObservations_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"before start", "2000-06-01,ryegrass,shoot_dm,2000"},
		{"unsown species", "2000-07-20,plantain,shoot_dm,2000"},
		{"unknown field", "2000-07-20,ryegrass,yield,2000"},
		{"bad date", "20/07/2000,ryegrass,shoot_dm,2000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadObservations(strings.NewReader("date,species,field,value\n"+tt.row+"\n"), testConfig(60))
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

// ---------- fitness ----------

func TestEvaluate_FitsOwnOutput(t *testing.T) {
	cfg := testConfig(60)
	pv := NewParamVector("ryegrass")
	defaults, err := pv.ExtractFromConfig(cfg)
	if err != nil {
		t.Fatalf("ExtractFromConfig: %v", err)
	}

	// observations taken from a run with the configured parameters; fe shares
	// the slice, so filling in the values below reaches it
	obs := []Observation{
		{Date: cfg.Derived.StartDate.AddDate(0, 0, 19), Species: "ryegrass", Field: "shoot_dm"},
		{Date: cfg.Derived.StartDate.AddDate(0, 0, 39), Species: "ryegrass", Field: "shoot_dm"},
		{Date: cfg.Derived.StartDate.AddDate(0, 0, 59), Species: "ryegrass", Field: "lai_green"},
	}
	fe := NewFitnessEvaluator(pv, cfg, obs)
	sim, err := fe.Simulate(defaults)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	for i, row := range fitRows(obs, sim) {
		if math.IsNaN(row.Simulated) {
			t.Fatalf("no simulated value for %+v", obs[i])
		}
		obs[i].Value = row.Simulated
	}

	if f := fe.Evaluate(defaults); f > 1e-9 {
		t.Errorf("fitness of the generating parameters = %v, want 0", f)
	}

	worse := append([]float64(nil), defaults...)
	worse[0] *= 0.6 // lower photosynthesis
	if f := fe.Evaluate(worse); f <= 1e-3 {
		t.Errorf("fitness of perturbed parameters = %v, want > 0", f)
	}
	if err := fe.LastError(); err != nil {
		t.Errorf("LastError = %v", err)
	}
}

func TestScore_MissingSimulation(t *testing.T) {
	cfg := testConfig(60)
	obs := []Observation{{Date: cfg.Derived.StartDate, Species: "ryegrass", Field: "shoot_dm", Value: 1}}
	if got := Score(obs, nil); got != failedFitness {
		t.Errorf("Score = %v, want %v", got, failedFitness)
	}
}
