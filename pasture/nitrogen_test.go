package pasture

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// waterLimited runs a day up to the N budget.
func (f *fixture) waterLimited(t *testing.T, radn, demand float64) {
	t.Helper()
	f.sp.DailyInit()
	f.sp.SetLightProfile([]float64{radn})
	f.sp.SetPotentialEP(demand)
	if err := f.sp.PotentialGrowth(); err != nil {
		t.Fatalf("PotentialGrowth: %v", err)
	}
	if err := f.sp.WaterLimitedGrowth(); err != nil {
		t.Fatalf("WaterLimitedGrowth: %v", err)
	}
}

func TestNBudget_Sources(t *testing.T) {
	tests := []struct {
		name    string
		species string
		fixAll  bool
		remob   float64 // remobilisable N as a multiple of luxury demand

		wantFixed, wantToGrowth, wantLeft, wantSoil float64 // multiples of luxury demand
	}{
		{"fixation covers demand", "whiteclover", true, 0.5, 1, 0, 0.5, 0},
		{"remobilisation covers the rest", "ryegrass", false, 2, 0, 1, 1, 0},
		{"remobilisation exactly covers", "ryegrass", false, 1, 0, 1, 0, 0},
		{"soil makes up the shortfall", "ryegrass", false, 0.25, 0, 0.25, 0, 0.75},
		{"soil only", "ryegrass", false, 0, 0, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := speciesConfig(t, tt.species)
			if tt.fixAll {
				cfg.MinimumNFixation = 1
			}
			f := newFixture(t, cfg)
			f.waterLimited(t, 12, 2)

			f.sp.nBudget()
			lux := f.sp.day.NDemandLux
			if lux <= 0 {
				t.Fatalf("luxury N demand = %v, want > 0", lux)
			}
			f.sp.day.NRemobilisable = tt.remob * lux
			f.sp.nBudget()

			d := f.sp.Today()
			for _, c := range []struct {
				name      string
				got, want float64
			}{
				{"fixed", d.NFixed, tt.wantFixed * lux},
				{"remobilised to growth", d.NRemobToGrowth, tt.wantToGrowth * lux},
				{"remobilisable left", d.NRemobilising, tt.wantLeft * lux},
				{"soil demand", d.SoilNDemand, tt.wantSoil * lux},
			} {
				if math.Abs(c.got-c.want) > 1e-9 {
					t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
				}
			}
			if got := d.NFixed + d.NRemobToGrowth + d.SoilNDemand; math.Abs(got-lux) > 1e-9 {
				t.Errorf("sources sum to %v, want luxury demand %v", got, lux)
			}
		})
	}
}

func TestLuxuryRemobilisation_Order(t *testing.T) {
	const lux2, lux3 = 1.0, 2.0
	tests := []struct {
		name           string
		missing        float64
		want2, want3   float64
		wantGrowthNAdd float64
	}{
		{"none missing", 0, 0, 0, 0},
		{"stage 3 alone", 0.5, 0, 0.5, 0.5},
		{"stage 3 exactly", 2, 0, 2, 2},
		{"stage 3 drained first", 2.5, 0.5, 2, 2.5},
		{"both drained", 5, 1, 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, speciesConfig(t, "ryegrass"))
			s := f.sp
			s.DailyInit()
			s.nLuxury2, s.nLuxury3 = lux2, lux3
			s.day.NDemandOpt = 10
			s.day.NewGrowthN = 10 - tt.missing

			s.luxuryRemobilisation()

			d := s.Today()
			if math.Abs(d.NFastRemob2-tt.want2) > 1e-12 || math.Abs(d.NFastRemob3-tt.want3) > 1e-12 {
				t.Errorf("remobilised stage 2 %v, stage 3 %v, want %v, %v",
					d.NFastRemob2, d.NFastRemob3, tt.want2, tt.want3)
			}
			if want := 10 - tt.missing + tt.wantGrowthNAdd; math.Abs(d.NewGrowthN-want) > 1e-12 {
				t.Errorf("N for new growth = %v, want %v", d.NewGrowthN, want)
			}
		})
	}
}

func TestNitrogen_ArbitratedExcess(t *testing.T) {
	arb := &fixedArbitrator{
		water: []float64{1, 1, 1, 0},
		nh4:   []float64{50, 0, 0, 0},
		no3:   []float64{0, 0, 0, 0},
	}
	f := newArbitratedFixture(t, arb)
	f.waterLimited(t, 12, 3)

	err := f.sp.ActualGrowth()
	var mb *MassBalanceError
	if !errors.As(err, &mb) {
		t.Fatalf("err = %v, want *MassBalanceError", err)
	}
	if mb.Check != "N uptake (more than soil demand)" || mb.Got != 50 {
		t.Errorf("mass balance error = %+v", mb)
	}
	if f.soil.nh4[0] != 5 {
		t.Errorf("soil NH4 changed to %v after a rejected uptake", f.soil.nh4[0])
	}
}

func TestNitrogen_SelfUptakeMismatch(t *testing.T) {
	f := newFixture(t, speciesConfig(t, "ryegrass"))
	// a soil reporting negative mineral N cannot supply the computed uptake
	for l := range f.soil.nh4 {
		f.soil.nh4[l], f.soil.no3[l] = -10, 0
	}
	f.waterLimited(t, 12, 2)

	err := f.sp.ActualGrowth()
	var mb *MassBalanceError
	if !errors.As(err, &mb) {
		t.Fatalf("err = %v, want *MassBalanceError", err)
	}
	if mb.Check != "N uptake" || mb.Got != 0 {
		t.Errorf("mass balance error = %+v", mb)
	}
	if got := floats.Sum(f.soil.nh4); got != -40 {
		t.Errorf("soil NH4 = %v after a rejected uptake, want -40", got)
	}
}
