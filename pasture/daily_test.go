package pasture

import (
	"math"
	"testing"
)

// ---------- zero growth day ----------

func TestGrow_ZeroGrowthDay(t *testing.T) {
	f := newFixture(t, speciesConfig(t, "ryegrass"))
	before := f.sp.State()

	f.day(t, 0, 0)

	d := f.sp.Today()
	if d.GrowthActual != 0 {
		t.Fatalf("growth in the dark = %v, want 0", d.GrowthActual)
	}
	if d.PartitionDM != (Partition{}) {
		t.Errorf("partition set on a zero growth day: %+v", d.PartitionDM)
	}

	g := d.Turnover.Live
	gR := d.Turnover.Root
	if g <= 0 || gR <= 0 {
		t.Fatalf("turnover rates = %+v, want positive", d.Turnover)
	}
	after := f.sp.State()

	tests := []struct {
		name      string
		got, want float64
	}{
		{"dmLeaf1", after.DMLeaf[0], before.DMLeaf[0] * (1 - 2*g)},
		{"dmLeaf2", after.DMLeaf[1], before.DMLeaf[1] + 2*g*before.DMLeaf[0] - g*before.DMLeaf[1]},
		{"dmStem1", after.DMStem[0], before.DMStem[0] * (1 - 2*g)},
		{"nLeaf1", after.NLeaf[0], before.NLeaf[0] * (1 - 2*g)},
		{"dmRoot", after.DMRoot, before.DMRoot * (1 - gR)},
		{"nRoot", after.NRoot, before.NRoot * (1 - gR)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9 {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	if d.Litter <= 0 {
		t.Errorf("litter = %v, want > 0", d.Litter)
	}
	if math.Abs(f.soil.surfaceDM-d.Litter) > 1e-9 {
		t.Errorf("surface residue %v, litter %v", f.soil.surfaceDM, d.Litter)
	}
	if math.Abs(f.soil.fomDM-d.RootSenesced) > 1e-9 {
		t.Errorf("root FOM %v, senesced %v", f.soil.fomDM, d.RootSenesced)
	}
}

// ---------- multi-day run ----------

func TestGrow_DailyInvariants(t *testing.T) {
	for _, name := range []string{"ryegrass", "whiteclover", "plantain"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, speciesConfig(t, name))
			coef := f.sp.Params().WaterLoggingCoefficient
			grew := false

			for day := 0; day < 30; day++ {
				prev := f.sp.State()
				f.day(t, 12, 2.5)
				st := f.sp.State()
				d := f.sp.Today()

				if diff := st.GreenDM() + st.DeadDM() - st.ShootDM(); math.Abs(diff) > 1e-6 {
					t.Fatalf("day %d: green + dead - shoot = %v", day, diff)
				}
				if pool, v, neg := st.Negative(); neg {
					t.Fatalf("day %d: negative pool %s = %v", day, pool, v)
				}

				if d.GrowthActual > 0 {
					grew = true
					if s := d.PartitionDM.Sum(); math.Abs(s-1) > 1e-6 {
						t.Errorf("day %d: DM partition sums to %v", day, s)
					}
					if s := d.PartitionN.Sum(); math.Abs(s-1) > 1e-6 {
						t.Errorf("day %d: N partition sums to %v", day, s)
					}
				} else if st.DMLeaf[0] > prev.DMLeaf[0]+1e-9 {
					t.Errorf("day %d: stage 1 leaf grew without growth", day)
				}

				r := d.Turnover
				if r.Live < 0 || r.Stolon < 0 || r.Dead < 0 || r.Root < 0 {
					t.Errorf("day %d: negative turnover rate %+v", day, r)
				}
				if d.Litter < 0 || d.NLitter < 0 || d.RootSenesced < 0 || d.NRootSenesced < 0 {
					t.Errorf("day %d: negative senescence flux: litter %v/%v roots %v/%v",
						day, d.Litter, d.NLitter, d.RootSenesced, d.NRootSenesced)
				}

				for _, glf := range []struct {
					name string
					v    float64
				}{
					{"temp", d.GLFTemp}, {"radn", d.GLFRadn}, {"nconc", d.GLFNConc},
					{"water", d.GLFWater}, {"deficit", d.GLFWaterDeficit}, {"N", d.GLFN},
					{"heat", d.HeatEffect}, {"cold", d.ColdEffect},
				} {
					if glf.v < 0 || glf.v > 1 {
						t.Errorf("day %d: GLF %s = %v outside [0,1]", day, glf.name, glf.v)
					}
				}
				if d.GLFWaterLogging < 1-coef-1e-12 || d.GLFWaterLogging > 1 {
					t.Errorf("day %d: waterlogging factor %v outside [%v,1]", day, d.GLFWaterLogging, 1-coef)
				}
				if d.WaterUptake > d.WaterDemand+1e-9 {
					t.Errorf("day %d: uptake %v above demand %v", day, d.WaterUptake, d.WaterDemand)
				}
			}
			if !grew {
				t.Error("no growth in 30 days of spring weather")
			}
		})
	}
}

func TestGrow_MinimumGreenHeld(t *testing.T) {
	cfg := speciesConfig(t, "ryegrass")
	f := newFixture(t, cfg)
	if err := f.sp.Graze(SetResidueAmount, 0); err != nil {
		t.Fatalf("Graze: %v", err)
	}
	// no light: turnover alone cannot take the sward below the floor
	for day := 0; day < 20; day++ {
		f.day(t, 0, 0)
		if got := f.sp.State().GreenDM(); got < cfg.MinimumGreenWt-1e-6 {
			t.Fatalf("day %d: green DM %v below minimum %v", day, got, cfg.MinimumGreenWt)
		}
	}
}

func TestGrow_StagedCallsMatchGrow(t *testing.T) {
	a := newFixture(t, speciesConfig(t, "ryegrass"))
	b := newFixture(t, speciesConfig(t, "ryegrass"))

	a.day(t, 12, 2)

	b.sp.DailyInit()
	b.sp.SetLightProfile([]float64{7, 5})
	b.sp.SetPotentialEP(2)
	if err := b.sp.PotentialGrowth(); err != nil {
		t.Fatal(err)
	}
	if err := b.sp.WaterLimitedGrowth(); err != nil {
		t.Fatal(err)
	}
	if err := b.sp.ActualGrowth(); err != nil {
		t.Fatal(err)
	}

	if a.sp.State() != b.sp.State() {
		t.Errorf("staged run diverged:\n%+v\n%+v", a.sp.State(), b.sp.State())
	}
}

func TestSeasonalShootFactor(t *testing.T) {
	periods := []int{30, 60, 30}
	tests := []struct {
		name     string
		doy      int
		doyStart int
		want     float64
	}{
		{"before window", 200, 232, 1},
		{"rising", 247, 232, 1.4},
		{"plateau", 300, 232, 1.8},
		{"falling", 337, 232, 1.4},
		{"after window", 360, 232, 1},
		{"wrapped plateau", 15, 300, 1.8},
		{"wrapped decline", 40, 300, 1.4},
		{"past wrapped window", 100, 300, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seasonalShootFactor(tt.doy, tt.doyStart, periods, 0.8)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("seasonalShootFactor(%d) = %v, want %v", tt.doy, got, tt.want)
			}
		})
	}
}
