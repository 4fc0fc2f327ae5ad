package pasture

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// ---------- stage transfer ----------

func TestStageTransfer_MovesForward(t *testing.T) {
	tests := []struct {
		name string
		dm   []float64
		g    float64
	}{
		{"slow", []float64{300, 500, 500}, 0.05},
		{"fast", []float64{300, 500, 500}, 0.3},
		{"stage 1 clamped", []float64{300, 500, 500}, 0.6},
		{"empty stage 1", []float64{0, 500, 500}, 0.2},
		{"empty stage 2", []float64{300, 0, 500}, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prevN := []float64{tt.dm[0] * 0.04, tt.dm[1] * 0.035, tt.dm[2] * 0.03}
			dm := append([]float64(nil), tt.dm...)
			n := append([]float64(nil), prevN...)

			out, outN := stageTransfer(dm, n, tt.dm, prevN, tt.g)

			if want := tt.g * tt.dm[2]; math.Abs(out-want) > 1e-12 {
				t.Errorf("DM out of stage 3 = %v, want %v", out, want)
			}
			sumDM, sumPrev, sumN, sumPrevN := 0.0, 0.0, 0.0, 0.0
			for k := 0; k < 3; k++ {
				// Cumulative mass up to stage k can only fall: nothing moves backwards
				sumDM += dm[k]
				sumPrev += tt.dm[k]
				if sumDM > sumPrev+1e-9 {
					t.Errorf("stages 1-%d hold %v, held %v", k+1, sumDM, sumPrev)
				}
				rate := tt.g
				if k == 0 {
					rate = math.Min(2*tt.g, 1)
				}
				if dm[k] < tt.dm[k]*(1-rate)-1e-9 {
					t.Errorf("stage %d lost more than its own turnover: %v -> %v", k+1, tt.dm[k], dm[k])
				}
				if k > 0 && tt.dm[k-1] == 0 && dm[k] > tt.dm[k]+1e-9 {
					t.Errorf("stage %d grew from an empty stage %d: %v -> %v", k+1, k, tt.dm[k], dm[k])
				}
				sumN += n[k]
				sumPrevN += prevN[k]
			}
			if math.Abs(sumDM+out-sumPrev) > 1e-9 {
				t.Errorf("DM not conserved: %v + %v out, want %v", sumDM, out, sumPrev)
			}
			if math.Abs(sumN+outN-sumPrevN) > 1e-9 {
				t.Errorf("N not conserved: %v + %v out, want %v", sumN, outN, sumPrevN)
			}
		})
	}
}

func TestGrow_TurnoverMovesForward(t *testing.T) {
	for _, name := range []string{"ryegrass", "whiteclover"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, speciesConfig(t, name))
			for day := 0; day < 10; day++ {
				before := f.sp.State()
				f.day(t, 0, 0)
				if g := f.sp.Today().GrowthActual; g != 0 {
					t.Fatalf("day %d: growth in the dark = %v", day, g)
				}
				after := f.sp.State()

				for _, tissue := range []struct {
					name          string
					before, after []float64
				}{
					{"leaf", before.DMLeaf[:], after.DMLeaf[:]},
					{"stem", before.DMStem[:], after.DMStem[:]},
					{"stolon", before.DMStolon[:], after.DMStolon[:]},
				} {
					sumB, sumA := 0.0, 0.0
					for k := range tissue.before {
						sumB += tissue.before[k]
						sumA += tissue.after[k]
						if sumA > sumB+1e-9 {
							t.Errorf("day %d: %s stages 1-%d rose from %v to %v", day, tissue.name, k+1, sumB, sumA)
						}
					}
				}
			}
		})
	}
}

// ---------- minimum green ----------

func TestLimitToMinimumGreen(t *testing.T) {
	base := TurnoverRates{Live: 0.1, Stolon: 0.2, Dead: 0.05, Root: 0.02}
	tests := []struct {
		name  string
		floor func(before, loss float64) float64
		scale float64
	}{
		{"floor not reached", func(b, l float64) float64 { return b - 2*l }, 1},
		{"floor binds", func(b, l float64) float64 { return b - l/2 }, 0.5},
		{"floor binds hard", func(b, l float64) float64 { return b - l/10 }, 0.1},
		{"already below floor", func(b, l float64) float64 { return b + 1 }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, speciesConfig(t, "whiteclover"))
			s := f.sp
			s.DailyInit()
			s.saveState()
			prev := s.prev
			loss := base.Live*(prev.DMLeaf[2]+prev.DMStem[2]) + base.Stolon*prev.DMStolon[2]
			before := prev.GreenDM()
			if loss <= 0 {
				t.Fatalf("no stage 3 tissue to turn over")
			}
			s.p.MinimumGreenWt = tt.floor(before, loss)

			r := s.limitToMinimumGreen(base)

			want := TurnoverRates{
				Live:   base.Live * tt.scale,
				Stolon: base.Stolon * tt.scale,
				Dead:   base.Dead * tt.scale,
				Root:   base.Root * tt.scale,
			}
			if math.Abs(r.Live-want.Live) > 1e-12 || math.Abs(r.Stolon-want.Stolon) > 1e-12 ||
				math.Abs(r.Dead-want.Dead) > 1e-12 || math.Abs(r.Root-want.Root) > 1e-12 {
				t.Errorf("rates = %+v, want %+v", r, want)
			}
			if tt.scale > 0 && tt.scale < 1 {
				got := before - r.Live*(prev.DMLeaf[2]+prev.DMStem[2]) - r.Stolon*prev.DMStolon[2]
				if math.Abs(got-s.p.MinimumGreenWt) > 1e-9 {
					t.Errorf("green after turnover = %v, want the floor %v", got, s.p.MinimumGreenWt)
				}
			}
		})
	}
}

func TestGrow_MinimumGreenHitExactly(t *testing.T) {
	cfg := speciesConfig(t, "ryegrass")

	// unconstrained day for reference
	free := newFixture(t, cfg)
	green0 := free.sp.State().GreenDM()
	free.day(t, 0, 0)
	loss := green0 - free.sp.State().GreenDM()
	rFree := free.sp.Today().Turnover
	if loss <= 0 {
		t.Fatalf("green DM did not fall in the dark: loss %v", loss)
	}

	cfg.MinimumGreenWt = green0 - loss/2
	f := newFixture(t, cfg)
	f.day(t, 0, 0)

	if got := f.sp.State().GreenDM(); math.Abs(got-cfg.MinimumGreenWt) > 1e-9 {
		t.Errorf("green DM = %v, want exactly the floor %v", got, cfg.MinimumGreenWt)
	}
	if r := f.sp.Today().Turnover; math.Abs(r.Live-rFree.Live/2) > 1e-12 {
		t.Errorf("live turnover = %v, want half of %v", r.Live, rFree.Live)
	}
}

// ---------- defoliation ----------

func TestTurnover_DefoliationSpeedsStolons(t *testing.T) {
	tests := []struct {
		name   string
		remove float64 // fraction of harvestable DM
	}{
		{"ungrazed", 0},
		{"light graze", 0.2},
		{"hard graze", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, speciesConfig(t, "whiteclover"))
			f.sp.DailyInit()
			if err := f.sp.RemoveDM(tt.remove * f.sp.HarvestableWt()); err != nil {
				t.Fatalf("RemoveDM: %v", err)
			}
			f.sp.SetLightProfile([]float64{12})
			f.sp.SetPotentialEP(2)
			if err := f.sp.Grow(); err != nil {
				t.Fatalf("Grow: %v", err)
			}

			d := f.sp.Today()
			r := d.Turnover
			if r.Live <= 0 {
				t.Fatalf("live turnover = %v, want > 0", r.Live)
			}
			if tt.remove == 0 {
				if r.Stolon != r.Live {
					t.Errorf("stolon turnover %v, want live rate %v without defoliation", r.Stolon, r.Live)
				}
				return
			}
			if d.Defoliated <= 0 {
				t.Fatalf("defoliated = %v after grazing", d.Defoliated)
			}
			if r.Stolon <= r.Live {
				t.Errorf("stolon turnover %v not above live %v after defoliation", r.Stolon, r.Live)
			}
		})
	}
}

// ---------- mass balance failures ----------

func TestTurnover_CRemobilisationNegative(t *testing.T) {
	cfg := speciesConfig(t, "ryegrass")
	cfg.KappaCRemob = 1.5 // more C remobilised than senesces
	f := newFixture(t, cfg)
	f.sp.DailyInit()
	f.sp.SetLightProfile([]float64{0})
	f.sp.SetPotentialEP(0)

	err := f.sp.Grow()
	var mb *MassBalanceError
	if !errors.As(err, &mb) {
		t.Fatalf("err = %v, want *MassBalanceError", err)
	}
	if !strings.HasPrefix(mb.Check, "C remobilisation") || mb.Got >= 0 {
		t.Errorf("mass balance error = %+v", mb)
	}
}
