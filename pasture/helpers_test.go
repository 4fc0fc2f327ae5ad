package pasture

import (
	"testing"
	"time"

	"github.com/pthm-cable/sward/config"
)

func init() {
	config.MustInit("")
}

// ---------- test collaborators ----------

type fixedClock struct{ t time.Time }

func (c *fixedClock) Today() time.Time { return c.t }

func (c *fixedClock) advance() { c.t = c.t.AddDate(0, 0, 1) }

type fixedWeather struct {
	maxT, minT, co2, vp, dayLength float64
}

func (w *fixedWeather) MaxT() float64             { return w.maxT }
func (w *fixedWeather) MinT() float64             { return w.minT }
func (w *fixedWeather) CO2() float64              { return w.co2 }
func (w *fixedWeather) VP() float64               { return w.vp }
func (w *fixedWeather) DayLength(float64) float64 { return w.dayLength }

// testSoil is a layered soil that records uptake and organic matter
// returns.
type testSoil struct {
	thickness, water, ll15, dul, sat, ksat, nh4, no3 []float64
	crops                                            map[string]SoilCrop

	surfaceDM, surfaceN float64
	fomDM, fomN         float64
}

func newTestSoil(species ...string) *testSoil {
	th := []float64{100, 200, 300, 400}
	s := &testSoil{thickness: th, crops: map[string]SoilCrop{}}
	for _, t := range th {
		s.water = append(s.water, 0.28*t)
		s.ll15 = append(s.ll15, 0.12*t)
		s.dul = append(s.dul, 0.32*t)
		s.sat = append(s.sat, 0.45*t)
		s.ksat = append(s.ksat, 500)
		s.nh4 = append(s.nh4, 5)
		s.no3 = append(s.no3, 20)
	}
	for _, name := range species {
		s.crops[name] = SoilCrop{
			LL: []float64{0.12, 0.12, 0.12, 0.12},
			KL: []float64{0.08, 0.06, 0.04, 0.02},
		}
	}
	return s
}

func (s *testSoil) Thickness() []float64 { return s.thickness }
func (s *testSoil) Water() []float64     { return s.water }
func (s *testSoil) LL15() []float64      { return s.ll15 }
func (s *testSoil) DUL() []float64       { return s.dul }
func (s *testSoil) SAT() []float64       { return s.sat }
func (s *testSoil) KSat() []float64      { return s.ksat }
func (s *testSoil) NH4() []float64       { return s.nh4 }
func (s *testSoil) NO3() []float64       { return s.no3 }

func (s *testSoil) Crop(name string) (SoilCrop, bool) {
	c, ok := s.crops[name]
	return c, ok
}

func (s *testSoil) ApplyWaterDelta(delta []float64) {
	for i, d := range delta {
		s.water[i] += d
	}
}

func (s *testSoil) ApplyNDelta(dNH4, dNO3 []float64) {
	for i := range dNH4 {
		s.nh4[i] += dNH4[i]
		s.no3[i] += dNO3[i]
	}
}

func (s *testSoil) AddSurfaceResidue(_ string, dm, n float64) {
	s.surfaceDM += dm
	s.surfaceN += n
}

func (s *testSoil) IncorporateFOM(_ string, dm, n []float64) {
	for i := range dm {
		s.fomDM += dm[i]
		s.fomN += n[i]
	}
}

// fixedArbitrator hands out preset uptake amounts.
type fixedArbitrator struct {
	water    []float64
	nh4, no3 []float64
}

func (a *fixedArbitrator) WaterUptake(string) ([]float64, bool) {
	return a.water, a.water != nil
}

func (a *fixedArbitrator) NUptake(string) ([]float64, []float64, bool) {
	return a.nh4, a.no3, a.nh4 != nil
}

// ---------- fixture ----------

type fixture struct {
	sp    *Species
	soil  *testSoil
	clock *fixedClock
	met   *fixedWeather
}

func speciesConfig(t *testing.T, name string) config.SpeciesConfig {
	t.Helper()
	cfg, ok := config.Cfg().SpeciesByName(name)
	if !ok {
		t.Fatalf("species %q missing from defaults", name)
	}
	return cfg
}

// newFixture builds a species growing alone on a mild spring day.
func newFixture(t *testing.T, cfg config.SpeciesConfig) *fixture {
	t.Helper()
	f := &fixture{
		soil:  newTestSoil(cfg.Name),
		clock: &fixedClock{t: time.Date(2001, 10, 1, 0, 0, 0, 0, time.UTC)},
		met:   &fixedWeather{maxT: 20, minT: 10, co2: cfg.ReferenceCO2, vp: 12, dayLength: 12},
	}
	sp, err := New(cfg, Options{
		Soil:          f.soil,
		Weather:       f.met,
		Clock:         f.clock,
		OrganicMatter: f.soil,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.sp = sp
	return f
}

// day runs one full daily cycle with the given intercepted radiation and
// water demand.
func (f *fixture) day(t *testing.T, radn, demand float64) {
	t.Helper()
	f.sp.DailyInit()
	f.sp.SetLightProfile([]float64{radn})
	f.sp.SetPotentialEP(demand)
	if err := f.sp.Grow(); err != nil {
		t.Fatalf("Grow on %s: %v", f.clock.Today().Format(config.DateLayout), err)
	}
	f.clock.advance()
}
