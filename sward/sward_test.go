package sward

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/telemetry"
)

func init() {
	config.MustInit("")
	SetLogWriter(io.Discard)
}

// testConfig returns the default sward on synthetic weather for the given
// number of days.
func testConfig(days int) *config.Config {
	cfg := *config.Cfg()
	cfg.Simulation.Days = days
	cfg.Weather.File = ""
	cfg.Sward.Sow = append([]string(nil), cfg.Sward.Sow...)
	cfg.Management.Schedule = append([]string(nil), cfg.Management.Schedule...)
	return &cfg
}

func newTestSward(t *testing.T, cfg *config.Config, opts Options) *Sward {
	t.Helper()
	s, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func reportsClose(t *testing.T, got, want []components.Report, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d reports, want %d", len(got), len(want))
	}
	for i := range want {
		for _, f := range components.ReportFieldDescriptors() {
			g := components.GetReportValue(&got[i], f.ID)
			w := components.GetReportValue(&want[i], f.ID)
			if math.Abs(g-w) > tol {
				t.Errorf("%s %s = %v, want %v", want[i].Species, f.ID, g, w)
			}
		}
	}
}

// ---------- construction ----------

func TestNew(t *testing.T) {
	s := newTestSward(t, testConfig(10), Options{})

	names := s.Names()
	if len(names) != 2 || names[0] != "ryegrass" || names[1] != "whiteclover" {
		t.Fatalf("Names() = %v", names)
	}
	if _, ok := s.Species("whiteclover"); !ok {
		t.Error("whiteclover not found")
	}
	if _, ok := s.Species("plantain"); ok {
		t.Error("plantain found but not sown")
	}
	if !s.Date().Equal(config.Cfg().Derived.StartDate) || s.Day() != 0 {
		t.Errorf("starts on %v, day %d", s.Date(), s.Day())
	}
	if s.Lifetimes().Count() != 2 {
		t.Errorf("lifetimes tracked = %d", s.Lifetimes().Count())
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"nothing sown", func(c *config.Config) { c.Sward.Sow = nil }},
		{"unknown species", func(c *config.Config) { c.Sward.Sow = []string{"lucerne"} }},
		{"bad schedule", func(c *config.Config) { c.Management.Schedule = []string{"2000-10-15 mow(1)"} }},
		{"schedule names unsown species", func(c *config.Config) {
			c.Management.Schedule = []string{"2000-10-15 cut(0.5) plantain"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(10)
			tt.mutate(cfg)
			if s, err := New(cfg, Options{}); err == nil {
				_ = s.Close()
				t.Error("expected error")
			}
		})
	}
}

// ---------- daily step ----------

func TestRun_KeepsBalances(t *testing.T) {
	for _, arbitrated := range []bool{true, false} {
		name := "self"
		if arbitrated {
			name = "arbitrated"
		}
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(150)
			cfg.Sward.Arbitrator = arbitrated
			var days int
			s := newTestSward(t, cfg, Options{
				DailyCallback: func(day int, reports []components.Report) {
					days = day
					if len(reports) != 2 {
						t.Errorf("day %d: %d reports", day, len(reports))
					}
				},
			})
			if err := s.Run(context.Background(), 150); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if s.Day() != 150 || days != 150 {
				t.Errorf("grew %d days, callback saw %d", s.Day(), days)
			}

			var defoliated float64
			for _, r := range s.Reports() {
				if !r.Alive || r.ShootDM <= 0 {
					t.Errorf("%s: alive %v, shoot %v", r.Species, r.Alive, r.ShootDM)
				}
			}
			for _, name := range s.Lifetimes().Names() {
				lt := s.Lifetimes().Get(name)
				defoliated += lt.TotalDefoliated
				if lt.TotalGrowth <= 0 || lt.TotalWaterUptake <= 0 {
					t.Errorf("%s lifetime: %+v", name, lt)
				}
			}
			// the 2000-10-15 grazing falls inside the run
			if defoliated <= 0 {
				t.Error("nothing grazed")
			}
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	s := newTestSward(t, testConfig(30), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, 30); err == nil {
		t.Error("expected context error")
	}
	if s.Day() != 0 {
		t.Errorf("grew %d days after cancel", s.Day())
	}
}

func TestRun_StopsAtEndOfWeather(t *testing.T) {
	s := newTestSward(t, testConfig(20), Options{})
	if err := s.Run(context.Background(), 100); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Day() != 20 {
		t.Errorf("grew %d days, want 20", s.Day())
	}
}

func TestRun_WorkerCountDoesNotChangeResults(t *testing.T) {
	var results [][]components.Report
	for _, workers := range []int{1, 4} {
		cfg := testConfig(120)
		cfg.Simulation.Workers = workers
		s := newTestSward(t, cfg, Options{})
		if err := s.Run(context.Background(), 120); err != nil {
			t.Fatalf("workers=%d: Run: %v", workers, err)
		}
		results = append(results, s.Reports())
	}
	reportsClose(t, results[1], results[0], 0)
}

// ---------- management ----------

func TestGrazeSward_SplitsByHarvestable(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want func(standing float64) float64
	}{
		{"remove", Operation{Action: GrazeRemove, Amount: 300}, func(float64) float64 { return 300 }},
		{"residue", Operation{Action: GrazeResidue, Amount: 1500}, func(st float64) float64 { return st - 1500 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSward(t, testConfig(10), Options{})
			s.gatherPlants()

			var standing, total float64
			h := make([]float64, len(s.plants))
			for i, p := range s.plants {
				standing += p.plant.Species.State().StandingDM()
				h[i] = p.plant.Species.HarvestableWt()
				total += h[i]
			}
			want := tt.want(standing)
			if want <= 0 || want > total {
				t.Fatalf("test sward cannot be grazed by %v (harvestable %v)", want, total)
			}

			if err := s.grazeSward(tt.op); err != nil {
				t.Fatalf("grazeSward: %v", err)
			}
			var removed float64
			for i, p := range s.plants {
				got := p.plant.Species.Today().Defoliated
				removed += got
				if share := want * h[i] / total; math.Abs(got-share) > 1e-6 {
					t.Errorf("%s removed %v, want %v", p.plant.Species.Name, got, share)
				}
			}
			if math.Abs(removed-want) > 1e-6 {
				t.Errorf("removed %v, want %v", removed, want)
			}
		})
	}
}

func TestGrazeSward_CappedAtHarvestable(t *testing.T) {
	s := newTestSward(t, testConfig(10), Options{})
	s.gatherPlants()
	var total float64
	for _, p := range s.plants {
		total += p.plant.Species.HarvestableWt()
	}
	if err := s.grazeSward(Operation{Action: GrazeRemove, Amount: total + 5000}); err != nil {
		t.Fatalf("grazeSward: %v", err)
	}
	for _, p := range s.plants {
		if h := p.plant.Species.HarvestableWt(); h > 1e-6 {
			t.Errorf("%s still has %v harvestable", p.plant.Species.Name, h)
		}
	}
}

func TestManage_SpeciesOperations(t *testing.T) {
	cfg := testConfig(10)
	start := cfg.Derived.StartDate.Format(config.DateLayout)
	cfg.Management.Schedule = []string{
		start + " cut(0.5) ryegrass",
		start + " kill(1) whiteclover",
	}
	s := newTestSward(t, cfg, Options{})
	if _, err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	reports := s.Reports()
	if reports[0].Defoliated <= 0 {
		t.Error("ryegrass was not cut")
	}
	if reports[1].Alive || reports[1].ShootDM != 0 {
		t.Errorf("whiteclover after kill: alive %v, shoot %v", reports[1].Alive, reports[1].ShootDM)
	}
	if s.Soil().Balance().SurfaceDM <= 0 {
		t.Error("killed shoots did not reach the surface")
	}

	// the sward keeps growing with one species dead
	if err := s.Run(context.Background(), 5); err != nil {
		t.Fatalf("Run after kill: %v", err)
	}
}

func TestManage_DefoliationSpeedsStolonTurnover(t *testing.T) {
	tests := []struct {
		name     string
		schedule []string
		grazed   bool
	}{
		{"grazed", []string{"2000-10-15 graze_residue(800) whiteclover"}, true},
		{"ungrazed", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(200)
			cfg.Sward.Sow = []string{"whiteclover"}
			cfg.Management.Schedule = tt.schedule
			s := newTestSward(t, cfg, Options{})

			// grow up to the grazing day, then grow it
			days := int(time.Date(2000, 10, 15, 0, 0, 0, 0, time.UTC).Sub(cfg.Derived.StartDate).Hours() / 24)
			if err := s.Run(context.Background(), days); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := s.Date().Format(config.DateLayout); got != "2000-10-15" {
				t.Fatalf("next day is %s", got)
			}
			if _, err := s.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}

			sp, _ := s.Species("whiteclover")
			d := sp.Today()
			if d.Turnover.Live <= 0 {
				t.Fatalf("no live turnover on the grazing day: %+v", d.Turnover)
			}
			if tt.grazed {
				if d.Defoliated <= 0 {
					t.Fatal("graze removed nothing")
				}
				if d.Turnover.Stolon <= d.Turnover.Live {
					t.Errorf("stolon turnover %v not above live %v after removing %v kg/ha",
						d.Turnover.Stolon, d.Turnover.Live, d.Defoliated)
				}
				if s.Reports()[0].Defoliated != d.Defoliated {
					t.Errorf("report defoliated %v, want %v", s.Reports()[0].Defoliated, d.Defoliated)
				}
			} else if d.Turnover.Stolon != d.Turnover.Live {
				t.Errorf("stolon turnover %v differs from live %v without grazing", d.Turnover.Stolon, d.Turnover.Live)
			}
		})
	}
}

// ---------- snapshots ----------

func TestRestore_ResumesRun(t *testing.T) {
	const split, total = 40, 120

	a := newTestSward(t, testConfig(total), Options{})
	if err := a.Run(context.Background(), split); err != nil {
		t.Fatalf("Run: %v", err)
	}
	path, err := telemetry.SaveSnapshot(a.CreateSnapshot(), t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := a.Run(context.Background(), total-split); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.Day != split {
		t.Errorf("snapshot day = %d, want %d", snap.Day, split)
	}
	b := newTestSward(t, testConfig(total), Options{})
	if err := b.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if b.Day() != split || !b.Date().Equal(config.Cfg().Derived.StartDate.AddDate(0, 0, split)) {
		t.Fatalf("restored to day %d, %v", b.Day(), b.Date())
	}
	if err := b.Run(context.Background(), total-split); err != nil {
		t.Fatalf("Run after restore: %v", err)
	}

	if b.Day() != a.Day() {
		t.Errorf("day = %d, want %d", b.Day(), a.Day())
	}
	reportsClose(t, b.Reports(), a.Reports(), 1e-6)
	la, lb := a.Lifetimes().Get("ryegrass"), b.Lifetimes().Get("ryegrass")
	if math.Abs(la.TotalGrowth-lb.TotalGrowth) > 1e-6 {
		t.Errorf("lifetime growth = %v, want %v", lb.TotalGrowth, la.TotalGrowth)
	}
}

func TestRestore_Errors(t *testing.T) {
	s := newTestSward(t, testConfig(10), Options{})
	good := s.CreateSnapshot()

	tests := []struct {
		name   string
		mutate func(snap *telemetry.Snapshot)
	}{
		{"bad date", func(snap *telemetry.Snapshot) { snap.Date = "yesterday" }},
		{"past the weather", func(snap *telemetry.Snapshot) { snap.Date = "2010-01-01" }},
		{"unsown species", func(snap *telemetry.Snapshot) { snap.Species[0].Name = "lucerne" }},
		{"short soil", func(snap *telemetry.Snapshot) { snap.Soil.Water = snap.Soil.Water[:2] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := *good
			snap.Species = append([]telemetry.SpeciesState(nil), good.Species...)
			snap.Soil.Water = append([]float64(nil), good.Soil.Water...)
			tt.mutate(&snap)
			if err := s.Restore(&snap); err == nil {
				t.Error("expected error")
			}
		})
	}
}
