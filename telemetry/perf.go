package telemetry

import (
	"log/slog"
	"sort"
	"time"
)

// Phase names for the daily step.
const (
	PhaseSoil         = "soil"
	PhaseManagement   = "management"
	PhaseMicroclimate = "microclimate"
	PhasePotential    = "potential"
	PhaseArbitrate    = "arbitrate"
	PhaseWaterLimited = "water_limited"
	PhaseActual       = "actual"
	PhaseTelemetry    = "telemetry"
)

// phaseOrder lists the phases in step order.
var phaseOrder = []string{
	PhaseSoil, PhaseManagement, PhaseMicroclimate, PhasePotential,
	PhaseArbitrate, PhaseWaterLimited, PhaseActual, PhaseTelemetry,
}

// PerfSample holds timing data for a single day.
type PerfSample struct {
	DayDuration time.Duration
	Phases      map[string]time.Duration
	// Species is the time spent in each species' growth calls. With a
	// worker pool these overlap, so they can add up to more than the day.
	Species map[string]time.Duration
}

// PerfCollector tracks step timing over a rolling window of days.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    PerfSample
	dayStart   time.Time
	phaseStart time.Time
	lastPhase  string
}

// NewPerfCollector creates a collector averaging over windowSize days.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 30
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
	}
}

// StartDay begins timing a new simulated day.
func (p *PerfCollector) StartDay() {
	p.dayStart = time.Now()
	p.current = PerfSample{
		Phases:  make(map[string]time.Duration),
		Species: make(map[string]time.Duration),
	}
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.current.Phases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// RecordSpecies adds growth time spent on one species today. Call it from
// the stepping goroutine only.
func (p *PerfCollector) RecordSpecies(name string, d time.Duration) {
	if p.current.Species == nil {
		return
	}
	p.current.Species[name] += d
}

// EndDay finishes timing the current day and records the sample.
func (p *PerfCollector) EndDay() {
	now := time.Now()
	if p.lastPhase != "" {
		p.current.Phases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}
	p.current.DayDuration = now.Sub(p.dayStart)

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated timing statistics.
type PerfStats struct {
	Days int // days in the window

	AvgDayDuration time.Duration
	MinDayDuration time.Duration
	MaxDayDuration time.Duration

	// Average time per phase and its share of the day (%)
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Average growth time per species and its share of all growth time (%)
	SpeciesAvg map[string]time.Duration
	SpeciesPct map[string]float64
	Slowest    string // species with the most growth time

	DaysPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		Days:       p.sampleCount,
		PhaseAvg:   make(map[string]time.Duration),
		PhasePct:   make(map[string]float64),
		SpeciesAvg: make(map[string]time.Duration),
		SpeciesPct: make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	speciesSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.DayDuration
		if i == 0 || s.DayDuration < stats.MinDayDuration {
			stats.MinDayDuration = s.DayDuration
		}
		stats.MaxDayDuration = max(stats.MaxDayDuration, s.DayDuration)
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
		for name, d := range s.Species {
			speciesSum[name] += d
		}
	}

	n := time.Duration(p.sampleCount)
	stats.AvgDayDuration = total / n
	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / n
		if total > 0 {
			stats.PhasePct[phase] = float64(sum) / float64(total) * 100
		}
	}

	var growth time.Duration
	for _, sum := range speciesSum {
		growth += sum
	}
	names := make([]string, 0, len(speciesSum))
	for name := range speciesSum {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sum := speciesSum[name]
		stats.SpeciesAvg[name] = sum / n
		if growth > 0 {
			stats.SpeciesPct[name] = float64(sum) / float64(growth) * 100
		}
		if stats.Slowest == "" || sum > speciesSum[stats.Slowest] {
			stats.Slowest = name
		}
	}

	if stats.AvgDayDuration > 0 {
		stats.DaysPerSecond = float64(time.Second) / float64(stats.AvgDayDuration)
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("days", s.Days),
		slog.Int64("avg_day_us", s.AvgDayDuration.Microseconds()),
		slog.Int64("min_day_us", s.MinDayDuration.Microseconds()),
		slog.Int64("max_day_us", s.MaxDayDuration.Microseconds()),
		slog.Float64("days_per_sec", s.DaysPerSecond),
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	if s.Slowest != "" {
		attrs = append(attrs,
			slog.String("slowest_species", s.Slowest),
			slog.Int64("slowest_species_us", s.SpeciesAvg[s.Slowest].Microseconds()))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd       int     `csv:"window_end"`
	AvgDayUS        int64   `csv:"avg_day_us"`
	MinDayUS        int64   `csv:"min_day_us"`
	MaxDayUS        int64   `csv:"max_day_us"`
	DaysPerSec      float64 `csv:"days_per_sec"`
	SoilPct         float64 `csv:"soil_pct"`
	ManagementPct   float64 `csv:"management_pct"`
	MicroclimatePct float64 `csv:"microclimate_pct"`
	PotentialPct    float64 `csv:"potential_pct"`
	ArbitratePct    float64 `csv:"arbitrate_pct"`
	WaterLimitedPct float64 `csv:"water_limited_pct"`
	ActualPct       float64 `csv:"actual_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
	Slowest         string  `csv:"slowest_species"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgDayUS:        s.AvgDayDuration.Microseconds(),
		MinDayUS:        s.MinDayDuration.Microseconds(),
		MaxDayUS:        s.MaxDayDuration.Microseconds(),
		DaysPerSec:      s.DaysPerSecond,
		SoilPct:         s.PhasePct[PhaseSoil],
		ManagementPct:   s.PhasePct[PhaseManagement],
		MicroclimatePct: s.PhasePct[PhaseMicroclimate],
		PotentialPct:    s.PhasePct[PhasePotential],
		ArbitratePct:    s.PhasePct[PhaseArbitrate],
		WaterLimitedPct: s.PhasePct[PhaseWaterLimited],
		ActualPct:       s.PhasePct[PhaseActual],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
		Slowest:         s.Slowest,
	}
}

// PerfSpeciesCSV is one species' growth timing over a window.
type PerfSpeciesCSV struct {
	WindowEnd int     `csv:"window_end"`
	Species   string  `csv:"species"`
	AvgUS     int64   `csv:"avg_us"`
	Pct       float64 `csv:"pct"`
}

// SpeciesRows returns the per-species timing rows in name order.
func (s PerfStats) SpeciesRows(windowEnd int) []PerfSpeciesCSV {
	names := make([]string, 0, len(s.SpeciesAvg))
	for name := range s.SpeciesAvg {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([]PerfSpeciesCSV, len(names))
	for i, name := range names {
		rows[i] = PerfSpeciesCSV{
			WindowEnd: windowEnd,
			Species:   name,
			AvgUS:     s.SpeciesAvg[name].Microseconds(),
			Pct:       s.SpeciesPct[name],
		}
	}
	return rows
}
