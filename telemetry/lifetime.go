package telemetry

import (
	"sort"

	"github.com/pthm-cable/sward/components"
)

// LifetimeStats tracks one species' totals since it was sown.
type LifetimeStats struct {
	SownDay     int `json:"sown_day"`
	DaysGrowing int `json:"days_growing"`

	TotalGrowth      float64 `json:"total_growth"`
	TotalDefoliated  float64 `json:"total_defoliated"`
	TotalLitter      float64 `json:"total_litter"`
	TotalNUptake     float64 `json:"total_n_uptake"`
	TotalNFixed      float64 `json:"total_n_fixed"`
	TotalWaterUptake float64 `json:"total_water_uptake"`

	PeakShootDM float64 `json:"peak_shoot_dm"`
	PeakDate    string  `json:"peak_date"`
	Removals    int     `json:"removals"`
}

// LifetimeTracker manages per-species lifetime statistics.
type LifetimeTracker struct {
	stats map[string]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[string]*LifetimeStats),
	}
}

// Register creates lifetime stats for a species sown on the given day.
func (lt *LifetimeTracker) Register(species string, day int) {
	lt.stats[species] = &LifetimeStats{SownDay: day}
}

// Restore replaces a species' stats, as when resuming from a snapshot.
func (lt *LifetimeTracker) Restore(species string, s LifetimeStats) {
	lt.stats[species] = &s
}

// Get returns the lifetime stats for a species, or nil if not found.
func (lt *LifetimeTracker) Get(species string) *LifetimeStats {
	return lt.stats[species]
}

// Record adds one day of reports. Unregistered species are ignored.
func (lt *LifetimeTracker) Record(reports []components.Report) {
	for i := range reports {
		r := &reports[i]
		s := lt.stats[r.Species]
		if s == nil {
			continue
		}
		if r.Alive {
			s.DaysGrowing++
		}
		s.TotalGrowth += r.GrowthEffective
		s.TotalDefoliated += r.Defoliated
		s.TotalLitter += r.Litter
		s.TotalNUptake += r.NUptake
		s.TotalNFixed += r.NFixed
		s.TotalWaterUptake += r.WaterUptake
		if r.Defoliated > 0 {
			s.Removals++
		}
		if r.ShootDM > s.PeakShootDM {
			s.PeakShootDM = r.ShootDM
			s.PeakDate = r.Date
		}
	}
}

// Names returns the tracked species in name order.
func (lt *LifetimeTracker) Names() []string {
	names := make([]string, 0, len(lt.stats))
	for name := range lt.stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[string]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked species.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
