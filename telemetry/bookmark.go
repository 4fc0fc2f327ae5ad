package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkDroughtOnset BookmarkType = "drought_onset"
	BookmarkNDeficit     BookmarkType = "n_deficit"
	BookmarkBiomassCrash BookmarkType = "biomass_crash"
	BookmarkHeatDamage   BookmarkType = "heat_damage"
	BookmarkColdDamage   BookmarkType = "cold_damage"
	BookmarkCropDeath    BookmarkType = "crop_death"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Day         int          `csv:"day" json:"day"`
	Date        string       `csv:"date" json:"date"`
	Species     string       `csv:"species" json:"species"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"day", b.Day,
		"date", b.Date,
		"species", b.Species,
		"description", b.Description,
	)
}

// plantWatch is the detector state for one species.
type plantWatch struct {
	// Rolling shoot DM history (circular buffer)
	history     []float64
	historyIdx  int
	historyFull bool

	dryDays   int
	nDays     int
	inDrought bool
	inNStress bool
	heatHit   bool
	coldHit   bool
	alive     bool
}

func (w *plantWatch) add(dm float64) {
	w.history[w.historyIdx] = dm
	w.historyIdx = (w.historyIdx + 1) % len(w.history)
	if w.historyIdx == 0 {
		w.historyFull = true
	}
}

func (w *plantWatch) clearHistory() {
	w.historyIdx = 0
	w.historyFull = false
}

func (w *plantWatch) peak() float64 {
	n := w.historyIdx
	if w.historyFull {
		n = len(w.history)
	}
	var p float64
	for _, v := range w.history[:n] {
		p = max(p, v)
	}
	return p
}

// BookmarkDetector detects stress episodes in the daily plant reports.
type BookmarkDetector struct {
	cfg         config.BookmarksConfig
	historySize int
	plants      map[string]*plantWatch
}

// NewBookmarkDetector creates a detector with the given thresholds. The
// biomass history covers the crash window, and never less than historySize
// days when that is shorter.
func NewBookmarkDetector(cfg config.BookmarksConfig, historySize int) *BookmarkDetector {
	if w := cfg.BiomassCrash.WindowDays; w > 0 && w < historySize {
		historySize = w
	}
	if historySize < 2 {
		historySize = 2
	}
	return &BookmarkDetector{
		cfg:         cfg,
		historySize: historySize,
		plants:      make(map[string]*plantWatch),
	}
}

func (bd *BookmarkDetector) watch(name string) *plantWatch {
	w, ok := bd.plants[name]
	if !ok {
		w = &plantWatch{history: make([]float64, bd.historySize), alive: true}
		bd.plants[name] = w
	}
	return w
}

// Check analyzes one day of reports and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(day int, reports []components.Report) []Bookmark {
	var bookmarks []Bookmark
	for i := range reports {
		r := &reports[i]
		w := bd.watch(r.Species)
		mark := func(t BookmarkType, format string, args ...any) {
			bookmarks = append(bookmarks, Bookmark{
				Type:        t,
				Day:         day,
				Date:        r.Date,
				Species:     r.Species,
				Description: fmt.Sprintf(format, args...),
			})
		}

		if !r.Alive {
			if w.alive {
				w.alive = false
				mark(BookmarkCropDeath, "%s is no longer growing", r.Species)
			}
			continue
		}
		w.alive = true

		if bd.checkDrought(w, r) {
			mark(BookmarkDroughtOnset, "water factor below %.2f for %d days", bd.cfg.Drought.Threshold, w.dryDays)
		}
		if bd.checkNDeficit(w, r) {
			mark(BookmarkNDeficit, "N factor below %.2f for %d days", bd.cfg.NDeficit.Threshold, w.nDays)
		}
		if peak, ok := bd.checkBiomassCrash(w, r); ok {
			mark(BookmarkBiomassCrash, "shoot DM fell %.0f%% from %.0f to %.0f kg/ha",
				(1-r.ShootDM/peak)*100, peak, r.ShootDM)
		}
		heat, cold := bd.checkTempDamage(w, r)
		if heat {
			mark(BookmarkHeatDamage, "heat effect %.2f", r.HeatEffect)
		}
		if cold {
			mark(BookmarkColdDamage, "cold effect %.2f", r.ColdEffect)
		}
	}
	return bookmarks
}

// checkDrought fires once when a dry spell reaches the minimum length.
func (bd *BookmarkDetector) checkDrought(w *plantWatch, r *components.Report) bool {
	c := bd.cfg.Drought
	if r.GLFWater >= c.Threshold {
		w.dryDays = 0
		w.inDrought = false
		return false
	}
	w.dryDays++
	if !w.inDrought && w.dryDays >= c.MinDays {
		w.inDrought = true
		return true
	}
	return false
}

func (bd *BookmarkDetector) checkNDeficit(w *plantWatch, r *components.Report) bool {
	c := bd.cfg.NDeficit
	if r.GLFN >= c.Threshold {
		w.nDays = 0
		w.inNStress = false
		return false
	}
	w.nDays++
	if !w.inNStress && w.nDays >= c.MinDays {
		w.inNStress = true
		return true
	}
	return false
}

// checkBiomassCrash compares shoot DM with its recent peak. Defoliation is
// an expected loss, so a removal day restarts the history.
func (bd *BookmarkDetector) checkBiomassCrash(w *plantWatch, r *components.Report) (float64, bool) {
	if r.Defoliated > 0 {
		w.clearHistory()
		w.add(r.ShootDM)
		return 0, false
	}
	peak := w.peak()
	w.add(r.ShootDM)
	if peak <= 0 {
		return 0, false
	}
	if 1-r.ShootDM/peak > bd.cfg.BiomassCrash.DropPercent {
		// Restart from the crashed level
		w.clearHistory()
		w.add(r.ShootDM)
		return peak, true
	}
	return 0, false
}

// checkTempDamage fires when an effect drops below the threshold and re-arms
// once the plant has recovered.
func (bd *BookmarkDetector) checkTempDamage(w *plantWatch, r *components.Report) (heat, cold bool) {
	th := bd.cfg.TempDamage.Threshold
	switch {
	case r.HeatEffect < th && !w.heatHit:
		w.heatHit, heat = true, true
	case r.HeatEffect >= 1:
		w.heatHit = false
	}
	switch {
	case r.ColdEffect < th && !w.coldHit:
		w.coldHit, cold = true, true
	case r.ColdEffect >= 1:
		w.coldHit = false
	}
	return heat, cold
}
