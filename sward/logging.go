package sward

import (
	"fmt"
	"io"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logSwardState logs a one-line summary per species and the soil totals.
func (s *Sward) logSwardState() {
	Logf("=== Day %d (%s) ===", s.day, s.Date().Format("2006-01-02"))
	for i := range s.reports {
		r := &s.reports[i]
		state := "growing"
		if !r.Alive {
			state = "dead"
		}
		Logf("  %-12s %-7s shoot=%7.0f root=%6.0f growth=%5.1f glf(T,W,N)=(%.2f,%.2f,%.2f)",
			r.Species, state, r.ShootDM, r.RootDM, r.GrowthEffective, r.GLFTemp, r.GLFWater, r.GLFN)
	}
	b := s.soil.Balance()
	Logf("  soil water=%.1f mm (avail %.1f) mineral N=%.1f kg/ha residue=%.0f kg/ha",
		b.Water, b.Available, b.NH4+b.NO3, b.SurfaceDM)
	Logf("")
}

// logRemoval logs a management removal for one species.
func logRemoval(date, action, species string, removed, shoot float64) {
	Logf("[%s] %s %s: %.0f kg/ha removed, %.0f kg/ha shoot left",
		date, action, species, removed, shoot)
}
