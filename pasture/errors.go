package pasture

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig reports a parameter set the engine cannot run with:
	// an unknown root distribution method, photosynthetic pathway or removal type.
	ErrInvalidConfig = errors.New("invalid species configuration")

	// ErrMissingSoilCrop is returned when the soil has no root-zone
	// parameterisation (LL, KL) for a species.
	ErrMissingSoilCrop = errors.New("no soil-crop parameters for species")

	// ErrUptakeNotResolved is returned when an arbitrated species grows
	// before the arbitrator has resolved its uptake for the day.
	ErrUptakeNotResolved = errors.New("uptake not resolved by arbitrator")
)

// MassBalanceError reports a violated mass-balance invariant. It is fatal:
// the simulation run cannot continue once one is returned.
type MassBalanceError struct {
	Species string
	Check   string // which balance failed
	Got     float64
	Want    float64
}

func (e *MassBalanceError) Error() string {
	return fmt.Sprintf("%s: loss of mass balance on %s (got %.6g, want %.6g)",
		e.Species, e.Check, e.Got, e.Want)
}

// massBalance builds a MassBalanceError for this species.
func (s *Species) massBalance(check string, got, want float64) error {
	return &MassBalanceError{Species: s.Name, Check: check, Got: got, Want: want}
}
