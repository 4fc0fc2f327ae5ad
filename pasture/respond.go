package pasture

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// CarbonFractionInDM converts between carbon and dry matter.
const CarbonFractionInDM = 0.4

const (
	cnRatioProtein  = 3.5
	cnRatioCellWall = 100.0
	epsilon         = 1e-9
)

func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }

// divide returns a/b, or def when b is zero.
func divide(a, b, def float64) float64 {
	if math.Abs(b) < 1e-12 {
		return def
	}
	return a / b
}

// BrokenStick is a piecewise-linear response that holds its end values
// outside the fitted range.
type BrokenStick struct {
	pl       interp.PiecewiseLinear
	xlo, xhi float64
	ylo, yhi float64
}

// NewBrokenStick fits a response through the given points. xs must be
// strictly increasing with at least two points.
func NewBrokenStick(xs, ys []float64) (*BrokenStick, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("broken stick: %d x values but %d y values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("broken stick: need at least 2 points, got %d", len(xs))
	}
	b := &BrokenStick{
		xlo: xs[0], xhi: xs[len(xs)-1],
		ylo: ys[0], yhi: ys[len(ys)-1],
	}
	if err := b.pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("broken stick: %w", err)
	}
	return b, nil
}

// Value evaluates the response at x.
func (b *BrokenStick) Value(x float64) float64 {
	switch {
	case x <= b.xlo:
		return b.ylo
	case x >= b.xhi:
		return b.yhi
	}
	return b.pl.Predict(x)
}

// TempResponse parameterises the growth temperature curve.
type TempResponse struct {
	Tmin, Topt, Tq float64
	C4             bool
}

// Tmax is the upper temperature at which growth stops.
func (r TempResponse) Tmax() float64 {
	return r.Topt + (r.Topt-r.Tmin)/r.Tq
}

// TemperatureLimitingFactor is the growth response to temperature: an
// asymmetric bell that is 1 at Topt and 0 at or beyond Tmin and Tmax.
// C4 plants hold their optimum response above Topt.
func TemperatureLimitingFactor(t float64, r TempResponse) float64 {
	tmax := r.Tmax()
	if t <= r.Tmin {
		return 0
	}
	if r.C4 {
		t = math.Min(t, r.Topt)
	} else if t >= tmax {
		return 0
	}
	v1 := math.Pow(t-r.Tmin, r.Tq) * (tmax - t)
	v2 := math.Pow(r.Topt-r.Tmin, r.Tq) * (tmax - r.Topt)
	return divide(v1, v2, 0)
}

// TurnoverTempFactor ramps linearly from 0 at tmin to 1 at topt.
func TurnoverTempFactor(t, tmin, topt float64) float64 {
	switch {
	case t <= tmin:
		return 0
	case t > topt:
		return 1
	}
	return (t - tmin) / (topt - tmin)
}

// TurnoverWaterFactor accelerates live tissue turnover under drought, up to
// fmax once glfWater reaches zero.
func TurnoverWaterFactor(glfWater, glfOpt, fmax float64) float64 {
	if glfWater >= glfOpt {
		return 1
	}
	r := (fmax - 1) * (glfOpt - glfWater) / glfOpt
	return math.Min(fmax, math.Max(1, 1+r))
}

// PCO2Effects is the photosynthesis response to atmospheric CO2, exactly 1
// at the reference concentration.
func PCO2Effects(co2, ref, coef float64) float64 {
	if math.Abs(co2-ref) < 0.01 {
		return 1
	}
	return co2 / (coef + co2) * (ref + coef) / ref
}

// NCO2Effects is the decline in optimum N concentration under elevated CO2,
// exactly 1 at the reference concentration.
func NCO2Effects(co2, ref, offset, minimum, exponent float64) float64 {
	if math.Abs(co2-ref) < 0.01 {
		return 1
	}
	termK := math.Pow(offset-ref, exponent)
	termC := math.Pow(math.Max(0, co2-ref), exponent)
	return minimum + (1-minimum)*divide(termK, termK+termC, 1)
}

// ConductanceCO2Effects is the canopy conductance response to CO2.
func ConductanceCO2Effects(co2, ref float64) float64 {
	if math.Abs(co2-ref) < 0.5 {
		return 1
	}
	const (
		gmin = 0.2  // co2 unlimited
		gmax = 1.25 // co2 zero
		beta = 2.5
	)
	aux1 := (1 - gmin) * math.Pow(ref, beta)
	aux2 := (gmax - 1) * math.Pow(co2, beta)
	return gmin + (gmax-gmin)*aux1/(aux1+aux2)
}

// SVP is the saturated vapour pressure (hPa) at temperature t.
func SVP(t float64) float64 {
	return 6.1078 * math.Exp(17.269*t/(237.3+t))
}

// VPD is the daytime vapour pressure deficit (hPa).
func VPD(maxT, minT, vp float64) float64 {
	dmax := math.Max(SVP(maxT)-vp, 0)
	dmin := math.Max(SVP(minT)-vp, 0)
	return 0.66*dmax + 0.34*dmin
}

// PlantCover is the fraction of ground covered by a canopy of the given LAI.
func PlantCover(lai, k float64) float64 {
	if lai < epsilon {
		return 0
	}
	return 1 - math.Exp(-k*lai)
}
