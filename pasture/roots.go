package pasture

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/sward/traits"
)

// RootMethod selects the shape of the root distribution.
type RootMethod int

const (
	RootHomogeneous RootMethod = iota
	RootExpoLinear
)

func (m RootMethod) String() string {
	if m == RootExpoLinear {
		return "expolinear"
	}
	return "homogeneous"
}

func parseRootMethod(name string) (RootMethod, error) {
	switch strings.ToLower(name) {
	case "homogeneous", "":
		return RootHomogeneous, nil
	case "expolinear", "expo-linear":
		return RootExpoLinear, nil
	}
	return 0, fmt.Errorf("%w: unknown root distribution method %q", ErrInvalidConfig, name)
}

type rootProfile struct {
	method   RootMethod
	depth    float64 // mm
	frontier int     // deepest layer with roots
	fraction []float64
}

// RootDescriptor describes the root zone to a resource arbitrator.
type RootDescriptor struct {
	Depth       float64
	Frontier    int
	Exploration []float64 // fraction of each layer explored by roots
	Fraction    []float64 // fraction of root mass in each layer
	LowerLimit  []float64 // mm
	KL          []float64
	RLD         []float64 // mm/mm3
}

// Roots returns the current root zone descriptor.
func (s *Species) Roots() RootDescriptor {
	th := s.soil.Thickness()
	d := RootDescriptor{
		Depth:       s.roots.depth,
		Frontier:    s.roots.frontier,
		Exploration: make([]float64, len(th)),
		Fraction:    append([]float64(nil), s.roots.fraction...),
		LowerLimit:  make([]float64, len(th)),
		KL:          append([]float64(nil), s.soilCrop.KL...),
		RLD:         s.RootLengthDensity(),
	}
	for l := range th {
		d.Exploration[l] = s.fractionLayerWithRoots(l)
		d.LowerLimit[l] = s.soilCrop.LL[l] * th[l]
	}
	return d
}

// rootFrontier returns the last layer whose bottom lies within depth.
func rootFrontier(thickness []float64, depth float64) int {
	frontier := 0
	cum := 0.0
	for l, th := range thickness {
		cum += th
		if cum > depth {
			break
		}
		frontier = l
	}
	return frontier
}

// fractionLayerWithRoots is the fraction of layer l lying above the root
// depth, 0 beyond the frontier.
func (s *Species) fractionLayerWithRoots(l int) float64 {
	if l > s.roots.frontier {
		return 0
	}
	th := s.soil.Thickness()
	top := floats.Sum(th[:l])
	return clamp01((s.roots.depth - top) / th[l])
}

// updateRootProfile recomputes the frontier and the root distribution for
// the current depth.
func (s *Species) updateRootProfile() error {
	th := s.soil.Thickness()
	s.roots.frontier = rootFrontier(th, s.roots.depth)
	fr, err := rootDistribution(th, s.roots.depth, s.roots.method,
		s.p.ExpoLinearDepthParam, s.p.ExpoLinearCurveParam)
	if err != nil {
		return fmt.Errorf("species %q: %w", s.Name, err)
	}
	s.roots.fraction = fr
	return nil
}

// updateRootDepth grows the roots of an annual from the emergence depth to
// the maximum depth by anthesis. Perennial roots keep their initial depth.
func (s *Species) updateRootDepth() error {
	if !s.Traits.Has(traits.Annual) {
		return nil
	}
	p := &s.p
	if s.phen.stage == stageVegetative {
		f := divide(float64(s.phen.daysEmerged), float64(s.phen.daysEmgToAnth), 1)
		s.roots.depth = p.RootDepthAtEmergence + (p.MaximumRootDepth-p.RootDepthAtEmergence)*clamp01(f)
	}
	return s.updateRootProfile()
}

// rootDistribution returns the fraction of root mass in each soil layer. The
// expo-linear profile is uniform down to depthParam of the root depth, then
// tapers to zero at the root depth with curvature curveParam. Each layer
// gets the integral of the profile over its explored thickness.
func rootDistribution(thickness []float64, depth float64, method RootMethod, depthParam, curveParam float64) ([]float64, error) {
	out := make([]float64, len(thickness))
	if method == RootExpoLinear && (depthParam >= 1 || curveParam <= 0) {
		method = RootHomogeneous
	}
	d1 := depth * depthParam
	d2 := depth - d1
	// integral of the tapering section
	taper := func(x float64) float64 {
		return (x - d2) * math.Pow(1-x/d2, curveParam) / (curveParam + 1)
	}

	top := 0.0
	for l, th := range thickness {
		bot := top + th
		if top >= depth {
			break
		}
		switch method {
		case RootHomogeneous:
			out[l] = math.Min(bot, depth) - top
		case RootExpoLinear:
			m := math.Max(0, math.Min(bot, d1)-top)
			if d2 > 0 {
				x1 := math.Max(0, math.Min(bot-d1, d2))
				x0 := math.Max(0, math.Min(top-d1, d2))
				m += taper(x1) - taper(x0)
			}
			out[l] = m
		}
		top = bot
	}

	total := floats.Sum(out)
	if total <= 0 {
		return nil, fmt.Errorf("%w: no roots in the soil profile (depth %.1f mm)", ErrInvalidConfig, depth)
	}
	floats.Scale(1/total, out)
	return out, nil
}

// RootLengthDensity returns the root length per volume of soil in each
// layer (mm/mm3).
func (s *Species) RootLengthDensity() []float64 {
	th := s.soil.Thickness()
	out := make([]float64, len(th))
	for l := range th {
		if l >= len(s.roots.fraction) {
			break
		}
		// kg/ha * m/g -> mm/mm3
		out[l] = s.roots.fraction[l] * s.cur.DMRoot * s.p.SpecificRootLength * 1e-7 / th[l]
	}
	return out
}
