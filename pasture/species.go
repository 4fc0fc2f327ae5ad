// Package pasture implements the daily growth engine of a pasture species:
// photosynthesis and respiration, allocation of new growth, water and N
// uptake, tissue turnover and defoliation of a staged DM/N state.
package pasture

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/traits"
)

// Options wires a species to its collaborators. Soil, Weather and Clock are
// required. A nil Arbitrator selects self-directed uptake.
type Options struct {
	Soil          Soil
	Weather       Weather
	Clock         Clock
	OrganicMatter OrganicMatter
	Arbitrator    Arbitrator
	Logger        *slog.Logger
}

// tissueN holds the N concentration thresholds of one tissue.
type tissueN struct {
	Opt, Max, Min float64
}

// Species is one pasture species growing in one zone. It owns its state
// exclusively; collaborators only see it through the exported methods.
type Species struct {
	Name   string
	Traits traits.Trait

	p      config.SpeciesConfig
	log    *slog.Logger
	clock  Clock
	met    Weather
	soil   Soil
	om     OrganicMatter
	arb    Arbitrator
	uptake UptakeStrategy

	cur  Pools
	prev Pools // yesterday, written only by saveState

	alive bool

	leafN, stemN, stolonN, rootN tissueN
	temp                         TempResponse
	height, fvpd                 *BrokenStick

	roots    rootProfile
	soilCrop SoilCrop

	heat, cold stressState
	phen       phenology

	// Carried from one day to the next
	nRemobilised   float64 // N freed by yesterday's senescence
	cRemobilisable float64 // C freed by yesterday's senescence
	nLuxury2       float64
	nLuxury3       float64
	greenLAI       float64
	deadLAI        float64
	digestHerbage  float64
	glfN           float64

	// Set by the microclimate before growth
	interceptedRadn float64
	waterDemand     float64

	day   Daily
	layer layerWork
}

// layerWork holds per-layer working arrays, reused every day.
type layerWork struct {
	water      []float64 // soil water before today's uptake
	availWater []float64
	waterTaken []float64
	nh4Avail   []float64
	no3Avail   []float64
	nh4Taken   []float64
	no3Taken   []float64
}

func newLayerWork(n int) layerWork {
	return layerWork{
		water:      make([]float64, n),
		availWater: make([]float64, n),
		waterTaken: make([]float64, n),
		nh4Avail:   make([]float64, n),
		no3Avail:   make([]float64, n),
		nh4Taken:   make([]float64, n),
		no3Taken:   make([]float64, n),
	}
}

// New builds a species from its parameter set and sets its initial state.
func New(cfg config.SpeciesConfig, opts Options) (*Species, error) {
	if opts.Soil == nil || opts.Weather == nil || opts.Clock == nil {
		return nil, fmt.Errorf("species %q: soil, weather and clock are required", cfg.Name)
	}
	tr, err := traits.Parse(cfg.Family, cfg.Pathway, cfg.Annual)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w: %v", cfg.Name, ErrInvalidConfig, err)
	}
	method, err := parseRootMethod(cfg.RootDistribution)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w", cfg.Name, err)
	}
	if len(cfg.InitialDMFractions) != 11 {
		return nil, fmt.Errorf("species %q: %w: need 11 initial DM fractions", cfg.Name, ErrInvalidConfig)
	}
	if len(cfg.HigherShootAllocationPeriods) != 3 {
		return nil, fmt.Errorf("species %q: %w: need 3 shoot allocation periods", cfg.Name, ErrInvalidConfig)
	}
	if cfg.MaxRootAllocation <= 0 || cfg.MaxRootAllocation >= 1 {
		return nil, fmt.Errorf("species %q: %w: max_root_allocation must be in (0,1)", cfg.Name, ErrInvalidConfig)
	}
	height, err := NewBrokenStick(cfg.HeightMass, cfg.HeightValues)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w: height curve: %v", cfg.Name, ErrInvalidConfig, err)
	}
	fvpd, err := NewBrokenStick(cfg.VPDValues, cfg.VPDFactors)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w: VPD curve: %v", cfg.Name, ErrInvalidConfig, err)
	}

	sc, ok := opts.Soil.Crop(cfg.Name)
	nLayers := len(opts.Soil.Thickness())
	if !ok || len(sc.LL) != nLayers || len(sc.KL) != nLayers {
		return nil, fmt.Errorf("species %q: %w", cfg.Name, ErrMissingSoilCrop)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Species{
		Name:     cfg.Name,
		Traits:   tr,
		p:        cfg,
		log:      logger.With("species", cfg.Name),
		clock:    opts.Clock,
		met:      opts.Weather,
		soil:     opts.Soil,
		om:       opts.OrganicMatter,
		arb:      opts.Arbitrator,
		height:   height,
		fvpd:     fvpd,
		soilCrop: sc,
		roots:    rootProfile{method: method},
		layer:    newLayerWork(nLayers),
		temp: TempResponse{
			Tmin: cfg.GrowthTmin,
			Topt: cfg.GrowthTopt,
			Tq:   cfg.GrowthTq,
			C4:   tr.Has(traits.C4),
		},
	}
	if s.arb != nil {
		s.uptake = UptakeArbitrated
	}

	s.leafN = tissueN{Opt: cfg.LeafNopt, Max: cfg.LeafNmax, Min: cfg.LeafNmin}
	s.stemN = scaledN(s.leafN, cfg.RelativeNStems)
	s.stolonN = scaledN(s.leafN, cfg.RelativeNStolons)
	s.rootN = scaledN(s.leafN, cfg.RelativeNRoots)

	if err := s.setInitialState(); err != nil {
		return nil, err
	}
	s.log.Debug("species initialised",
		"traits", s.Traits.String(),
		"uptake", s.uptake.String(),
		"shoot_dm", s.cur.ShootDM(),
		"root_dm", s.cur.DMRoot,
		"root_depth", s.roots.depth,
	)
	return s, nil
}

func scaledN(leaf tissueN, rel float64) tissueN {
	return tissueN{Opt: leaf.Opt * rel, Max: leaf.Max * rel, Min: leaf.Min * rel}
}

// setInitialState sets DM, N, roots, phenology and canopy from the parameters.
func (s *Species) setInitialState() error {
	p := &s.p
	f := p.InitialDMFractions
	shoot := p.InitialShootDM

	s.cur = Pools{}
	for k := 0; k < 4; k++ {
		s.cur.DMLeaf[k] = f[k] * shoot
		s.cur.DMStem[k] = f[4+k] * shoot
	}
	for k := 0; k < 3; k++ {
		s.cur.DMStolon[k] = f[8+k] * shoot
	}
	s.cur.DMRoot = p.InitialRootDM

	// N starts at the optimum concentration, dead tissue at the minimum
	for k := 0; k < 3; k++ {
		s.cur.NLeaf[k] = s.cur.DMLeaf[k] * s.leafN.Opt
		s.cur.NStem[k] = s.cur.DMStem[k] * s.stemN.Opt
		s.cur.NStolon[k] = s.cur.DMStolon[k] * s.stolonN.Opt
	}
	s.cur.NLeaf[3] = s.cur.DMLeaf[3] * s.leafN.Min
	s.cur.NStem[3] = s.cur.DMStem[3] * s.stemN.Min
	s.cur.NRoot = s.cur.DMRoot * s.rootN.Opt
	s.prev = Pools{}

	s.roots.depth = p.InitialRootDepth
	if err := s.updateRootProfile(); err != nil {
		return err
	}

	s.phen = phenology{daysEmgToAnth: daysEmergenceToAnthesis(p)}
	if s.cur.TotalDM() > epsilon {
		s.phen.stage = stageVegetative
	}

	s.heat = stressState{effect: 1}
	s.cold = stressState{effect: 1}
	s.nRemobilised = 0
	s.cRemobilisable = 0
	s.nLuxury2 = 0
	s.nLuxury3 = 0
	s.glfN = 1
	s.day = Daily{}
	s.alive = true

	s.evaluateLAI()
	return nil
}

// State returns a copy of the current pools.
func (s *Species) State() Pools { return s.cur }

// Today returns the rates and factors of the latest daily step.
func (s *Species) Today() Daily { return s.day }

// Params returns the species parameter set.
func (s *Species) Params() config.SpeciesConfig { return s.p }

// IsAlive reports whether the plant is in the ground.
func (s *Species) IsAlive() bool { return s.alive }

// Uptake returns the uptake strategy resolved at construction.
func (s *Species) Uptake() UptakeStrategy { return s.uptake }

// MinimumGreenWt is the live DM floor that turnover and grazing keep.
func (s *Species) MinimumGreenWt() float64 { return s.p.MinimumGreenWt }

// HarvestableWt is the standing DM available for removal.
func (s *Species) HarvestableWt() float64 {
	return max(0, s.cur.StandingLiveDM()-s.p.MinimumGreenWt) + s.cur.StandingDeadDM()
}

// NRemobilisable is the N from yesterday's senescence available today.
func (s *Species) NRemobilisable() float64 { return s.day.NRemobilisable }

// NLuxury returns the remobilisable luxury N held in stages 2 and 3.
func (s *Species) NLuxury() (stage2, stage3 float64) { return s.nLuxury2, s.nLuxury3 }

// Reset restores the initial state.
func (s *Species) Reset() error {
	return s.setInitialState()
}

// ResetZero empties every pool. The plant stays in the ground.
func (s *Species) ResetZero() {
	s.cur = Pools{}
	s.prev = Pools{}
	s.day.Defoliated = 0
	s.day.NDefoliated = 0
	s.day.DigestDefoliated = 0
	s.nRemobilised = 0
	s.cRemobilisable = 0
	s.nLuxury2 = 0
	s.nLuxury3 = 0
	s.phen.reset()
	s.evaluateLAI()
	s.digestHerbage = 0
}

// Kill returns a fraction of the plant to the organic matter pools: shoots
// to the surface, roots to the soil. Killing all of it ends the crop.
func (s *Species) Kill(fraction float64) error {
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("species %q: kill fraction %.3f outside [0,1]", s.Name, fraction)
	}
	if fraction >= 1 {
		s.returnSurfaceOM(s.cur.ShootDM(), s.cur.ShootN())
		s.returnRootsOM(s.cur.DMRoot, s.cur.NRoot)
		s.ResetZero()
		s.alive = false
		s.log.Info("crop killed")
		return nil
	}

	s.returnSurfaceOM(s.cur.ShootDM()*fraction, s.cur.ShootN()*fraction)
	s.returnRootsOM(s.cur.DMRoot*fraction, s.cur.NRoot*fraction)
	keep := 1 - fraction
	for k := range s.cur.DMLeaf {
		s.cur.DMLeaf[k] *= keep
		s.cur.NLeaf[k] *= keep
		s.cur.DMStem[k] *= keep
		s.cur.NStem[k] *= keep
	}
	for k := range s.cur.DMStolon {
		s.cur.DMStolon[k] *= keep
		s.cur.NStolon[k] *= keep
	}
	s.cur.DMRoot *= keep
	s.cur.NRoot *= keep
	s.nRemobilised *= keep
	s.cRemobilisable *= keep
	s.nLuxury2 *= keep
	s.nLuxury3 *= keep
	s.evaluateLAI()
	return nil
}

// EndCrop kills the whole plant.
func (s *Species) EndCrop() error {
	return s.Kill(1)
}

// saveState overwrites yesterday's snapshot with the current pools.
func (s *Species) saveState() {
	s.prev = s.cur
}

// updateAggregated checks the state after a change to the pools.
func (s *Species) updateAggregated() error {
	green, dead, shoot := s.cur.GreenDM(), s.cur.DeadDM(), s.cur.ShootDM()
	if math.Abs(green+dead-shoot) > 1e-4 {
		return s.massBalance("aggregating plant DM after growth", green+dead, shoot)
	}
	if name, v, neg := s.cur.Negative(); neg {
		return s.massBalance("pool "+name, v, 0)
	}
	return nil
}

func (s *Species) returnSurfaceOM(dm, n float64) {
	if s.om == nil || (dm <= 0 && n <= 0) {
		return
	}
	s.om.AddSurfaceResidue(s.Name, dm, n)
}

// returnRootsOM incorporates root material into the soil in proportion to
// the root distribution.
func (s *Species) returnRootsOM(dm, n float64) {
	if s.om == nil || (dm <= 0 && n <= 0) {
		return
	}
	fr := s.roots.fraction
	dmL := make([]float64, len(fr))
	nL := make([]float64, len(fr))
	for i, f := range fr {
		dmL[i] = dm * f
		nL[i] = n * f
	}
	s.om.IncorporateFOM(s.Name, dmL, nL)
}
