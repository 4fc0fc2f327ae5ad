package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// SpeciesConfig holds the parameter set for one pasture species.
// Units follow the usual pasture conventions: DM and N in kg/ha, depths in mm,
// temperatures in oC, concentrations as kg N per kg DM.
type SpeciesConfig struct {
	Name    string `yaml:"name"`
	Family  string `yaml:"family"`  // grass, legume or forb
	Pathway string `yaml:"pathway"` // C3 or C4
	Annual  bool   `yaml:"annual"`

	// Initial state
	InitialShootDM     float64   `yaml:"initial_shoot_dm"`
	InitialRootDM      float64   `yaml:"initial_root_dm"`
	InitialRootDepth   float64   `yaml:"initial_root_depth"`
	InitialDMFractions []float64 `yaml:"initial_dm_fractions"` // leaf1-4, stem1-4, stolon1-3

	// Photosynthesis
	ReferencePhotosynthesisRate float64 `yaml:"reference_photosynthesis_rate"` // mg CO2/m2 leaf/s
	PhotosyntheticEfficiency    float64 `yaml:"photosynthetic_efficiency"`     // mg CO2/J
	PhotosynthesisCurveFactor   float64 `yaml:"photosynthesis_curve_factor"`
	FractionPAR                 float64 `yaml:"fraction_par"`
	LightExtinctionCoefficient  float64 `yaml:"light_extinction_coefficient"`
	GenericGLF                  float64 `yaml:"generic_glf"`
	SoilFertilityGLF            float64 `yaml:"soil_fertility_glf"`

	// Respiration
	MaintenanceRespirationCoef float64 `yaml:"maintenance_respiration_coef"`
	GrowthRespirationCoef      float64 `yaml:"growth_respiration_coef"`

	// Temperature response
	GrowthTmin float64 `yaml:"growth_tmin"`
	GrowthTopt float64 `yaml:"growth_topt"`
	GrowthTq   float64 `yaml:"growth_tq"`

	// Extreme temperatures
	HeatOnsetT   float64 `yaml:"heat_onset_t"`
	HeatFullT    float64 `yaml:"heat_full_t"`
	HeatSumT     float64 `yaml:"heat_sum_t"`
	HeatRecoverT float64 `yaml:"heat_recover_t"`
	ColdOnsetT   float64 `yaml:"cold_onset_t"`
	ColdFullT    float64 `yaml:"cold_full_t"`
	ColdSumT     float64 `yaml:"cold_sum_t"`
	ColdRecoverT float64 `yaml:"cold_recover_t"`

	// Atmospheric CO2
	ReferenceCO2          float64 `yaml:"reference_co2"`
	CO2PhotosynthesisCoef float64 `yaml:"co2_photosynthesis_coef"`
	CO2NUptakeOffset      float64 `yaml:"co2_n_uptake_offset"`
	CO2NUptakeMinimum     float64 `yaml:"co2_n_uptake_minimum"`
	CO2NUptakeExponent    float64 `yaml:"co2_n_uptake_exponent"`

	// Allocation
	MaxRootAllocation               float64 `yaml:"max_root_allocation"`
	ShootSeasonalAllocationIncrease float64 `yaml:"shoot_seasonal_allocation_increase"`
	DayInitHigherShootAllocation    int     `yaml:"day_init_higher_shoot_allocation"`
	HigherShootAllocationPeriods    []int   `yaml:"higher_shoot_allocation_periods"` // onset, plateau, decline
	FracToLeaf                      float64 `yaml:"frac_to_leaf"`
	FracToStolon                    float64 `yaml:"frac_to_stolon"`
	DynamicLeafFraction             bool    `yaml:"dynamic_leaf_fraction"`

	// Canopy and roots
	SpecificLeafArea       float64   `yaml:"specific_leaf_area"`   // m2/kg
	SpecificRootLength     float64   `yaml:"specific_root_length"` // m/g
	HeightMass             []float64 `yaml:"height_mass"`
	HeightValues           []float64 `yaml:"height_values"`
	MinimumHeight          float64   `yaml:"minimum_height"`
	Albedo                 float64   `yaml:"albedo"`
	MaxStomatalConductance float64   `yaml:"max_stomatal_conductance"`
	HalfSatStomatalRadn    float64   `yaml:"half_sat_stomatal_radn"`
	VPDValues              []float64 `yaml:"vpd_values"`
	VPDFactors             []float64 `yaml:"vpd_factors"`

	// Tissue turnover
	TurnoverLiveToDead     float64 `yaml:"turnover_live_to_dead"`
	TurnoverDeadToLitter   float64 `yaml:"turnover_dead_to_litter"`
	TurnoverRootSenescence float64 `yaml:"turnover_root_senescence"`
	TurnoverTmin           float64 `yaml:"turnover_tmin"`
	TurnoverTopt           float64 `yaml:"turnover_topt"`
	TurnoverWaterFactorMax float64 `yaml:"turnover_water_factor_max"`
	TurnoverGLFWaterOpt    float64 `yaml:"turnover_glf_water_opt"`
	StockParameter         float64 `yaml:"stock_parameter"`
	StockingRate           float64 `yaml:"stocking_rate"`

	// Digestibility
	DigestibilityLive float64 `yaml:"digestibility_live"`
	DigestibilityDead float64 `yaml:"digestibility_dead"`

	// Removal
	MinimumGreenWt     float64 `yaml:"minimum_green_wt"`
	PreferenceForGreen float64 `yaml:"preference_for_green"`
	PreferenceForDead  float64 `yaml:"preference_for_dead"`

	// Nitrogen
	LeafNopt         float64 `yaml:"leaf_n_opt"`
	LeafNmax         float64 `yaml:"leaf_n_max"`
	LeafNmin         float64 `yaml:"leaf_n_min"`
	RelativeNStems   float64 `yaml:"relative_n_stems"`
	RelativeNStolons float64 `yaml:"relative_n_stolons"`
	RelativeNRoots   float64 `yaml:"relative_n_roots"`
	RelativeNStage2  float64 `yaml:"relative_n_stage2"`
	RelativeNStage3  float64 `yaml:"relative_n_stage3"`
	MinimumNFixation float64 `yaml:"minimum_n_fixation"`
	MaximumNFixation float64 `yaml:"maximum_n_fixation"`
	KappaNRemob2     float64 `yaml:"kappa_n_remob2"`
	KappaNRemob3     float64 `yaml:"kappa_n_remob3"`
	KappaNRemob4     float64 `yaml:"kappa_n_remob4"`
	KappaCRemob      float64 `yaml:"kappa_c_remob"`
	FacCNRemob       float64 `yaml:"fac_cn_remob"`
	DilutionCoefN    float64 `yaml:"dilution_coef_n"`

	// Water and soil N uptake
	WaterStressExponent     float64 `yaml:"water_stress_exponent"`
	WaterLoggingCoefficient float64 `yaml:"water_logging_coefficient"`
	AltWaterUptake          bool    `yaml:"alt_water_uptake"`
	AltNUptake              bool    `yaml:"alt_n_uptake"`
	ReferenceKSat           float64 `yaml:"reference_ksat"` // mm/day
	ReferenceRLD            float64 `yaml:"reference_rld"`  // mm/mm3
	KuNH4                   float64 `yaml:"ku_nh4"`
	KuNO3                   float64 `yaml:"ku_no3"`

	// Roots
	MaximumRootDepth     float64 `yaml:"maximum_root_depth"`
	RootDistribution     string  `yaml:"root_distribution"` // homogeneous or expolinear
	ExpoLinearDepthParam float64 `yaml:"expo_linear_depth_param"`
	ExpoLinearCurveParam float64 `yaml:"expo_linear_curve_param"`

	// Annual phenology (day and month of emergence and anthesis)
	EmergenceDay         int     `yaml:"emergence_day"`
	EmergenceMonth       int     `yaml:"emergence_month"`
	AnthesisDay          int     `yaml:"anthesis_day"`
	AnthesisMonth        int     `yaml:"anthesis_month"`
	DaysToMature         int     `yaml:"days_to_mature"`
	RootDepthAtEmergence float64 `yaml:"root_depth_at_emergence"`
}

// Initial DM fractions by family: leaf1-4, stem1-4, stolon1-3.
var (
	grassDMFractions  = []float64{0.15, 0.25, 0.25, 0.05, 0.05, 0.10, 0.10, 0.05, 0.00, 0.00, 0.00}
	legumeDMFractions = []float64{0.20, 0.25, 0.25, 0.00, 0.02, 0.04, 0.04, 0.00, 0.06, 0.12, 0.12}
	forbDMFractions   = []float64{0.20, 0.20, 0.15, 0.05, 0.15, 0.15, 0.10, 0.00, 0.00, 0.00, 0.00}
)

// DefaultDMFractions returns the initial DM fractions for a species family.
func DefaultDMFractions(family string) []float64 {
	f := strings.ToLower(family)
	var src []float64
	switch {
	case strings.Contains(f, "grass"):
		src = grassDMFractions
	case strings.Contains(f, "legume"):
		src = legumeDMFractions
	default:
		src = forbDMFractions
	}
	return append([]float64(nil), src...)
}

// DefaultSpecies returns the baseline parameter set for a species family.
// Species entries in a config file are decoded on top of this baseline.
func DefaultSpecies(family string) SpeciesConfig {
	s := SpeciesConfig{
		Family:  family,
		Pathway: "C3",

		InitialShootDM:   2000,
		InitialRootDM:    500,
		InitialRootDepth: 750,

		ReferencePhotosynthesisRate: 1.0,
		PhotosyntheticEfficiency:    0.01,
		PhotosynthesisCurveFactor:   0.8,
		FractionPAR:                 0.5,
		LightExtinctionCoefficient:  0.5,
		GenericGLF:                  1.0,
		SoilFertilityGLF:            1.0,

		MaintenanceRespirationCoef: 0.03,
		GrowthRespirationCoef:      0.25,

		GrowthTmin: 2,
		GrowthTopt: 20,
		GrowthTq:   1.75,

		HeatOnsetT:   28,
		HeatFullT:    35,
		HeatSumT:     30,
		HeatRecoverT: 25,
		ColdOnsetT:   0,
		ColdFullT:    -3,
		ColdSumT:     20,
		ColdRecoverT: 0,

		ReferenceCO2:          380,
		CO2PhotosynthesisCoef: 700,
		CO2NUptakeOffset:      600,
		CO2NUptakeMinimum:     0.7,
		CO2NUptakeExponent:    2,

		MaxRootAllocation:               0.25,
		ShootSeasonalAllocationIncrease: 0.8,
		DayInitHigherShootAllocation:    232,
		HigherShootAllocationPeriods:    []int{30, 60, 30},
		FracToLeaf:                      0.7,
		FracToStolon:                    0.0,

		SpecificLeafArea:       20,
		SpecificRootLength:     75,
		HeightMass:             []float64{0, 1000, 2000, 3000, 4000},
		HeightValues:           []float64{0, 25, 75, 150, 250},
		MinimumHeight:          20,
		Albedo:                 0.26,
		MaxStomatalConductance: 0.011,
		HalfSatStomatalRadn:    200,
		VPDValues:              []float64{0, 10, 50},
		VPDFactors:             []float64{1, 1, 1},

		TurnoverLiveToDead:     0.025,
		TurnoverDeadToLitter:   0.11,
		TurnoverRootSenescence: 0.02,
		TurnoverTmin:           2,
		TurnoverTopt:           20,
		TurnoverWaterFactorMax: 2,
		TurnoverGLFWaterOpt:    0.5,
		StockParameter:         0.05,

		DigestibilityLive: 0.6,
		DigestibilityDead: 0.2,

		MinimumGreenWt:     300,
		PreferenceForGreen: 1,
		PreferenceForDead:  1,

		LeafNopt:         0.04,
		LeafNmax:         0.05,
		LeafNmin:         0.012,
		RelativeNStems:   0.5,
		RelativeNStolons: 0.0,
		RelativeNRoots:   0.5,
		RelativeNStage2:  1,
		RelativeNStage3:  1,
		DilutionCoefN:    0.5,
		KappaNRemob4:     0.5,

		WaterStressExponent:     1,
		WaterLoggingCoefficient: 0.1,
		ReferenceKSat:           1000,
		ReferenceRLD:            2,
		KuNH4:                   0.5,
		KuNO3:                   0.95,

		MaximumRootDepth:     750,
		RootDistribution:     "expolinear",
		ExpoLinearDepthParam: 0.12,
		ExpoLinearCurveParam: 3.2,

		RootDepthAtEmergence: 50,
	}
	s.InitialDMFractions = DefaultDMFractions(family)
	if strings.Contains(strings.ToLower(family), "legume") {
		s.FracToStolon = 0.3
		s.FracToLeaf = 0.6
		s.RelativeNStolons = 0.5
		s.MinimumNFixation = 0.1
		s.MaximumNFixation = 0.6
	}
	return s
}

// UnmarshalYAML decodes a species entry on top of its family baseline, so a
// config file only needs to list the parameters that differ.
func (s *SpeciesConfig) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Family string `yaml:"family"`
	}
	if err := value.Decode(&head); err != nil {
		return err
	}
	*s = DefaultSpecies(head.Family)

	type plain SpeciesConfig
	return value.Decode((*plain)(s))
}

// MaxSRRatio is the maximum shoot:root ratio implied by MaxRootAllocation.
func (s *SpeciesConfig) MaxSRRatio() float64 {
	if s.MaxRootAllocation <= 0 {
		return 0
	}
	return (1 - s.MaxRootAllocation) / s.MaxRootAllocation
}
