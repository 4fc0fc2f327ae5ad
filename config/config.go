// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// DateLayout is the date format used in config files and schedules.
const DateLayout = "2006-01-02"

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Weather    WeatherConfig    `yaml:"weather"`
	Soil       SoilConfig       `yaml:"soil"`
	Species    []SpeciesConfig  `yaml:"species"`
	Sward      SwardConfig      `yaml:"sward"`
	Management ManagementConfig `yaml:"management"`
	Output     OutputConfig     `yaml:"output"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds run length and stepping parameters.
type SimulationConfig struct {
	StartDate string `yaml:"start_date"` // YYYY-MM-DD
	Days      int    `yaml:"days"`
	Workers   int    `yaml:"workers"` // 0 = GOMAXPROCS
}

// WeatherConfig selects the daily weather source.
type WeatherConfig struct {
	File     string  `yaml:"file"`     // CSV file; empty selects the synthetic generator
	Latitude float64 `yaml:"latitude"` // degrees, negative south
	CO2      float64 `yaml:"co2"`      // ppm, used when the file has no co2 column
	Seed     int64   `yaml:"seed"`

	// Synthetic climate
	MeanTemp      float64 `yaml:"mean_temp"`
	TempAmplitude float64 `yaml:"temp_amplitude"`
	DiurnalRange  float64 `yaml:"diurnal_range"`
	MeanRadn      float64 `yaml:"mean_radn"` // MJ/m2/day
	RadnAmplitude float64 `yaml:"radn_amplitude"`
	RainProb      float64 `yaml:"rain_prob"`
	RainMean      float64 `yaml:"rain_mean"` // mm on a wet day
}

// SoilConfig describes the soil profile.
type SoilConfig struct {
	Layers      []LayerConfig `yaml:"layers"`
	Drainage    float64       `yaml:"drainage"`    // fraction of water above DUL drained per day
	Evaporation float64       `yaml:"evaporation"` // fraction of PET lost from the top layer of bare soil
}

// LayerConfig holds one soil layer. Water contents are volumetric (mm/mm).
type LayerConfig struct {
	Thickness float64 `yaml:"thickness"` // mm
	LL15      float64 `yaml:"ll15"`
	DUL       float64 `yaml:"dul"`
	SAT       float64 `yaml:"sat"`
	SW        float64 `yaml:"sw"`   // initial water content
	LL        float64 `yaml:"ll"`   // crop lower limit
	KL        float64 `yaml:"kl"`   // water extraction coefficient
	KSat      float64 `yaml:"ksat"` // mm/day
	NH4       float64 `yaml:"nh4"`  // kg/ha
	NO3       float64 `yaml:"no3"`  // kg/ha
}

// SwardConfig selects the species sown and how shared soil resources are divided.
type SwardConfig struct {
	Sow        []string `yaml:"sow"`        // species names from the species list
	Arbitrator bool     `yaml:"arbitrator"` // share water and N through the sward arbitrator
}

// ManagementConfig holds the dated removal schedule.
type ManagementConfig struct {
	Schedule []string `yaml:"schedule"` // "YYYY-MM-DD action(amount) [species]"
}

// OutputConfig holds output sink settings.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	CSV      bool   `yaml:"csv"`
	SQLite   bool   `yaml:"sqlite"`
	Events   bool   `yaml:"events"` // zstd-compressed JSONL event log
	Snapshot bool   `yaml:"snapshot"`
}

// TelemetryConfig holds telemetry collection parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // days
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// BookmarksConfig holds stress bookmark detection thresholds.
type BookmarksConfig struct {
	Drought      DroughtConfig      `yaml:"drought"`
	NDeficit     NDeficitConfig     `yaml:"n_deficit"`
	BiomassCrash BiomassCrashConfig `yaml:"biomass_crash"`
	TempDamage   TempDamageConfig   `yaml:"temp_damage"`
}

// DroughtConfig holds drought onset detection parameters.
type DroughtConfig struct {
	Threshold float64 `yaml:"threshold"` // glf_water below this counts as a dry day
	MinDays   int     `yaml:"min_days"`
}

// NDeficitConfig holds N deficit detection parameters.
type NDeficitConfig struct {
	Threshold float64 `yaml:"threshold"`
	MinDays   int     `yaml:"min_days"`
}

// BiomassCrashConfig holds biomass crash detection parameters.
type BiomassCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	WindowDays  int     `yaml:"window_days"`
}

// TempDamageConfig holds heat/cold damage detection parameters.
type TempDamageConfig struct {
	Threshold float64 `yaml:"threshold"` // stress factor below this is reported
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	StartDate    time.Time      // Simulation.StartDate parsed
	SpeciesIndex map[string]int // name -> index into Species
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load reads configuration from a YAML file, using embedded defaults for missing values.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Validate(data); err != nil {
			return nil, fmt.Errorf("validating config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived fills derived values and checks cross-field consistency.
func (c *Config) computeDerived() error {
	start, err := time.Parse(DateLayout, c.Simulation.StartDate)
	if err != nil {
		return fmt.Errorf("simulation.start_date: %w", err)
	}
	c.Derived.StartDate = start

	c.Derived.SpeciesIndex = make(map[string]int, len(c.Species))
	for i := range c.Species {
		sp := &c.Species[i]
		if sp.Name == "" {
			return fmt.Errorf("species[%d]: missing name", i)
		}
		if _, dup := c.Derived.SpeciesIndex[sp.Name]; dup {
			return fmt.Errorf("species %q defined twice", sp.Name)
		}
		if len(sp.InitialDMFractions) == 0 {
			sp.InitialDMFractions = DefaultDMFractions(sp.Family)
		}
		if len(sp.InitialDMFractions) != 11 {
			return fmt.Errorf("species %q: initial_dm_fractions needs 11 values, got %d",
				sp.Name, len(sp.InitialDMFractions))
		}
		if len(sp.HigherShootAllocationPeriods) != 3 {
			return fmt.Errorf("species %q: higher_shoot_allocation_periods needs 3 values", sp.Name)
		}
		c.Derived.SpeciesIndex[sp.Name] = i
	}

	// Sow every listed species if nothing was selected
	if len(c.Sward.Sow) == 0 {
		for _, sp := range c.Species {
			c.Sward.Sow = append(c.Sward.Sow, sp.Name)
		}
	}
	for _, name := range c.Sward.Sow {
		if _, ok := c.Derived.SpeciesIndex[name]; !ok {
			return fmt.Errorf("sward.sow: unknown species %q", name)
		}
	}

	if len(c.Soil.Layers) == 0 {
		return fmt.Errorf("soil: no layers")
	}
	for i, l := range c.Soil.Layers {
		if l.Thickness <= 0 {
			return fmt.Errorf("soil.layers[%d]: thickness must be positive", i)
		}
		if !(l.LL15 <= l.DUL && l.DUL <= l.SAT) {
			return fmt.Errorf("soil.layers[%d]: need ll15 <= dul <= sat", i)
		}
	}
	return nil
}

// SpeciesByName returns the named species parameter set.
func (c *Config) SpeciesByName(name string) (SpeciesConfig, bool) {
	i, ok := c.Derived.SpeciesIndex[name]
	if !ok {
		for j, sp := range c.Species {
			if strings.EqualFold(sp.Name, name) {
				return c.Species[j], true
			}
		}
		return SpeciesConfig{}, false
	}
	return c.Species[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
