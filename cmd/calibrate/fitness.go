package main

import (
	"context"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sward"
)

// failedFitness is the fitness of a run that stopped with an error or
// did not reach every observation.
const failedFitness = 1e6

// simKey identifies one species report on one date.
type simKey struct {
	date    string
	species string
}

// FitnessEvaluator runs headless sward simulations and scores them against
// the observations.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	obs        []Observation
	want       map[simKey]bool
	days       int

	mu      sync.Mutex
	lastErr error
}

// NewFitnessEvaluator creates an evaluator that runs from the configured
// start date up to the last observation.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, obs []Observation) *FitnessEvaluator {
	want := make(map[simKey]bool, len(obs))
	for _, o := range obs {
		want[simKey{o.Date.Format(config.DateLayout), o.Species}] = true
	}
	days := int(lastDate(obs).Sub(baseCfg.Derived.StartDate).Hours()/24) + 1
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		obs:        obs,
		want:       want,
		days:       days,
	}
}

// LastError returns the error of the most recent failed evaluation.
func (fe *FitnessEvaluator) LastError() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastErr
}

// Evaluate computes fitness for raw parameter values (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	sim, err := fe.Simulate(x)
	fe.mu.Lock()
	fe.lastErr = err
	fe.mu.Unlock()
	if err != nil {
		return failedFitness
	}
	return Score(fe.obs, sim)
}

// Simulate runs the sward with the given raw parameter values and returns
// the reports matching the observations.
func (fe *FitnessEvaluator) Simulate(x []float64) (map[simKey]components.Report, error) {
	cfg := *fe.baseConfig
	if err := fe.params.ApplyToConfig(&cfg, x); err != nil {
		return nil, err
	}
	cfg.Simulation.Days = max(cfg.Simulation.Days, fe.days)

	sim := make(map[simKey]components.Report, len(fe.want))
	s, err := sward.New(&cfg, sward.Options{
		DailyCallback: func(day int, reports []components.Report) {
			for _, r := range reports {
				if k := (simKey{r.Date, r.Species}); fe.want[k] {
					sim[k] = r
				}
			}
		},
	})
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.Run(context.Background(), fe.days); err != nil {
		return nil, err
	}
	return sim, nil
}

// Score is the normalised root mean square error of the simulated values,
// averaged over the observed fields. Each field's RMSE is divided by its
// mean observed value so that fields in different units weigh alike.
func Score(obs []Observation, sim map[simKey]components.Report) float64 {
	observed := make(map[string][]float64)
	simulated := make(map[string][]float64)
	for _, o := range obs {
		r, ok := sim[simKey{o.Date.Format(config.DateLayout), o.Species}]
		if !ok {
			return failedFitness
		}
		observed[o.Field] = append(observed[o.Field], o.Value)
		simulated[o.Field] = append(simulated[o.Field], components.GetReportValue(&r, o.Field))
	}

	fields := make([]string, 0, len(observed))
	for f := range observed {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	total := 0.0
	for _, f := range fields {
		o, s := observed[f], simulated[f]
		rmse := floats.Distance(s, o, 2) / math.Sqrt(float64(len(o)))
		if mean := math.Abs(stat.Mean(o, nil)); mean > 0 {
			rmse /= mean
		}
		total += rmse
	}
	return total / float64(len(fields))
}

// fitRow is one line of the best fit comparison.
type fitRow struct {
	Date      string  `csv:"date"`
	Species   string  `csv:"species"`
	Field     string  `csv:"field"`
	Observed  float64 `csv:"observed"`
	Simulated float64 `csv:"simulated"`
}

// fitRows pairs each observation with its simulated value.
func fitRows(obs []Observation, sim map[simKey]components.Report) []*fitRow {
	rows := make([]*fitRow, 0, len(obs))
	for _, o := range obs {
		date := o.Date.Format(config.DateLayout)
		row := &fitRow{Date: date, Species: o.Species, Field: o.Field, Observed: o.Value, Simulated: math.NaN()}
		if r, ok := sim[simKey{date, o.Species}]; ok {
			row.Simulated = components.GetReportValue(&r, o.Field)
		}
		rows = append(rows, row)
	}
	return rows
}
