// Package main fits species parameters to observed pasture data with
// CMA-ES.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sward"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	obsPath := flag.String("observations", "", "Observation CSV (date,species,field,value)")
	species := flag.String("species", "ryegrass", "Species whose parameters are fitted")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" || *obsPath == "" {
		log.Fatal("--output and --observations are required")
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()
	sward.SetLogWriter(io.Discard)

	obs, err := ReadObservationsFile(*obsPath, baseCfg)
	if err != nil {
		log.Fatalf("failed to read observations: %v", err)
	}

	params := NewParamVector(*species)
	defaults, err := params.ExtractFromConfig(baseCfg)
	if err != nil {
		log.Fatal(err)
	}
	evaluator := NewFitnessEvaluator(params, baseCfg, obs)

	// Set up CMA-ES from the configured values
	dim := params.Dim()
	initX := params.Normalize(params.Clamp(defaults))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	// Open log file
	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	// Track evaluations and timing
	evalCount := 0
	bestFitness := evaluator.Evaluate(params.Clamp(defaults))
	bestParams := params.Clamp(defaults)
	startTime := time.Now()
	fmt.Printf("Fitness of the configured parameters: %.4f\n", bestFitness)

	// Wrap the function to log evaluations
	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		// Clamped values are the ones actually used
		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = clamped
		}

		row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness)}
		for _, v := range clamped {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		logWriter.Write(row)
		logWriter.Flush()

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

		status := fmt.Sprintf("nrmse=%.4f", fitness)
		if err := evaluator.LastError(); err != nil {
			status = "failed: " + err.Error()
		}
		fmt.Printf("Eval %d/%d: %s (best=%.4f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, status, bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Calibrating %d %s parameters against %d observations, population=%d, max_evals=%d\n",
		dim, *species, len(obs), popSize, *maxEvals)

	if _, err := optimize.Minimize(problem, initX, settings, method); err != nil {
		log.Printf("optimization ended: %v", err)
	}

	totalTime := time.Since(startTime)
	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f (was %.6f)\n", spec.Path, bestParams[i], defaults[i])
	}

	// Save best config
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		log.Fatal(err)
	}
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}

	// Save observed against simulated for the best parameters
	sim, err := evaluator.Simulate(bestParams)
	if err != nil {
		log.Printf("failed to rerun best parameters: %v", err)
		return
	}
	fitPath := filepath.Join(*outputDir, "best_fit.csv")
	f, err := os.Create(fitPath)
	if err != nil {
		log.Printf("failed to create best fit: %v", err)
		return
	}
	defer f.Close()
	if err := gocsv.MarshalFile(fitRows(obs, sim), f); err != nil {
		log.Printf("failed to write best fit: %v", err)
	} else {
		fmt.Printf("Best fit saved to: %s\n", fitPath)
	}
}
