package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sward"
	"github.com/pthm-cable/sward/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in days (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files (overrides output.snapshot)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, database and config snapshot")
	seed := flag.Int64("seed", 0, "Synthetic weather seed (0 = use config)")
	days := flag.Int("days", 0, "Days to simulate (0 = use config)")
	workers := flag.Int("workers", -1, "Growth workers (-1 = use config, 0 = GOMAXPROCS)")
	resume := flag.String("resume", "", "Snapshot file to resume from")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// CLI overrides
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *seed != 0 {
		cfg.Weather.Seed = *seed
	}
	if *days > 0 {
		cfg.Simulation.Days = *days
	}
	if *workers >= 0 {
		cfg.Simulation.Workers = *workers
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	if err := run(cfg, logger, *logStats, *snapshotDir, *resume); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, logStats bool, snapshotDir, resume string) error {
	opts := sward.Options{
		Logger:      logger,
		LogStats:    logStats,
		SnapshotDir: snapshotDir,
	}

	dir := cfg.Output.Dir
	if dir != "" {
		if cfg.Output.CSV {
			om, err := telemetry.NewOutputManager(dir)
			if err != nil {
				return err
			}
			defer om.Close()
			if err := om.WriteConfig(cfg); err != nil {
				return err
			}
			opts.Output = om
		}
		if cfg.Output.SQLite {
			db, err := telemetry.OpenSQLite(filepath.Join(dir, "sward.db"))
			if err != nil {
				return err
			}
			defer db.Close()
			opts.SQLite = db
		}
		if cfg.Output.Events {
			events, err := telemetry.NewEventLog(dir)
			if err != nil {
				return err
			}
			defer events.Close()
			opts.Events = events
		}
		if cfg.Output.Snapshot && opts.SnapshotDir == "" {
			opts.SnapshotDir = filepath.Join(dir, "snapshots")
		}
	}

	sw, err := sward.New(cfg, opts)
	if err != nil {
		return err
	}
	// Deferred after the sinks so the lifetime summary is written before they close
	defer func() {
		if err := sw.Close(); err != nil {
			slog.Error("closing sward", "error", err)
		}
	}()

	if resume != "" {
		snap, err := telemetry.LoadSnapshot(resume)
		if err != nil {
			return err
		}
		if err := sw.Restore(snap); err != nil {
			return err
		}
		slog.Info("resumed from snapshot", "path", resume, "day", snap.Day, "date", snap.Date)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	remaining := cfg.Simulation.Days - sw.Day()
	if remaining <= 0 {
		slog.Info("nothing to simulate", "days", cfg.Simulation.Days, "resumed_day", sw.Day())
		return nil
	}
	slog.Info("starting simulation",
		"start", cfg.Simulation.StartDate,
		"days", remaining,
		"species", sw.Names(),
		"arbitrator", cfg.Sward.Arbitrator,
		"seed", cfg.Weather.Seed,
		"output_dir", dir,
	)

	start := time.Now()
	err = sw.Run(ctx, remaining)
	elapsed := time.Since(start)

	if errors.Is(err, context.Canceled) {
		slog.Info("simulation interrupted", "day", sw.Day(), "date", sw.Date().Format(config.DateLayout))
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("simulation complete",
		"days", sw.Day(),
		"last_date", sw.Date().Format(config.DateLayout),
		"elapsed", elapsed.Round(time.Millisecond),
		"days_per_sec", float64(remaining)/elapsed.Seconds(),
	)
	return nil
}
