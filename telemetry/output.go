package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// csvFile is an output CSV that writes its header with the first records.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	daily     *csvFile
	telemetry *csvFile
	perf      *csvFile
	species   *csvFile
	bookmarks *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, out := range []struct {
		name string
		dst  **csvFile
	}{
		{"daily.csv", &om.daily},
		{"telemetry.csv", &om.telemetry},
		{"perf.csv", &om.perf},
		{"perf_species.csv", &om.species},
		{"bookmarks.csv", &om.bookmarks},
	} {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", out.name, err)
		}
		*out.dst = &csvFile{f: f}
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteDaily writes one day of plant reports to daily.csv.
func (om *OutputManager) WriteDaily(reports []components.Report) error {
	if om == nil || len(reports) == 0 {
		return nil
	}
	if err := om.daily.write(reports); err != nil {
		return fmt.Errorf("writing daily report: %w", err)
	}
	return nil
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv and the
// per-species growth timings to perf_species.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	if rows := stats.SpeciesRows(windowEnd); len(rows) > 0 {
		if err := om.species.write(rows); err != nil {
			return fmt.Errorf("writing species perf: %w", err)
		}
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteLifetimes saves the per-species lifetime totals as JSON.
func (om *OutputManager) WriteLifetimes(lt *LifetimeTracker) error {
	if om == nil || lt == nil {
		return nil
	}

	data, err := json.MarshalIndent(lt.All(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lifetimes: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "lifetimes.json"), data, 0644); err != nil {
		return fmt.Errorf("writing lifetimes.json: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.daily, om.telemetry, om.perf, om.species, om.bookmarks} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
