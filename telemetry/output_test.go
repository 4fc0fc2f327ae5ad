package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/sward/components"
)

func TestNewOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// nil manager accepts writes
	if err := om.WriteDaily([]components.Report{{Species: "ryegrass"}}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_Files(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for day := 1; day <= 2; day++ {
		reports := []components.Report{
			{Date: fmt.Sprintf("2001-01-%02d", day), Species: "ryegrass", Alive: true, ShootDM: 1000},
			{Date: fmt.Sprintf("2001-01-%02d", day), Species: "whiteclover", Alive: true, ShootDM: 400},
		}
		if err := om.WriteDaily(reports); err != nil {
			t.Fatalf("WriteDaily: %v", err)
		}
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndDay: 2, Date: "2001-01-02"}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	perf := PerfStats{
		AvgDayDuration: time.Millisecond,
		SpeciesAvg:     map[string]time.Duration{"ryegrass": 300 * time.Microsecond},
		SpeciesPct:     map[string]float64{"ryegrass": 100},
	}
	if err := om.WritePerf(perf, 2); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkNDeficit, Day: 2, Species: "ryegrass"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	lt := NewLifetimeTracker()
	lt.Register("ryegrass", 0)
	if err := om.WriteLifetimes(lt); err != nil {
		t.Fatalf("WriteLifetimes: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "daily.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// one header and four rows
	if len(lines) != 5 {
		t.Fatalf("daily.csv has %d lines, want 5:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "date,species") {
		t.Errorf("daily.csv header = %q", lines[0])
	}
	if strings.Count(string(data), "date,species") != 1 {
		t.Error("header written more than once")
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "perf_species.csv", "bookmarks.csv", "lifetimes.json"} {
		if info, err := os.Stat(filepath.Join(dir, name)); err != nil || info.Size() == 0 {
			t.Errorf("%s missing or empty", name)
		}
	}
}
