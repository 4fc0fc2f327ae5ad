package telemetry

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/sward/components"
)

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "sward.sqlite")
	sink, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	reports := []components.Report{
		{Date: "2001-01-01", Species: "ryegrass", Alive: true, ShootDM: 1800, RootDM: 600, GLFWater: 0.9},
		{Date: "2001-01-01", Species: "whiteclover", Alive: true, ShootDM: 450, NFixed: 0.3},
	}
	sink.WriteDaily(reports)
	// the sink keeps its own copy
	reports[0].ShootDM = -1
	sink.WriteDaily([]components.Report{{Date: "2001-01-02", Species: "ryegrass", Alive: false}})
	sink.WriteWindow(WindowStats{WindowEndDay: 2, Date: "2001-01-02", AliveSpecies: 1, ShootDM: 2250})
	sink.WriteBookmark(Bookmark{Type: BookmarkCropDeath, Day: 2, Date: "2001-01-02", Species: "ryegrass"})
	sink.RecordSnapshot(2, "2001-01-02", "snapshots/snapshot_2.json")

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// writes after Close are dropped
	sink.WriteBookmark(Bookmark{Type: BookmarkNDeficit})

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM daily`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("daily rows = %d, want 3", n)
	}

	var shoot, glf float64
	if err := db.QueryRow(`SELECT shoot_dm, glf_water FROM daily WHERE date='2001-01-01' AND species='ryegrass'`).Scan(&shoot, &glf); err != nil {
		t.Fatal(err)
	}
	if shoot != 1800 || glf != 0.9 {
		t.Errorf("ryegrass row = %v, %v", shoot, glf)
	}

	var alive int
	if err := db.QueryRow(`SELECT alive FROM daily WHERE date='2001-01-02'`).Scan(&alive); err != nil {
		t.Fatal(err)
	}
	if alive != 0 {
		t.Errorf("alive = %d, want 0", alive)
	}

	var typ string
	if err := db.QueryRow(`SELECT type FROM bookmarks WHERE day=2`).Scan(&typ); err != nil {
		t.Fatal(err)
	}
	if typ != string(BookmarkCropDeath) {
		t.Errorf("bookmark type = %s", typ)
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM fields`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != len(components.ReportFieldDescriptors()) {
		t.Errorf("fields rows = %d, want %d", n, len(components.ReportFieldDescriptors()))
	}

	var windowShoot float64
	if err := db.QueryRow(`SELECT shoot_dm FROM windows WHERE window_end=2`).Scan(&windowShoot); err != nil {
		t.Fatal(err)
	}
	if windowShoot != 2250 {
		t.Errorf("window shoot_dm = %v", windowShoot)
	}
}
