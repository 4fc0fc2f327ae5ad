package telemetry

import (
	"testing"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

func init() {
	config.MustInit("")
}

func testBookmarksConfig() config.BookmarksConfig {
	var c config.BookmarksConfig
	c.Drought.Threshold = 0.5
	c.Drought.MinDays = 3
	c.NDeficit.Threshold = 0.6
	c.NDeficit.MinDays = 2
	c.BiomassCrash.DropPercent = 0.4
	c.BiomassCrash.WindowDays = 5
	c.TempDamage.Threshold = 0.8
	return c
}

// healthy is a report with no stress.
func healthy(dm float64) components.Report {
	return components.Report{
		Species: "ryegrass", Date: "2001-01-01", Alive: true, ShootDM: dm,
		GLFWater: 1, GLFN: 1, HeatEffect: 1, ColdEffect: 1,
	}
}

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_DroughtOnset(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(), 10)

	var fired []int
	for day := 1; day <= 6; day++ {
		r := healthy(2000)
		r.GLFWater = 0.3
		if hasBookmark(bd.Check(day, []components.Report{r}), BookmarkDroughtOnset) {
			fired = append(fired, day)
		}
	}
	// fires once, on the third dry day
	if len(fired) != 1 || fired[0] != 3 {
		t.Errorf("drought onset fired on days %v, want [3]", fired)
	}

	// rain ends the spell, a new one fires again
	bd.Check(7, []components.Report{healthy(2000)})
	for day := 8; day <= 10; day++ {
		r := healthy(2000)
		r.GLFWater = 0.2
		bms := bd.Check(day, []components.Report{r})
		if day == 10 && !hasBookmark(bms, BookmarkDroughtOnset) {
			t.Error("second drought not reported")
		}
	}
}

func TestBookmarkDetector_NDeficit(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(), 10)
	r := healthy(2000)
	r.GLFN = 0.5
	if hasBookmark(bd.Check(1, []components.Report{r}), BookmarkNDeficit) {
		t.Error("N deficit reported after one day")
	}
	bms := bd.Check(2, []components.Report{r})
	if !hasBookmark(bms, BookmarkNDeficit) {
		t.Fatal("expected n_deficit bookmark")
	}
	if bms[0].Species != "ryegrass" || bms[0].Day != 2 {
		t.Errorf("bookmark = %+v", bms[0])
	}
}

func TestBookmarkDetector_BiomassCrash(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(), 10)
	for day := 1; day <= 3; day++ {
		bd.Check(day, []components.Report{healthy(2000)})
	}
	// 50% below the recent peak
	if !hasBookmark(bd.Check(4, []components.Report{healthy(1000)}), BookmarkBiomassCrash) {
		t.Error("expected biomass_crash bookmark")
	}
	// the crashed level is the new baseline
	if hasBookmark(bd.Check(5, []components.Report{healthy(950)}), BookmarkBiomassCrash) {
		t.Error("crash reported twice")
	}
}

func TestBookmarkDetector_DefoliationIsNotACrash(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(), 10)
	for day := 1; day <= 3; day++ {
		bd.Check(day, []components.Report{healthy(3000)})
	}
	grazed := healthy(1500)
	grazed.Defoliated = 1500
	if hasBookmark(bd.Check(4, []components.Report{grazed}), BookmarkBiomassCrash) {
		t.Error("grazing reported as a biomass crash")
	}
	if hasBookmark(bd.Check(5, []components.Report{healthy(1520)}), BookmarkBiomassCrash) {
		t.Error("regrowth after grazing reported as a crash")
	}
}

func TestBookmarkDetector_TempDamage(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(), 10)

	hot := healthy(2000)
	hot.HeatEffect = 0.6
	if !hasBookmark(bd.Check(1, []components.Report{hot}), BookmarkHeatDamage) {
		t.Fatal("expected heat_damage bookmark")
	}
	hot.HeatEffect = 0.7
	if hasBookmark(bd.Check(2, []components.Report{hot}), BookmarkHeatDamage) {
		t.Error("heat damage reported again before recovery")
	}
	bd.Check(3, []components.Report{healthy(2000)})
	hot.HeatEffect = 0.5
	if !hasBookmark(bd.Check(4, []components.Report{hot}), BookmarkHeatDamage) {
		t.Error("heat damage after recovery not reported")
	}

	cold := healthy(2000)
	cold.ColdEffect = 0.4
	if !hasBookmark(bd.Check(5, []components.Report{cold}), BookmarkColdDamage) {
		t.Error("expected cold_damage bookmark")
	}
}

func TestBookmarkDetector_CropDeath(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(), 10)
	bd.Check(1, []components.Report{healthy(2000)})

	dead := components.Report{Species: "ryegrass", Alive: false}
	if !hasBookmark(bd.Check(2, []components.Report{dead}), BookmarkCropDeath) {
		t.Error("expected crop_death bookmark")
	}
	if len(bd.Check(3, []components.Report{dead})) != 0 {
		t.Error("dead crop keeps raising bookmarks")
	}
}
