// Package weather supplies daily met data to the sward: a CSV reader, a
// seeded synthetic generator and a Series cursor that acts as the
// simulation clock.
package weather

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sward/config"
)

// Day is one day of met data.
type Day struct {
	Date time.Time
	MaxT float64 // oC
	MinT float64 // oC
	Radn float64 // MJ/m2
	Rain float64 // mm
	VP   float64 // hPa
	CO2  float64 // ppm, 0 when not measured
}

// Tmean is the mean of the daily extremes.
func (d Day) Tmean() float64 { return 0.5 * (d.MaxT + d.MinT) }

// dayCSV is the on-disk row layout.
type dayCSV struct {
	Date string  `csv:"date"`
	MaxT float64 `csv:"maxt"`
	MinT float64 `csv:"mint"`
	Radn float64 `csv:"radn"`
	Rain float64 `csv:"rain"`
	VP   float64 `csv:"vp"`
	CO2  float64 `csv:"co2,omitempty"`
}

// Read parses daily met rows from CSV. Dates must be consecutive.
func Read(r io.Reader) ([]Day, error) {
	var rows []*dayCSV
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading weather: %w", err)
	}
	days := make([]Day, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse(config.DateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("weather row %d: %w", i+1, err)
		}
		if i > 0 && !date.Equal(days[i-1].Date.AddDate(0, 0, 1)) {
			return nil, fmt.Errorf("weather row %d: %s does not follow %s",
				i+1, row.Date, days[i-1].Date.Format(config.DateLayout))
		}
		if row.MinT > row.MaxT {
			return nil, fmt.Errorf("weather row %d: mint %.1f above maxt %.1f", i+1, row.MinT, row.MaxT)
		}
		days = append(days, Day{
			Date: date,
			MaxT: row.MaxT,
			MinT: row.MinT,
			Radn: row.Radn,
			Rain: row.Rain,
			VP:   row.VP,
			CO2:  row.CO2,
		})
	}
	return days, nil
}

// ReadFile parses a met file.
func ReadFile(path string) ([]Day, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening weather file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Write writes days as CSV.
func Write(w io.Writer, days []Day) error {
	rows := make([]*dayCSV, len(days))
	for i, d := range days {
		rows[i] = &dayCSV{
			Date: d.Date.Format(config.DateLayout),
			MaxT: d.MaxT,
			MinT: d.MinT,
			Radn: d.Radn,
			Rain: d.Rain,
			VP:   d.VP,
			CO2:  d.CO2,
		}
	}
	return gocsv.Marshal(rows, w)
}

// DayLength returns the hours between the sun crossing the given angle
// (degrees, negative below the horizon) in the morning and in the evening.
func DayLength(latitude float64, doy int, sunAngle float64) float64 {
	const rad = math.Pi / 180
	dec := 23.45 * rad * math.Sin(2*math.Pi*float64(284+doy)/365)
	lat := latitude * rad
	cosH := (math.Sin(sunAngle*rad) - math.Sin(lat)*math.Sin(dec)) / (math.Cos(lat) * math.Cos(dec))
	switch {
	case cosH <= -1:
		return 24
	case cosH >= 1:
		return 0
	}
	return 2 * math.Acos(cosH) / rad / 15
}

// PET is the Priestley-Taylor potential evapotranspiration (mm/day).
func PET(radn, tmean float64) float64 {
	const alpha = 1.26
	// slope of the saturation curve over the psychrometric constant
	delta := 4098 * 0.6108 * math.Exp(17.27*tmean/(tmean+237.3)) / math.Pow(tmean+237.3, 2)
	gamma := 0.066
	// net radiation approximated from global radiation, over the latent heat
	rn := 0.6 * radn
	return math.Max(0, alpha*delta/(delta+gamma)*rn/2.45)
}
