package weather

import (
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/sward/config"
)

// Synthetic generates a seeded daily climate: sinusoidal seasonal
// temperature and radiation, peaking in midsummer for the hemisphere of the
// latitude, with random wet days.
func Synthetic(cfg config.WeatherConfig, start time.Time, days int) []Day {
	rng := rand.New(rand.NewSource(cfg.Seed))
	// Midsummer day of year
	peak := 15.0
	if cfg.Latitude > 0 {
		peak = 196
	}

	out := make([]Day, days)
	for i := range out {
		date := start.AddDate(0, 0, i)
		season := math.Cos(2 * math.Pi * (float64(date.YearDay()) - peak) / 365)

		tmean := cfg.MeanTemp + cfg.TempAmplitude*season + rng.NormFloat64()*1.5
		half := 0.5 * cfg.DiurnalRange * (0.8 + 0.4*rng.Float64())

		rain := 0.0
		wet := rng.Float64() < cfg.RainProb
		if wet {
			rain = rng.ExpFloat64() * cfg.RainMean
		}
		radn := cfg.MeanRadn + cfg.RadnAmplitude*season
		if wet {
			radn *= 0.6
		}
		radn = math.Max(1, radn*(0.85+0.3*rng.Float64()))

		minT := tmean - half
		out[i] = Day{
			Date: date,
			MaxT: tmean + half,
			MinT: minT,
			Radn: radn,
			Rain: rain,
			// dew point near the minimum temperature
			VP: svp(minT - 1),
		}
	}
	return out
}

// svp is the saturated vapour pressure (hPa).
func svp(t float64) float64 {
	return 6.1078 * math.Exp(17.269*t/(237.3+t))
}
