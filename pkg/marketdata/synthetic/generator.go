// Package synthetic generates deterministic OHLCV series for tests and offline replays.
package synthetic

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/source"
)

// Generator produces OHLCV bars. A fixed seed gives reproducible output.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
	}
}

// Config describes the series to generate.
type Config struct {
	StartTime time.Time
	// Interval is the spacing between bars.
	Interval time.Duration
	Count    int
	// InitialPrice is the first open.
	InitialPrice float64
	// Step is added to the price every bar. It is the whole move when Volatility is 0.
	Step float64
	// Volatility scales the random component per bar (0.01 = 1%). Zero gives a linear series.
	Volatility float64
	// Trend is the total drift spread across the series.
	Trend      float64
	VolumeBase float64
	// VolumeVariance is the relative volume noise (0.0 to 1.0).
	VolumeVariance float64
}

// DefaultConfig returns a minute series with mild noise.
func DefaultConfig() Config {
	return Config{
		StartTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          10000,
		InitialPrice:   100.0,
		Step:           0,
		Volatility:     0.002,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Linear returns a noise-free series where bar i opens at price+step*i and closes at
// price+step*(i+1).
func Linear(start time.Time, interval time.Duration, count int, price, step float64) []source.Bar {
	cfg := Config{
		StartTime:      start,
		Interval:       interval,
		Count:          count,
		InitialPrice:   price,
		Step:           step,
		Volatility:     0,
		Trend:          0,
		VolumeBase:     1000,
		VolumeVariance: 0,
	}

	return NewGenerator(0).Generate(cfg)
}

// Generate creates cfg.Count bars. Prices follow a geometric Brownian motion around a
// linear path of cfg.Step per bar.
func (g *Generator) Generate(cfg Config) []source.Bar {
	bars := make([]source.Bar, cfg.Count)
	price := cfg.InitialPrice
	ts := cfg.StartTime.UTC()

	for i := 0; i < cfg.Count; i++ {
		open := price

		if cfg.Volatility == 0 {
			closePrice := open + cfg.Step

			bars[i] = source.Bar{
				Time:   ts,
				Open:   open,
				High:   math.Max(open, closePrice),
				Low:    math.Min(open, closePrice),
				Close:  closePrice,
				Volume: cfg.VolumeBase,
			}

			price = closePrice
			ts = ts.Add(cfg.Interval)

			continue
		}

		// Box-Muller transform for a standard normal draw.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := cfg.Trend / float64(cfg.Count)

		closePrice := open*(1+cfg.Volatility*z+drift) + cfg.Step
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * cfg.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * cfg.Volatility * open * 0.5)

		high := math.Max(open, closePrice) + highExtension

		low := math.Min(open, closePrice) - lowExtension
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := cfg.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*cfg.VolumeVariance)
		if volume < 0 {
			volume = cfg.VolumeBase * 0.1
		}

		bars[i] = source.Bar{
			Time:   ts,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(volume, 2),
		}

		price = closePrice
		ts = ts.Add(cfg.Interval)
	}

	return bars
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
