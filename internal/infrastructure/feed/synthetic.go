package feed

import (
	"math"
	"math/rand"
	"time"

	marketdata "main/internal/domain/entity/marketdata"

	"github.com/sirupsen/logrus"
)

const (
	defaultStartPrice = 25000.0
	defaultFloorPrice = 24000.0
	defaultCapPrice   = 26000.0

	tickSize = 0.25
)

// GeneratorConfig controls the synthetic session generator. Zero values
// fall back to the NQ defaults.
type GeneratorConfig struct {
	StartPrice float64
	FloorPrice float64
	CapPrice   float64
	// Seed makes the series reproducible; zero seeds from the clock.
	Seed int64
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	if c.StartPrice == 0 {
		c.StartPrice = defaultStartPrice
	}
	if c.FloorPrice == 0 {
		c.FloorPrice = defaultFloorPrice
	}
	if c.CapPrice == 0 {
		c.CapPrice = defaultCapPrice
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Generator produces a synthetic one-minute futures session from 04:45 to
// 16:00 exchange time: quarter-tick prices, a slow sine trend and
// volatility that swells at the 09:30 open, through the morning, into the
// afternoon and on higher-timeframe boundaries.
type Generator struct {
	cfg    GeneratorConfig
	tz     *time.Location
	logger *logrus.Entry
}

// NewGenerator builds a generator for the exchange session.
func NewGenerator(cfg GeneratorConfig, logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
	}
	tz, err := time.LoadLocation("America/New_York")
	if err != nil {
		logger.WithError(err).Warn("exchange timezone unavailable, using UTC")
		tz = time.UTC
	}
	return &Generator{
		cfg:    cfg.withDefaults(),
		tz:     tz,
		logger: logger.WithField("component", "synthetic_feed"),
	}
}

// Series generates a session for today.
func (g *Generator) Series() ([]marketdata.Candle, error) {
	return g.GenerateDay(time.Now().In(g.tz)), nil
}

// GenerateDay produces the full 04:45-16:00 one-minute series for the
// given day.
func (g *Generator) GenerateDay(day time.Time) []marketdata.Candle {
	rng := rand.New(rand.NewSource(g.cfg.Seed))

	current := time.Date(day.Year(), day.Month(), day.Day(), 4, 45, 0, 0, g.tz)
	end := current.Add(11*time.Hour + 15*time.Minute)

	price := g.cfg.StartPrice
	candles := make([]marketdata.Candle, 0, int(end.Sub(current)/time.Minute))

	for index := 0; current.Before(end); index++ {
		multiplier := sessionMultiplier(current) * boundaryMultiplier(index)

		volatility := uniform(rng, 1.0, 3.5) * multiplier
		trend := math.Sin(float64(index)/80.0) * uniform(rng, 3.0, 8.0)
		change := uniform(rng, -1.5, 1.5)*volatility + trend*0.3

		price = clamp(price+change, g.cfg.FloorPrice, g.cfg.CapPrice)
		price = roundToTick(price)

		open := price
		high := roundToTick(open + uniform(rng, 1.0, 5.0)*multiplier)
		low := roundToTick(open - uniform(rng, 1.0, 5.0)*multiplier)
		close := roundToTick(open + uniform(rng, -2.5, 2.5)*multiplier)

		// Keep the bar internally consistent.
		high = math.Max(high, math.Max(open, close))
		low = math.Min(low, math.Min(open, close))

		candles = append(candles, marketdata.NewCandle(
			current, open, high, low, close, uniform(rng, 1000, 5000),
		))

		current = current.Add(time.Minute)
		price = close
	}

	g.logger.WithField("candles", len(candles)).Info("synthetic session generated")
	return candles
}

// sessionMultiplier swells volatility around the cash open and the
// afternoon session.
func sessionMultiplier(ts time.Time) float64 {
	hour, minute := ts.Hour(), ts.Minute()
	switch {
	case hour == 9 && minute == 30:
		return 4.0
	case (hour == 9 && minute > 30) || hour == 10:
		return 2.0
	case hour >= 14 && hour < 16:
		return 1.5
	default:
		return 1.0
	}
}

// boundaryMultiplier adds movement on candles that open or close a higher
// timeframe bucket.
func boundaryMultiplier(index int) float64 {
	five := 1.0
	if index%5 == 4 || index%5 == 0 {
		five = 2.5
	}
	fifteen := 1.0
	if index%15 == 14 || index%15 == 0 {
		fifteen = 4.0
	}
	return math.Max(five, fifteen)
}

func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}

func roundToTick(price float64) float64 {
	return math.Round(price/tickSize) * tickSize
}
