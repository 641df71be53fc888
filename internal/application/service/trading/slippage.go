package trading

import (
	"math"
	"math/rand"
	"time"
)

// RandSource yields uniform draws in [0, 1) for the slippage model. It is
// injected so fills are reproducible under test.
type RandSource interface {
	Float64() float64
}

// NewRandSource returns a seeded source; seed 0 falls back to the clock.
func NewRandSource(seed int64) RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// applySlippage offsets the price by 0.25 or 0.5 points (50/50), always
// against the trader: higher for a buy fill, lower for a sell fill. The
// result is rounded to the contract's minimum tick.
func applySlippage(rng RandSource, price float64, forBuy bool, tickSize float64) float64 {
	offset := 0.25
	if rng.Float64() >= 0.5 {
		offset = 0.5
	}
	if forBuy {
		price += offset
	} else {
		price -= offset
	}
	return roundToTick(price, tickSize)
}

// roundToTick rounds a price to the nearest tick increment.
func roundToTick(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	return math.Round(price/tickSize) * tickSize
}
