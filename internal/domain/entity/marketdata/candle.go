package marketdata

import (
	"time"

	"github.com/google/uuid"
)

// Timeframe is the length of an aggregation period measured in base
// (one-minute) candles.
type Timeframe int

const (
	TimeframeOneMinute     Timeframe = 1
	TimeframeFiveMinute    Timeframe = 5
	TimeframeFifteenMinute Timeframe = 15
)

func (t Timeframe) IsValid() bool {
	switch t {
	case TimeframeOneMinute, TimeframeFiveMinute, TimeframeFifteenMinute:
		return true
	default:
		return false
	}
}

func (t Timeframe) String() string {
	switch t {
	case TimeframeOneMinute:
		return "1m"
	case TimeframeFiveMinute:
		return "5m"
	case TimeframeFifteenMinute:
		return "15m"
	default:
		return "unknown"
	}
}

// ParseTimeframe maps the wire representation ("1m", "5m", "15m") back to a
// Timeframe.
func ParseTimeframe(value string) (Timeframe, bool) {
	switch value {
	case "1m":
		return TimeframeOneMinute, true
	case "5m":
		return TimeframeFiveMinute, true
	case "15m":
		return TimeframeFifteenMinute, true
	default:
		return 0, false
	}
}

// Candle represents an immutable OHLCV record for one period. It is produced
// once per base tick or once per closed aggregation bucket and never mutated
// afterwards.
type Candle struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// NewCandle builds a candle with a fresh identifier.
func NewCandle(timestamp time.Time, open, high, low, close, volume float64) Candle {
	return Candle{
		ID:        uuid.New(),
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

// CandleFromPrice builds a flat candle out of a single traded price.
func CandleFromPrice(price float64, timestamp time.Time) Candle {
	return NewCandle(timestamp, price, price, price, price, 0)
}
