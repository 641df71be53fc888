package models

import (
	"time"

	domain "main/internal/domain/entity/marketdata"

	"github.com/google/uuid"
)

// CandleRecord is the persistence shape of a closed candle.
type CandleRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Timeframe string    `gorm:"size:8;index:idx_session_candles_tf_ts,priority:1"`
	Timestamp time.Time `gorm:"index:idx_session_candles_tf_ts,priority:2"`
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CreatedAt time.Time
}

func (CandleRecord) TableName() string {
	return "session_candles"
}

// FromDomain maps a closed candle into its persistence shape.
func FromDomain(timeframe domain.Timeframe, candle domain.Candle) CandleRecord {
	return CandleRecord{
		ID:        candle.ID,
		Timeframe: timeframe.String(),
		Timestamp: candle.Timestamp,
		Open:      candle.Open,
		High:      candle.High,
		Low:       candle.Low,
		Close:     candle.Close,
		Volume:    candle.Volume,
	}
}

// ToDomain maps a stored record back to the domain candle.
func (r CandleRecord) ToDomain() domain.Candle {
	return domain.Candle{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    r.Volume,
	}
}
