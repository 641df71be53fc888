package feed

import (
	"fmt"
	"os"
	"sort"
	"time"

	marketdata "main/internal/domain/entity/marketdata"

	"github.com/gocarina/gocsv"
)

// candleDTO maps one CSV row; timestamps are RFC3339 or plain dates.
type candleDTO struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

func (d candleDTO) toDomain() (marketdata.Candle, error) {
	ts, err := time.Parse(time.RFC3339, d.Timestamp)
	if err != nil {
		ts, err = time.Parse("2006-01-02 15:04:05", d.Timestamp)
		if err != nil {
			return marketdata.Candle{}, fmt.Errorf("parse timestamp %q: %w", d.Timestamp, err)
		}
	}
	return marketdata.NewCandle(ts, d.Open, d.High, d.Low, d.Close, d.Volume), nil
}

// CSVSource loads a base candle series from a CSV file with a
// timestamp,open,high,low,close,volume header.
type CSVSource struct {
	Path string
}

// NewCSVSource points a source at a file on disk.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Series reads and parses the whole file, returning candles sorted by
// timestamp.
func (s *CSVSource) Series() ([]marketdata.Candle, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open candle csv: %w", err)
	}
	defer f.Close()

	var rows []candleDTO
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse candle csv: %w", err)
	}

	candles := make([]marketdata.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}
