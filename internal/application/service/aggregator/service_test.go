package aggregator

import (
	"fmt"
	"testing"
	"time"

	marketdata "main/internal/domain/entity/marketdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseSeries builds n one-minute candles with deterministic, distinct OHLCV
// values so aggregation arithmetic can be checked exactly.
func baseSeries(n int) []marketdata.Candle {
	start := time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
	out := make([]marketdata.Candle, 0, n)
	for i := 0; i < n; i++ {
		base := 100.0 + float64(i)
		out = append(out, marketdata.NewCandle(
			start.Add(time.Duration(i)*time.Minute),
			base, base+2, base-1, base+1, 10,
		))
	}
	return out
}

func TestAggregatorFoldsFiveMinute(t *testing.T) {
	service := NewService()
	series := baseSeries(15)
	for _, candle := range series {
		service.AddCandle(candle)
	}

	assert.Len(t, service.OneMinuteCandles(), 15)

	fives := service.FiveMinuteCandles()
	require.Len(t, fives, 3)
	for i, candle := range fives {
		first := series[i*5]
		last := series[i*5+4]
		assert.Equal(t, first.Open, candle.Open, "bucket %d open", i)
		assert.Equal(t, last.Close, candle.Close, "bucket %d close", i)
		assert.Equal(t, last.High, candle.High, "bucket %d high", i)
		assert.Equal(t, first.Low, candle.Low, "bucket %d low", i)
		assert.Equal(t, 50.0, candle.Volume, "bucket %d volume", i)
		assert.Equal(t, first.Timestamp, candle.Timestamp, "bucket %d timestamp", i)
	}

	fifteens := service.FifteenMinuteCandles()
	require.Len(t, fifteens, 1)
	assert.Equal(t, series[0].Open, fifteens[0].Open)
	assert.Equal(t, series[14].Close, fifteens[0].Close)
	assert.Equal(t, 150.0, fifteens[0].Volume)
}

func TestAggregatorSeriesCounts(t *testing.T) {
	for _, n := range []int{5, 30, 60} {
		t.Run(fmt.Sprintf("%d base candles", n), func(t *testing.T) {
			service := NewService()
			for _, candle := range baseSeries(n) {
				service.AddCandle(candle)
			}

			one, five, fifteen := service.Lengths()
			assert.Equal(t, n, one)
			assert.Equal(t, n/5, five)
			assert.Equal(t, n/15, fifteen)
		})
	}
}

func TestAggregatorPartialCandle(t *testing.T) {
	service := NewService()
	series := baseSeries(13) // 2 closed five-minute buckets + 3 in progress
	for _, candle := range series {
		service.AddCandle(candle)
	}

	partial, ok := service.CurrentFiveMinuteCandle()
	require.True(t, ok)
	assert.Equal(t, series[10].Open, partial.Open)
	assert.Equal(t, series[12].Close, partial.Close)
	assert.Equal(t, 30.0, partial.Volume)

	// 13 members in the fifteen-minute bucket, still open.
	partial, ok = service.CurrentFifteenMinuteCandle()
	require.True(t, ok)
	assert.Equal(t, series[0].Open, partial.Open)
	assert.Equal(t, series[12].Close, partial.Close)
}

func TestAggregatorNoPartialAtBoundary(t *testing.T) {
	service := NewService()
	for _, candle := range baseSeries(5) {
		service.AddCandle(candle)
	}

	_, ok := service.CurrentFiveMinuteCandle()
	assert.False(t, ok, "bucket just closed, nothing in progress")
}

func TestAggregatorCandlesByTimeframe(t *testing.T) {
	service := NewService()
	for _, candle := range baseSeries(15) {
		service.AddCandle(candle)
	}

	assert.Len(t, service.Candles(marketdata.TimeframeOneMinute), 15)
	assert.Len(t, service.Candles(marketdata.TimeframeFiveMinute), 3)
	assert.Len(t, service.Candles(marketdata.TimeframeFifteenMinute), 1)
}

func TestAggregatorLastCandle(t *testing.T) {
	service := NewService()

	_, ok := service.LastCandle(marketdata.TimeframeOneMinute)
	assert.False(t, ok)

	series := baseSeries(5)
	for _, candle := range series {
		service.AddCandle(candle)
	}

	last, ok := service.LastCandle(marketdata.TimeframeOneMinute)
	require.True(t, ok)
	assert.Equal(t, series[4].Close, last.Close)

	last, ok = service.LastCandle(marketdata.TimeframeFiveMinute)
	require.True(t, ok)
	assert.Equal(t, series[0].Timestamp, last.Timestamp)
}

func TestAggregatorReset(t *testing.T) {
	service := NewService()
	for _, candle := range baseSeries(13) {
		service.AddCandle(candle)
	}

	service.Reset()

	one, five, fifteen := service.Lengths()
	assert.Zero(t, one)
	assert.Zero(t, five)
	assert.Zero(t, fifteen)
	_, ok := service.CurrentFiveMinuteCandle()
	assert.False(t, ok)
	_, ok = service.CurrentFifteenMinuteCandle()
	assert.False(t, ok)
}

func TestAggregatorReturnsCopies(t *testing.T) {
	service := NewService()
	for _, candle := range baseSeries(5) {
		service.AddCandle(candle)
	}

	candles := service.OneMinuteCandles()
	candles[0].Close = -1

	assert.NotEqual(t, -1.0, service.OneMinuteCandles()[0].Close)
}
