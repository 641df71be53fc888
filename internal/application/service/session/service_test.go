package session

import (
	"context"
	"testing"
	"time"

	appaggregator "main/internal/application/service/aggregator"
	apptrading "main/internal/application/service/trading"
	marketdata "main/internal/domain/entity/marketdata"
	domain "main/internal/domain/entity/trading"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRand pins the slippage draw to the small offset.
type stubRand struct{}

func (stubRand) Float64() float64 { return 0 }

// fakeArchive records saves per timeframe.
type fakeArchive struct {
	saved map[marketdata.Timeframe]int
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{saved: make(map[marketdata.Timeframe]int)}
}

func (a *fakeArchive) SaveCandle(_ context.Context, timeframe marketdata.Timeframe, _ marketdata.Candle) error {
	a.saved[timeframe]++
	return nil
}

func (a *fakeArchive) LastCandles(context.Context, marketdata.Timeframe, int) ([]marketdata.Candle, error) {
	return nil, nil
}

func (a *fakeArchive) Close() {}

// sessionSeries builds n one-minute candles starting 09:00 New York time,
// well before the cutoff.
func sessionSeries(n int) []marketdata.Candle {
	start := time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)
	out := make([]marketdata.Candle, 0, n)
	for i := 0; i < n; i++ {
		price := 100.0 + float64(i)
		out = append(out, marketdata.NewCandle(
			start.Add(time.Duration(i)*time.Minute),
			price, price+1, price-1, price+0.5, 100,
		))
	}
	return out
}

func newTestSession(cfg Config, archive *fakeArchive) *Service {
	engine := apptrading.NewEngine(apptrading.Config{}, stubRand{}, nil, nil)
	if archive == nil {
		return NewService(cfg, engine, appaggregator.NewService(), nil, nil, nil)
	}
	return NewService(cfg, engine, appaggregator.NewService(), archive, nil, nil)
}

func TestSessionWarmupPreload(t *testing.T) {
	service := newTestSession(Config{WarmupCandles: 10}, nil)
	series := sessionSeries(30)
	service.Load(series)

	assert.Len(t, service.Candles(marketdata.TimeframeOneMinute), 10)
	assert.Len(t, service.Candles(marketdata.TimeframeFiveMinute), 2)

	snapshot := service.Snapshot()
	assert.InDelta(t, series[9].Close, snapshot.CurrentPrice, 1e-9)
	assert.False(t, snapshot.GameOver)
}

func TestSessionStep(t *testing.T) {
	service := newTestSession(Config{WarmupCandles: 10}, nil)
	series := sessionSeries(30)
	service.Load(series)

	require.True(t, service.Step())

	assert.Len(t, service.Candles(marketdata.TimeframeOneMinute), 11)
	assert.InDelta(t, series[10].Close, service.Snapshot().CurrentPrice, 1e-9)
}

func TestSessionEndsOnExhaustedSeries(t *testing.T) {
	service := newTestSession(Config{WarmupCandles: 5}, nil)
	service.Load(sessionSeries(6))

	require.True(t, service.Step())
	assert.False(t, service.Step())

	snapshot := service.Snapshot()
	assert.True(t, snapshot.GameOver)
	assert.ErrorIs(t, service.Buy(1, domain.ContractMNQ), ErrSessionOver)
}

func TestSessionEndsAtCutoffHour(t *testing.T) {
	// Five candles 20:56 to 21:00 UTC; 21:00 UTC is 16:00 in New York.
	start := time.Date(2024, time.March, 5, 20, 56, 0, 0, time.UTC)
	series := make([]marketdata.Candle, 0, 5)
	for i := 0; i < 5; i++ {
		series = append(series, marketdata.CandleFromPrice(100, start.Add(time.Duration(i)*time.Minute)))
	}

	service := newTestSession(Config{WarmupCandles: 2}, nil)
	service.Load(series)

	require.True(t, service.Step())
	require.True(t, service.Step())
	assert.False(t, service.Step())
	assert.True(t, service.Snapshot().GameOver)
}

func TestSessionEndFlattensOpenPositions(t *testing.T) {
	service := newTestSession(Config{WarmupCandles: 5}, nil)
	service.Load(sessionSeries(6))

	require.NoError(t, service.Buy(1, domain.ContractMNQ))
	require.Len(t, service.Positions(), 1)

	service.Step()
	service.Step()

	assert.Empty(t, service.Positions())
	assert.True(t, service.Snapshot().GameOver)
}

func TestSessionOrders(t *testing.T) {
	t.Run("before any mark price", func(t *testing.T) {
		service := newTestSession(Config{WarmupCandles: 5}, nil)
		assert.ErrorIs(t, service.Buy(1, domain.ContractMNQ), ErrNoMarkPrice)
		assert.ErrorIs(t, service.Flatten(), ErrNoMarkPrice)
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		service := newTestSession(Config{WarmupCandles: 5}, nil)
		service.Load(sessionSeries(10))
		assert.ErrorIs(t, service.Buy(0, domain.ContractMNQ), ErrInvalidContracts)
	})

	t.Run("fills against the last close", func(t *testing.T) {
		service := newTestSession(Config{WarmupCandles: 5}, nil)
		series := sessionSeries(10)
		service.Load(series)

		require.NoError(t, service.Buy(2, domain.ContractMNQ))

		positions := service.Positions()
		require.Len(t, positions, 1)
		assert.InDelta(t, series[4].Close+0.25, positions[0].EntryPrice, 1e-9)
		assert.Equal(t, series[4].Timestamp, positions[0].EntryTime)

		require.NoError(t, service.Flatten())
		assert.Empty(t, service.Positions())
	})
}

func TestSessionArchivesClosedCandles(t *testing.T) {
	archive := newFakeArchive()
	service := newTestSession(Config{WarmupCandles: 5}, archive)
	service.Load(sessionSeries(30))

	for i := 0; i < 5; i++ {
		require.True(t, service.Step())
	}

	assert.Equal(t, 5, archive.saved[marketdata.TimeframeOneMinute])
	assert.Equal(t, 1, archive.saved[marketdata.TimeframeFiveMinute])
	assert.Zero(t, archive.saved[marketdata.TimeframeFifteenMinute])
}

func TestSessionReset(t *testing.T) {
	service := newTestSession(Config{WarmupCandles: 5}, nil)
	series := sessionSeries(10)
	service.Load(series)

	require.NoError(t, service.Buy(1, domain.ContractMNQ))
	service.Step()
	service.Reset()

	snapshot := service.Snapshot()
	assert.InDelta(t, 5000.0, snapshot.RealizedBalance, 1e-9)
	assert.Empty(t, service.Positions())
	assert.Empty(t, service.Trades())
	assert.Len(t, service.Candles(marketdata.TimeframeOneMinute), 5)
	assert.False(t, snapshot.GameOver)
	assert.InDelta(t, series[4].Close, snapshot.CurrentPrice, 1e-9)
}

func TestSessionPlaybackControls(t *testing.T) {
	service := newTestSession(Config{WarmupCandles: 5, Speed: 60}, nil)

	assert.ErrorIs(t, service.Start(), ErrPlaybackNotLoaded)

	service.Load(sessionSeries(30))
	require.NoError(t, service.Start())
	assert.True(t, service.Playing())
	require.NoError(t, service.Start(), "starting twice is idempotent")

	service.SetSpeed(120)
	assert.InDelta(t, 120.0, service.Speed(), 1e-9)
	assert.True(t, service.Playing())

	service.Pause()
	assert.False(t, service.Playing())
}

func TestSessionPartialCandle(t *testing.T) {
	service := newTestSession(Config{WarmupCandles: 7}, nil)
	series := sessionSeries(30)
	service.Load(series)

	partial, ok := service.PartialCandle(marketdata.TimeframeFiveMinute)
	require.True(t, ok)
	assert.InDelta(t, series[5].Open, partial.Open, 1e-9)
	assert.InDelta(t, series[6].Close, partial.Close, 1e-9)

	_, ok = service.PartialCandle(marketdata.TimeframeOneMinute)
	assert.False(t, ok)
}
