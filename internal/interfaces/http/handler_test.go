package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appaggregator "main/internal/application/service/aggregator"
	appsession "main/internal/application/service/session"
	apptrading "main/internal/application/service/trading"
	marketdata "main/internal/domain/entity/marketdata"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRand struct{}

func (stubRand) Float64() float64 { return 0 }

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	engine := apptrading.NewEngine(apptrading.Config{}, stubRand{}, nil, nil)
	session := appsession.NewService(appsession.Config{WarmupCandles: 10}, engine, appaggregator.NewService(), nil, nil, nil)

	start := time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)
	series := make([]marketdata.Candle, 0, 30)
	for i := 0; i < 30; i++ {
		price := 100.0 + float64(i)
		series = append(series, marketdata.NewCandle(
			start.Add(time.Duration(i)*time.Minute),
			price, price+1, price-1, price+0.5, 100,
		))
	}
	session.Load(series)

	return NewHandler(session, nil, 0)
}

func do(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandlerGetSession(t *testing.T) {
	h := newTestHandler(t)

	w := do(h, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot apptrading.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.InDelta(t, 5000.0, snapshot.RealizedBalance, 1e-9)
	assert.InDelta(t, 109.5, snapshot.CurrentPrice, 1e-9)
	assert.False(t, snapshot.GameOver)
}

func TestHandlerPlaceOrder(t *testing.T) {
	t.Run("buy fills and returns the snapshot", func(t *testing.T) {
		h := newTestHandler(t)

		w := do(h, http.MethodPost, "/api/v1/orders", `{"action":"buy","contracts":2,"contract_type":"MNQ"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var snapshot apptrading.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
		assert.Equal(t, 2, snapshot.TotalLongContracts)
	})

	t.Run("unknown action", func(t *testing.T) {
		h := newTestHandler(t)

		w := do(h, http.MethodPost, "/api/v1/orders", `{"action":"short","contracts":2}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-positive size", func(t *testing.T) {
		h := newTestHandler(t)

		w := do(h, http.MethodPost, "/api/v1/orders", `{"action":"sell","contracts":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown contract type", func(t *testing.T) {
		h := newTestHandler(t)

		w := do(h, http.MethodPost, "/api/v1/orders", `{"action":"buy","contracts":1,"contract_type":"ES"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("flatten ignores contracts", func(t *testing.T) {
		h := newTestHandler(t)

		do(h, http.MethodPost, "/api/v1/orders", `{"action":"buy","contracts":2}`)
		w := do(h, http.MethodPost, "/api/v1/orders", `{"action":"flatten"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var snapshot apptrading.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
		assert.Zero(t, snapshot.TotalLongContracts)
	})
}

func TestHandlerCandles(t *testing.T) {
	h := newTestHandler(t)

	t.Run("default timeframe", func(t *testing.T) {
		w := do(h, http.MethodGet, "/api/v1/candles/", "")
		require.Equal(t, http.StatusOK, w.Code)

		var candles []marketdata.Candle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &candles))
		assert.Len(t, candles, 10)
	})

	t.Run("five minute with limit", func(t *testing.T) {
		w := do(h, http.MethodGet, "/api/v1/candles/?timeframe=5m&limit=1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var candles []marketdata.Candle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &candles))
		assert.Len(t, candles, 1)
	})

	t.Run("bad timeframe", func(t *testing.T) {
		w := do(h, http.MethodGet, "/api/v1/candles/?timeframe=30m", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		w := do(h, http.MethodGet, "/api/v1/candles/?limit=-2", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no partial candle at a bucket boundary", func(t *testing.T) {
		w := do(h, http.MethodGet, "/api/v1/candles/partial?timeframe=5m", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("partial fifteen minute candle", func(t *testing.T) {
		w := do(h, http.MethodGet, "/api/v1/candles/partial?timeframe=15m", "")
		require.Equal(t, http.StatusOK, w.Code)

		var candle marketdata.Candle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &candle))
		assert.InDelta(t, 100.0, candle.Open, 1e-9)
	})
}

func TestHandlerPlayback(t *testing.T) {
	h := newTestHandler(t)

	w := do(h, http.MethodPost, "/api/v1/playback/start", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(h, http.MethodPut, "/api/v1/playback/speed", `{"speed":4}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(h, http.MethodPut, "/api/v1/playback/speed", `{"speed":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodPost, "/api/v1/playback/pause", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandlerSessionLifecycle(t *testing.T) {
	h := newTestHandler(t)

	do(h, http.MethodPost, "/api/v1/orders", `{"action":"buy","contracts":1}`)

	w := do(h, http.MethodPost, "/api/v1/session/reset", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot apptrading.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Zero(t, snapshot.TotalLongContracts)
	assert.InDelta(t, 5000.0, snapshot.RealizedBalance, 1e-9)

	w = do(h, http.MethodPost, "/api/v1/session/margin-call/ack", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(h, http.MethodGet, "/api/v1/positions", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/api/v1/trades", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
