package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	appsession "main/internal/application/service/session"
	marketdata "main/internal/domain/entity/marketdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const apiBasePath = "/api/v1"

var (
	errUnknownTimeframe = errors.New("timeframe must be one of 1m, 5m, 15m")
	errUnknownAction    = errors.New("action must be one of buy, sell, flatten")
)

// Handler exposes the session as a read-mostly HTTP API: snapshots,
// candle series and order intents.
type Handler struct {
	router   *gin.Engine
	session  *appsession.Service
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewHandler wires routes around one session. The redis client is optional;
// nil disables response caching.
func NewHandler(session *appsession.Service, cache *redis.Client, cacheTTL time.Duration) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:   router,
		session:  session,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	api := h.router.Group(apiBasePath)

	api.GET("/session", h.getSession)
	api.POST("/session/reset", h.resetSession)
	api.POST("/session/margin-call/ack", h.ackMarginCall)

	api.GET("/positions", h.getPositions)
	api.GET("/trades", h.getTrades)
	api.POST("/orders", h.placeOrder)

	candles := api.Group("/candles")
	if h.cache != nil {
		candles.Use(h.cacheMiddleware())
	}
	{
		candles.GET("/", h.getCandles)
		candles.GET("/partial", h.getPartialCandle)
	}

	playback := api.Group("/playback")
	{
		playback.POST("/start", h.startPlayback)
		playback.POST("/pause", h.pausePlayback)
		playback.PUT("/speed", h.setPlaybackSpeed)
	}
}

// getSession returns the account and risk snapshot
// @Summary      Session snapshot
// @Produce      json
// @Success      200  {object}  trading.Snapshot
// @Router       /session [get]
func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Snapshot())
}

func (h *Handler) resetSession(c *gin.Context) {
	h.session.Reset()
	c.JSON(http.StatusOK, h.session.Snapshot())
}

func (h *Handler) ackMarginCall(c *gin.Context) {
	h.session.AcknowledgeMarginCall()
	c.Status(http.StatusNoContent)
}

func (h *Handler) getPositions(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Positions())
}

func (h *Handler) getTrades(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Trades())
}

// placeOrder executes a market order intent against the current mark price
// @Summary      Place order
// @Accept       json
// @Produce      json
// @Param        order  body  orderPayload  true  "Order intent"
// @Success      200  {object}  trading.Snapshot
// @Failure      400  {object}  map[string]string
// @Router       /orders [post]
func (h *Handler) placeOrder(c *gin.Context) {
	var payload orderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := payload.validate(); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	var err error
	switch payload.Action {
	case actionBuy:
		err = h.session.Buy(payload.Contracts, payload.contractType())
	case actionSell:
		err = h.session.Sell(payload.Contracts, payload.contractType())
	case actionFlatten:
		err = h.session.Flatten()
	}
	if err != nil {
		writeError(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// getCandles returns the closed series of one timeframe
// @Summary      Candle series
// @Produce      json
// @Param        timeframe  query  string  false  "1m, 5m or 15m"  default(1m)
// @Param        limit      query  int     false  "most recent N candles"
// @Success      200  {array}  marketdata.Candle
// @Router       /candles [get]
func (h *Handler) getCandles(c *gin.Context) {
	timeframe, err := parseTimeframeQuery(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	candles := h.session.Candles(timeframe)
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(c, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer"))
			return
		}
		if limit < len(candles) {
			candles = candles[len(candles)-limit:]
		}
	}
	c.JSON(http.StatusOK, candles)
}

func (h *Handler) getPartialCandle(c *gin.Context) {
	timeframe, err := parseTimeframeQuery(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	candle, ok := h.session.PartialCandle(timeframe)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, candle)
}

func (h *Handler) startPlayback(c *gin.Context) {
	if err := h.session.Start(); err != nil {
		writeError(c, http.StatusConflict, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) pausePlayback(c *gin.Context) {
	h.session.Pause()
	c.Status(http.StatusNoContent)
}

func (h *Handler) setPlaybackSpeed(c *gin.Context) {
	var payload speedPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if payload.Speed <= 0 {
		writeError(c, http.StatusBadRequest, fmt.Errorf("speed must be positive"))
		return
	}
	h.session.SetSpeed(payload.Speed)
	c.Status(http.StatusNoContent)
}

func parseTimeframeQuery(c *gin.Context) (marketdata.Timeframe, error) {
	raw := c.DefaultQuery("timeframe", "1m")
	timeframe, ok := marketdata.ParseTimeframe(raw)
	if !ok {
		return 0, errUnknownTimeframe
	}
	return timeframe, nil
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// cacheMiddleware caches GET responses in Redis.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := h.cacheKey(c)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			c.Abort()
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			_ = h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err()
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (h *Handler) cacheKey(c *gin.Context) string {
	return fmt.Sprintf("cache:%s:%s?%s", c.Request.Method, c.FullPath(), c.Request.URL.RawQuery)
}
