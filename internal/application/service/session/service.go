package session

import (
	"context"
	"errors"
	"sync"
	"time"

	appaggregator "main/internal/application/service/aggregator"
	apptrading "main/internal/application/service/trading"
	marketdata "main/internal/domain/entity/marketdata"
	domain "main/internal/domain/entity/trading"
	interfaces "main/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const (
	defaultWarmupCandles = 250
	defaultSpeed         = 1.0
	defaultCutoffHour    = 16

	archiveTimeout = 2 * time.Second
)

var (
	ErrNoMarkPrice       = errors.New("no mark price yet")
	ErrInvalidContracts  = errors.New("contracts must be a positive integer")
	ErrSessionOver       = errors.New("session is over")
	ErrPlaybackNotLoaded = errors.New("no candle series loaded")
)

// Config controls the playback session.
type Config struct {
	// WarmupCandles are preloaded into the aggregator before playback so
	// the chart opens with history; the engine is marked to the last
	// preloaded close.
	WarmupCandles int
	// Speed is candles delivered per wall-clock minute during playback.
	Speed float64
	// CutoffHour ends the session once a candle stamped at or past this
	// hour (exchange time) is reached.
	CutoffHour int
}

func (c Config) withDefaults() Config {
	if c.WarmupCandles == 0 {
		c.WarmupCandles = defaultWarmupCandles
	}
	if c.Speed <= 0 {
		c.Speed = defaultSpeed
	}
	if c.CutoffHour == 0 {
		c.CutoffHour = defaultCutoffHour
	}
	return c
}

// Service owns one simulated trading session: the loaded base candle
// series, the aggregator, the engine, the optional candle archive and the
// playback clock. Every tick and order entry point is serialized through
// one mutex, so aggregation, mark-to-market and execution all happen
// synchronously within the handling of one tick or one order.
type Service struct {
	mu sync.Mutex

	cfg        Config
	series     []marketdata.Candle
	index      int
	aggregator *appaggregator.Service
	engine     *apptrading.Engine
	archive    interfaces.CandleArchive
	publisher  interfaces.Publisher
	logger     *logrus.Entry
	exchangeTZ *time.Location

	speed   float64
	playing bool
	stopCh  chan struct{}
}

// NewService wires a session around an engine and aggregator. The archive
// may be nil to disable persistence.
func NewService(cfg Config, engine *apptrading.Engine, aggregator *appaggregator.Service, archive interfaces.CandleArchive, publisher interfaces.Publisher, logger *logrus.Logger) *Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	cfg = cfg.withDefaults()

	tz, err := time.LoadLocation("America/New_York")
	if err != nil {
		logger.WithError(err).Warn("exchange timezone unavailable, using UTC")
		tz = time.UTC
	}

	return &Service{
		cfg:        cfg,
		aggregator: aggregator,
		engine:     engine,
		archive:    archive,
		publisher:  publisher,
		logger:     logger.WithField("component", "session"),
		exchangeTZ: tz,
		speed:      cfg.Speed,
	}
}

// Load installs a base candle series and performs the warm-up preload.
func (s *Service) Load(series []marketdata.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopPlaybackLocked()
	s.series = series
	s.rewind()
}

// rewind resets state and replays the warm-up prefix into the aggregator.
// Caller must hold the mutex.
func (s *Service) rewind() {
	s.index = 0
	s.aggregator.Reset()
	s.engine.Reset()

	warmup := s.cfg.WarmupCandles
	if warmup > len(s.series) {
		warmup = len(s.series)
	}
	for i := 0; i < warmup; i++ {
		s.aggregator.AddCandle(s.series[i])
	}
	if warmup > 0 {
		s.engine.UpdatePrice(s.series[warmup-1].Close)
	}
	s.index = warmup
}

// Step delivers the next base candle: the aggregator folds it into all
// timeframes, the engine marks to the tick's close and newly closed
// candles are archived. Returns false once the series is exhausted or the
// cutoff hour is reached, after which the session is over.
func (s *Service) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

func (s *Service) step() bool {
	if s.index >= len(s.series) {
		s.endSession()
		return false
	}

	candle := s.series[s.index]
	if candle.Timestamp.In(s.exchangeTZ).Hour() >= s.cfg.CutoffHour {
		s.endSession()
		return false
	}
	s.index++

	one, five, fifteen := s.aggregator.Lengths()
	s.aggregator.AddCandle(candle)
	s.engine.UpdatePrice(candle.Close)
	s.archiveClosed(one, five, fifteen)
	return true
}

// archiveClosed persists any candle that closed on the last tick. Archive
// failures are logged and ignored; persistence never blocks the session.
func (s *Service) archiveClosed(one, five, fifteen int) {
	if s.archive == nil {
		return
	}
	afterOne, afterFive, afterFifteen := s.aggregator.Lengths()

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	save := func(timeframe marketdata.Timeframe) {
		candle, ok := s.aggregator.LastCandle(timeframe)
		if !ok {
			return
		}
		if err := s.archive.SaveCandle(ctx, timeframe, candle); err != nil {
			s.logger.WithError(err).WithField("timeframe", timeframe.String()).Warn("archive candle failed")
		}
	}

	if afterOne > one {
		save(marketdata.TimeframeOneMinute)
	}
	if afterFive > five {
		save(marketdata.TimeframeFiveMinute)
	}
	if afterFifteen > fifteen {
		save(marketdata.TimeframeFifteenMinute)
	}
}

func (s *Service) endSession() {
	s.stopPlaybackLocked()
	if !s.engine.GameOver() {
		now := s.currentTimeLocked()
		s.engine.EndSession(now)
	}
}

// Start begins or resumes timed playback: one candle every 60/speed
// seconds.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.series) == 0 {
		return ErrPlaybackNotLoaded
	}
	if s.playing {
		return nil
	}
	s.playing = true
	s.stopCh = make(chan struct{})
	go s.run(s.stopCh, s.interval())
	s.logger.WithField("speed", s.speed).Info("playback started")
	return nil
}

// Pause stops timed playback; Step remains available.
func (s *Service) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPlaybackLocked()
}

// SetSpeed adjusts the playback rate, restarting the clock when playing.
func (s *Service) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.speed = speed
	if s.playing {
		s.stopPlaybackLocked()
		s.playing = true
		s.stopCh = make(chan struct{})
		go s.run(s.stopCh, s.interval())
	}
}

func (s *Service) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Service) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

func (s *Service) interval() time.Duration {
	return time.Duration(60.0 / s.speed * float64(time.Second))
}

func (s *Service) run(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.Step() {
				return
			}
		}
	}
}

func (s *Service) stopPlaybackLocked() {
	if !s.playing {
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	s.playing = false
}

// Reset returns the session to its warm-up state: fresh account, empty
// aggregator and rewound playback.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopPlaybackLocked()
	s.rewind()
	s.publisher.Publish(apptrading.TopicSessionReset, struct{}{})
	s.logger.Info("session reset")
}

// Buy submits a market buy at the current mark price.
func (s *Service) Buy(contracts int, contractType domain.ContractType) error {
	return s.order(domain.SideLong, contracts, contractType)
}

// Sell submits a market sell at the current mark price.
func (s *Service) Sell(contracts int, contractType domain.ContractType) error {
	return s.order(domain.SideShort, contracts, contractType)
}

func (s *Service) order(side domain.Side, contracts int, contractType domain.ContractType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contracts <= 0 {
		return ErrInvalidContracts
	}
	if s.engine.GameOver() {
		return ErrSessionOver
	}
	price := s.engine.CurrentPrice()
	if price <= 0 {
		return ErrNoMarkPrice
	}

	timestamp := s.currentTimeLocked()
	if side == domain.SideLong {
		s.engine.Buy(contracts, price, timestamp, contractType)
	} else {
		s.engine.Sell(contracts, price, timestamp, contractType)
	}
	return nil
}

// Flatten closes every open position at the current mark price.
func (s *Service) Flatten() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := s.engine.CurrentPrice()
	if price <= 0 {
		return ErrNoMarkPrice
	}
	s.engine.Flatten(price, s.currentTimeLocked())
	return nil
}

// AcknowledgeMarginCall clears the edge-triggered margin-called flag.
func (s *Service) AcknowledgeMarginCall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.AcknowledgeMarginCall()
}

// Snapshot returns the consumer view of the account and risk state.
func (s *Service) Snapshot() apptrading.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// Positions returns copies of the open lots in insertion order.
func (s *Service) Positions() []domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Account().Positions()
}

// Trades returns a copy of the trade log.
func (s *Service) Trades() []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Account().Trades()
}

// Candles returns the closed series for one timeframe.
func (s *Service) Candles(timeframe marketdata.Timeframe) []marketdata.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregator.Candles(timeframe)
}

// PartialCandle returns the in-progress higher timeframe candle, if any.
func (s *Service) PartialCandle(timeframe marketdata.Timeframe) (marketdata.Candle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregator.PartialCandle(timeframe)
}

// currentTimeLocked is the timestamp of the last delivered candle, or the
// wall clock before any tick. Caller must hold the mutex.
func (s *Service) currentTimeLocked() time.Time {
	if s.index > 0 && s.index <= len(s.series) {
		return s.series[s.index-1].Timestamp
	}
	return time.Now()
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}
