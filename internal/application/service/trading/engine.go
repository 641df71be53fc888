package trading

import (
	"time"

	domain "main/internal/domain/entity/trading"
	interfaces "main/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const (
	defaultStartingBalance       = 5000.0
	defaultWarningThreshold      = 1000.0
	defaultCommissionPerContract = 2.50
)

// Config holds the risk parameters of the execution engine. Zero values
// fall back to the defaults of the micro account.
type Config struct {
	StartingBalance       float64
	WarningThreshold      float64
	CommissionPerContract float64
}

func (c Config) withDefaults() Config {
	if c.StartingBalance == 0 {
		c.StartingBalance = defaultStartingBalance
	}
	if c.WarningThreshold == 0 {
		c.WarningThreshold = defaultWarningThreshold
	}
	if c.CommissionPerContract == 0 {
		c.CommissionPerContract = defaultCommissionPerContract
	}
	return c
}

// Engine is the order-execution and risk state machine. It accepts buy,
// sell and flatten intents plus a per-tick mark price, and mutates the
// account through slippage, commission, netting and margin enforcement.
//
// Entry points are not safe for concurrent use; the session layer
// serializes them.
type Engine struct {
	cfg       Config
	account   *Account
	rng       RandSource
	publisher interfaces.Publisher
	logger    *logrus.Entry

	currentPrice  float64
	marginCalled  bool
	marginWarning bool
	gameOver      bool
}

// NewEngine wires an engine around a fresh account. A nil publisher
// disables event delivery; a nil rand source falls back to a clock-seeded
// one.
func NewEngine(cfg Config, rng RandSource, publisher interfaces.Publisher, logger *logrus.Logger) *Engine {
	if rng == nil {
		rng = NewRandSource(0)
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:       cfg,
		account:   NewAccount(cfg.StartingBalance),
		rng:       rng,
		publisher: publisher,
		logger:    logger.WithField("component", "engine"),
	}
}

// Account exposes the ledger for read-only consumers.
func (e *Engine) Account() *Account {
	return e.account
}

func (e *Engine) CurrentPrice() float64 {
	return e.currentPrice
}

// MarginCalled is the edge-triggered forced-liquidation flag. It stays set
// until acknowledged.
func (e *Engine) MarginCalled() bool {
	return e.marginCalled
}

// AcknowledgeMarginCall clears the edge-triggered margin-called flag.
func (e *Engine) AcknowledgeMarginCall() {
	e.marginCalled = false
}

// MarginWarning is the level-triggered low-margin flag.
func (e *Engine) MarginWarning() bool {
	return e.marginWarning
}

// GameOver is the sticky end-of-session flag; only Reset clears it.
func (e *Engine) GameOver() bool {
	return e.gameOver
}

// Buy executes a market buy: nets against open short lots first, then opens
// a long lot with any remaining size.
func (e *Engine) Buy(contracts int, price float64, timestamp time.Time, contractType domain.ContractType) {
	e.submit(domain.SideLong, contracts, price, timestamp, contractType)
}

// Sell executes a market sell: nets against open long lots first, then
// opens a short lot with any remaining size.
func (e *Engine) Sell(contracts int, price float64, timestamp time.Time, contractType domain.ContractType) {
	e.submit(domain.SideShort, contracts, price, timestamp, contractType)
}

func (e *Engine) submit(side domain.Side, contracts int, price float64, timestamp time.Time, contractType domain.ContractType) {
	if contracts <= 0 {
		e.reject(side, contracts, price, timestamp, contractType, "contracts must be positive")
		return
	}
	if e.gameOver {
		e.reject(side, contracts, price, timestamp, contractType, "session is over")
		return
	}

	// Pre-flight gate on the full requested gross size, even though part of
	// it may net against opposite-side lots requiring no new margin. This
	// over-rejects near the margin boundary on purpose; see DESIGN.md.
	if !e.account.CanOpenPosition(contracts, contractType) {
		e.reject(side, contracts, price, timestamp, contractType, "insufficient margin")
		return
	}

	if e.account.IsMarginExceeded() {
		e.marginCall(price, timestamp)
		return
	}

	spec := contractType.Spec()
	forBuy := side == domain.SideLong
	remaining := contracts

	// Netting phase: close opposite-side lots in insertion order, each fill
	// slipped and commissioned independently.
	for _, lot := range e.account.PositionsOnSide(side.Opposite()) {
		if remaining == 0 {
			break
		}
		fillPrice := applySlippage(e.rng, price, forBuy, spec.TickSize)
		toClose := lot.Contracts
		if toClose > remaining {
			toClose = remaining
		}
		e.applyCommission(toClose)

		if lot.Contracts <= remaining {
			e.account.ClosePosition(lot.ID, fillPrice, timestamp)
		} else {
			e.account.ReducePosition(lot.ID, toClose, fillPrice, timestamp)
		}
		remaining -= toClose
	}

	// Opening phase: margin may have changed after the closes, so the
	// remainder is re-checked. A rejected remainder keeps the completed
	// netting.
	if remaining > 0 {
		if e.account.CanOpenPosition(remaining, contractType) {
			fillPrice := applySlippage(e.rng, price, forBuy, spec.TickSize)
			e.applyCommission(remaining)
			e.account.OpenPosition(side, remaining, fillPrice, timestamp, contractType)
			e.publisher.Publish(TopicOrderFilled, OrderEvent{
				Side:         side,
				Contracts:    contracts,
				Price:        fillPrice,
				ContractType: contractType,
				Timestamp:    timestamp,
			})
		} else {
			e.reject(side, remaining, price, timestamp, contractType, "insufficient margin for remainder")
		}
	} else {
		e.publisher.Publish(TopicOrderFilled, OrderEvent{
			Side:         side,
			Contracts:    contracts,
			Price:        price,
			ContractType: contractType,
			Timestamp:    timestamp,
		})
	}

	e.checkMarginWarning()
}

// Flatten closes every open lot at the given price without slippage or
// commission, then clears the margin warning. Used both for user-initiated
// flattening and forced liquidation.
func (e *Engine) Flatten(price float64, timestamp time.Time) {
	for _, lot := range e.account.Positions() {
		e.account.ClosePosition(lot.ID, price, timestamp)
	}
	e.marginWarning = false
}

// UpdatePrice is the per-tick entry point: it marks open lots to market,
// re-evaluates the margin warning and forces a flatten when required margin
// has outgrown equity.
func (e *Engine) UpdatePrice(price float64) {
	e.currentPrice = price
	e.account.UpdatePositionPrices(price)
	e.checkMarginWarning()

	if e.account.IsMarginExceeded() {
		e.marginCall(price, time.Now())
	}
}

// EndSession flattens at the last mark price and sets the sticky game-over
// flag. Further orders are rejected until Reset.
func (e *Engine) EndSession(timestamp time.Time) {
	if e.gameOver {
		return
	}
	if e.currentPrice > 0 {
		e.Flatten(e.currentPrice, timestamp)
	}
	e.gameOver = true
	e.publisher.Publish(TopicSessionOver, MarginEvent{
		Price:           e.currentPrice,
		TotalBalance:    e.account.TotalBalance(),
		MarginAvailable: e.account.MarginAvailable(),
	})
	e.logger.WithField("balance", e.account.TotalBalance()).Info("session over")
}

// Reset restores the starting balance and clears positions, trades, price
// and every flag.
func (e *Engine) Reset() {
	e.account.Reset()
	e.currentPrice = 0
	e.marginCalled = false
	e.marginWarning = false
	e.gameOver = false
}

func (e *Engine) marginCall(price float64, timestamp time.Time) {
	e.marginCalled = true
	e.logger.WithFields(logrus.Fields{
		"price":   price,
		"balance": e.account.TotalBalance(),
	}).Warn("margin exceeded, flattening positions")
	e.publisher.Publish(TopicMarginCalled, MarginEvent{
		Price:           price,
		TotalBalance:    e.account.TotalBalance(),
		MarginAvailable: e.account.MarginAvailable(),
	})
	e.Flatten(price, timestamp)
}

// checkMarginWarning is a hysteresis latch: raised on the first crossing of
// the threshold, cleared once margin recovers above it.
func (e *Engine) checkMarginWarning() {
	if e.account.MarginAvailable() <= e.cfg.WarningThreshold {
		if !e.marginWarning {
			e.marginWarning = true
			e.publisher.Publish(TopicMarginWarning, MarginEvent{
				Price:           e.currentPrice,
				TotalBalance:    e.account.TotalBalance(),
				MarginAvailable: e.account.MarginAvailable(),
			})
		}
		return
	}
	e.marginWarning = false
}

// applyCommission deducts the flat per-contract fee from realized balance.
func (e *Engine) applyCommission(contracts int) {
	e.account.credit(-float64(contracts) * e.cfg.CommissionPerContract)
}

// reject drops an order without touching state. Insufficient margin never
// errors; it is a logged no-op.
func (e *Engine) reject(side domain.Side, contracts int, price float64, timestamp time.Time, contractType domain.ContractType, reason string) {
	e.logger.WithFields(logrus.Fields{
		"side":      side,
		"contracts": contracts,
		"contract":  contractType,
		"reason":    reason,
	}).Warn("order rejected")
	e.publisher.Publish(TopicOrderRejected, OrderEvent{
		Side:         side,
		Contracts:    contracts,
		Price:        price,
		ContractType: contractType,
		Timestamp:    timestamp,
		Reason:       reason,
	})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}
