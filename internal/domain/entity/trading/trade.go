package trading

import (
	"time"

	"github.com/google/uuid"
)

// Trade is one append-only trade log entry. Negative contracts mark a
// closing fill; RealizedPnL is zero on opening fills. Entries are never
// mutated or removed once appended.
type Trade struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Side        Side      `json:"side"`
	Contracts   int       `json:"contracts"`
	Price       float64   `json:"price"`
	RealizedPnL float64   `json:"realized_pnl"`
}

// NewTrade records a fill.
func NewTrade(timestamp time.Time, side Side, contracts int, price, realizedPnL float64) Trade {
	return Trade{
		ID:          uuid.New(),
		Timestamp:   timestamp,
		Side:        side,
		Contracts:   contracts,
		Price:       price,
		RealizedPnL: realizedPnL,
	}
}
