package trading

import (
	"time"

	"github.com/google/uuid"
)

// Side represents the direction of a position or trade.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

func (s Side) String() string {
	return string(s)
}

// Opposite returns the other side of the market.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// Position is one open lot. It is owned exclusively by the account ledger
// and mutated in place only by mark-to-market price updates and partial
// close quantity reduction. Contracts is always positive; a lot reaching
// zero contracts is removed, never kept as a zero-quantity record.
type Position struct {
	ID           uuid.UUID    `json:"id"`
	Side         Side         `json:"side"`
	Contracts    int          `json:"contracts"`
	EntryPrice   float64      `json:"entry_price"`
	CurrentPrice float64      `json:"current_price"`
	EntryTime    time.Time    `json:"entry_time"`
	ContractType ContractType `json:"contract_type"`
}

// NewPosition opens a lot marked at its entry price.
func NewPosition(side Side, contracts int, entryPrice float64, entryTime time.Time, contractType ContractType) *Position {
	return &Position{
		ID:           uuid.New(),
		Side:         side,
		Contracts:    contracts,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		EntryTime:    entryTime,
		ContractType: contractType,
	}
}

// UnrealizedPnL values the whole lot at its current mark price.
func (p *Position) UnrealizedPnL() float64 {
	return p.PnLAt(p.CurrentPrice, p.Contracts)
}

// PnLAt values closing the given number of contracts at the given price.
func (p *Position) PnLAt(price float64, contracts int) float64 {
	diff := price - p.EntryPrice
	if p.Side == SideShort {
		diff = -diff
	}
	return diff * float64(contracts) * p.ContractType.Spec().PointValue
}
