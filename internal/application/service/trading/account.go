package trading

import (
	"time"

	domain "main/internal/domain/entity/trading"

	"github.com/google/uuid"
)

// Account owns the set of open positions, the append-only trade log and the
// realized cash balance. Positions live in an indexed store (id to lot) with
// insertion order preserved for display and netting; all account-level
// metrics are derived from that owned state on demand.
type Account struct {
	startingBalance float64
	realizedBalance float64

	positions map[uuid.UUID]*domain.Position
	order     []uuid.UUID
	trades    []domain.Trade
}

// NewAccount creates an account with the given starting cash balance.
func NewAccount(startingBalance float64) *Account {
	return &Account{
		startingBalance: startingBalance,
		realizedBalance: startingBalance,
		positions:       make(map[uuid.UUID]*domain.Position),
	}
}

// OpenPosition appends a new lot and the corresponding opening trade entry.
// Same-side lots are never merged; each call creates a distinct lot.
func (a *Account) OpenPosition(side domain.Side, contracts int, price float64, timestamp time.Time, contractType domain.ContractType) *domain.Position {
	position := domain.NewPosition(side, contracts, price, timestamp, contractType)
	a.positions[position.ID] = position
	a.order = append(a.order, position.ID)
	a.trades = append(a.trades, domain.NewTrade(timestamp, side, contracts, price, 0))
	return position
}

// ClosePosition realizes the lot's P&L at the given price, appends a closing
// trade and removes the lot. Closing a lot that no longer exists is a benign
// no-op returning zero.
func (a *Account) ClosePosition(id uuid.UUID, atPrice float64, timestamp time.Time) float64 {
	position, ok := a.positions[id]
	if !ok {
		return 0
	}

	pnl := position.PnLAt(atPrice, position.Contracts)
	a.realizedBalance += pnl
	a.trades = append(a.trades, domain.NewTrade(timestamp, position.Side, -position.Contracts, atPrice, pnl))
	a.remove(id)
	return pnl
}

// ReducePosition partially closes a lot: it realizes P&L for only the closed
// portion, appends a closing trade for that portion and shrinks the lot in
// place. Reducing by the full size or more closes the lot outright.
func (a *Account) ReducePosition(id uuid.UUID, contracts int, atPrice float64, timestamp time.Time) float64 {
	position, ok := a.positions[id]
	if !ok || contracts <= 0 {
		return 0
	}
	if contracts >= position.Contracts {
		return a.ClosePosition(id, atPrice, timestamp)
	}

	pnl := position.PnLAt(atPrice, contracts)
	a.realizedBalance += pnl
	a.trades = append(a.trades, domain.NewTrade(timestamp, position.Side, -contracts, atPrice, pnl))
	position.Contracts -= contracts
	return pnl
}

// UpdatePositionPrices marks every open lot to the given price. Realized
// balance is untouched.
func (a *Account) UpdatePositionPrices(currentPrice float64) {
	for _, position := range a.positions {
		position.CurrentPrice = currentPrice
	}
}

// Positions returns copies of the open lots in insertion order.
func (a *Account) Positions() []domain.Position {
	out := make([]domain.Position, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.positions[id])
	}
	return out
}

// PositionsOnSide returns copies of the open lots of one side in insertion
// order.
func (a *Account) PositionsOnSide(side domain.Side) []domain.Position {
	var out []domain.Position
	for _, id := range a.order {
		if p := a.positions[id]; p.Side == side {
			out = append(out, *p)
		}
	}
	return out
}

// Trades returns a copy of the trade log.
func (a *Account) Trades() []domain.Trade {
	out := make([]domain.Trade, len(a.trades))
	copy(out, a.trades)
	return out
}

func (a *Account) StartingBalance() float64 {
	return a.startingBalance
}

// RealizedBalance is the sole source of truth for cash.
func (a *Account) RealizedBalance() float64 {
	return a.realizedBalance
}

// RealizedGain is the realized balance relative to the starting balance.
func (a *Account) RealizedGain() float64 {
	return a.realizedBalance - a.startingBalance
}

// UnrealizedPnL sums the mark-to-market P&L over all open lots.
func (a *Account) UnrealizedPnL() float64 {
	total := 0.0
	for _, position := range a.positions {
		total += position.UnrealizedPnL()
	}
	return total
}

// UnrealizedPnLOnSide sums the mark-to-market P&L over one side's lots.
func (a *Account) UnrealizedPnLOnSide(side domain.Side) float64 {
	total := 0.0
	for _, position := range a.positions {
		if position.Side == side {
			total += position.UnrealizedPnL()
		}
	}
	return total
}

// TotalBalance is realized balance plus unrealized P&L.
func (a *Account) TotalBalance() float64 {
	return a.realizedBalance + a.UnrealizedPnL()
}

// TotalContracts sums the open contracts on one side across all lots.
func (a *Account) TotalContracts(side domain.Side) int {
	total := 0
	for _, position := range a.positions {
		if position.Side == side {
			total += position.Contracts
		}
	}
	return total
}

// AverageEntryPrice is the contracts-weighted mean entry price over all lots
// of one side. Returns false when that side holds no contracts.
func (a *Account) AverageEntryPrice(side domain.Side) (float64, bool) {
	totalContracts := 0
	weightedSum := 0.0
	for _, position := range a.positions {
		if position.Side != side {
			continue
		}
		totalContracts += position.Contracts
		weightedSum += float64(position.Contracts) * position.EntryPrice
	}
	if totalContracts == 0 {
		return 0, false
	}
	return weightedSum / float64(totalContracts), true
}

// TotalMarginRequired sums contracts times margin requirement over all open
// lots.
func (a *Account) TotalMarginRequired() float64 {
	total := 0.0
	for _, position := range a.positions {
		total += float64(position.Contracts) * position.ContractType.Spec().MarginRequirement
	}
	return total
}

// MarginAvailable is total balance minus total margin required.
func (a *Account) MarginAvailable() float64 {
	return a.TotalBalance() - a.TotalMarginRequired()
}

// CanOpenPosition reports whether the account holds enough free margin for
// the requested additional contracts.
func (a *Account) CanOpenPosition(contracts int, contractType domain.ContractType) bool {
	additional := float64(contracts) * contractType.Spec().MarginRequirement
	return a.MarginAvailable() >= additional
}

// IsMarginExceeded reports whether required margin has outgrown account
// equity, which forces liquidation.
func (a *Account) IsMarginExceeded() bool {
	return a.TotalMarginRequired() > a.TotalBalance()
}

// Reset clears positions and the trade log and restores the starting
// balance.
func (a *Account) Reset() {
	a.positions = make(map[uuid.UUID]*domain.Position)
	a.order = nil
	a.trades = nil
	a.realizedBalance = a.startingBalance
}

func (a *Account) remove(id uuid.UUID) {
	delete(a.positions, id)
	for i, existing := range a.order {
		if existing == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}

// credit adjusts the realized balance directly; used by the engine for
// commissions.
func (a *Account) credit(amount float64) {
	a.realizedBalance += amount
}
