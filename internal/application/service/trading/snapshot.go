package trading

import (
	domain "main/internal/domain/entity/trading"
)

// Snapshot is a point-in-time, read-only view of the account and risk
// state, safe to hand to presentation layers.
type Snapshot struct {
	CurrentPrice        float64 `json:"current_price"`
	RealizedBalance     float64 `json:"realized_balance"`
	RealizedGain        float64 `json:"realized_gain"`
	UnrealizedPnL       float64 `json:"unrealized_pnl"`
	TotalBalance        float64 `json:"total_balance"`
	TotalMarginRequired float64 `json:"total_margin_required"`
	MarginAvailable     float64 `json:"margin_available"`

	TotalLongContracts     int      `json:"total_long_contracts"`
	TotalShortContracts    int      `json:"total_short_contracts"`
	AverageLongEntryPrice  *float64 `json:"average_long_entry_price,omitempty"`
	AverageShortEntryPrice *float64 `json:"average_short_entry_price,omitempty"`
	UnrealizedLongPnL      float64  `json:"unrealized_long_pnl"`
	UnrealizedShortPnL     float64  `json:"unrealized_short_pnl"`

	MarginCalled  bool `json:"margin_called"`
	MarginWarning bool `json:"margin_warning"`
	GameOver      bool `json:"game_over"`
}

// Snapshot derives the full consumer view from the current engine state.
func (e *Engine) Snapshot() Snapshot {
	snapshot := Snapshot{
		CurrentPrice:        e.currentPrice,
		RealizedBalance:     e.account.RealizedBalance(),
		RealizedGain:        e.account.RealizedGain(),
		UnrealizedPnL:       e.account.UnrealizedPnL(),
		TotalBalance:        e.account.TotalBalance(),
		TotalMarginRequired: e.account.TotalMarginRequired(),
		MarginAvailable:     e.account.MarginAvailable(),
		TotalLongContracts:  e.account.TotalContracts(domain.SideLong),
		TotalShortContracts: e.account.TotalContracts(domain.SideShort),
		UnrealizedLongPnL:   e.account.UnrealizedPnLOnSide(domain.SideLong),
		UnrealizedShortPnL:  e.account.UnrealizedPnLOnSide(domain.SideShort),
		MarginCalled:        e.marginCalled,
		MarginWarning:       e.marginWarning,
		GameOver:            e.gameOver,
	}
	if avg, ok := e.account.AverageEntryPrice(domain.SideLong); ok {
		snapshot.AverageLongEntryPrice = &avg
	}
	if avg, ok := e.account.AverageEntryPrice(domain.SideShort); ok {
		snapshot.AverageShortEntryPrice = &avg
	}
	return snapshot
}
