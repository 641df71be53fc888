package trading

import (
	"time"

	domain "main/internal/domain/entity/trading"
)

// Event topics published by the engine. Consumers subscribe against the
// event bus in infrastructure; there is no implicit broadcast.
const (
	TopicOrderFilled   = "order.filled"
	TopicOrderRejected = "order.rejected"
	TopicMarginWarning = "margin.warning"
	TopicMarginCalled  = "margin.called"
	TopicSessionOver   = "session.over"
	TopicSessionReset  = "session.reset"
)

// OrderEvent describes the outcome of a buy/sell intent.
type OrderEvent struct {
	Side         domain.Side         `json:"side"`
	Contracts    int                 `json:"contracts"`
	Price        float64             `json:"price"`
	ContractType domain.ContractType `json:"contract_type"`
	Timestamp    time.Time           `json:"timestamp"`
	Reason       string              `json:"reason,omitempty"`
}

// MarginEvent describes a margin warning or forced liquidation.
type MarginEvent struct {
	Price           float64 `json:"price"`
	TotalBalance    float64 `json:"total_balance"`
	MarginAvailable float64 `json:"margin_available"`
}
