package interfaces

import (
	"context"

	marketdata "main/internal/domain/entity/marketdata"
)

// CandleArchive persists closed candles of every timeframe for later
// inspection. Implementations must be safe for sequential use from the
// session loop; archiving is best-effort and never blocks order execution.
type CandleArchive interface {
	SaveCandle(ctx context.Context, timeframe marketdata.Timeframe, candle marketdata.Candle) error
	LastCandles(ctx context.Context, timeframe marketdata.Timeframe, limit int) ([]marketdata.Candle, error)
	Close()
}

// CandleSource supplies a full base-cadence candle series for one session,
// ordered by strictly increasing timestamp.
type CandleSource interface {
	Series() ([]marketdata.Candle, error)
}
