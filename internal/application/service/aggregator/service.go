package aggregator

import (
	marketdata "main/internal/domain/entity/marketdata"
)

// Service folds a base one-minute candle stream into parallel five and
// fifteen minute series. A higher timeframe bucket closes the instant its
// member count equals the timeframe length, not on a wall-clock boundary.
//
// Callers must deliver candles in strictly increasing timestamp order;
// out-of-order input is undefined. All operations are total given
// well-ordered input.
type Service struct {
	oneMinute     []marketdata.Candle
	fiveMinute    []marketdata.Candle
	fifteenMinute []marketdata.Candle

	fiveMinBucket    *marketdata.Bucket
	fifteenMinBucket *marketdata.Bucket
}

func NewService() *Service {
	return &Service{
		fiveMinBucket:    marketdata.NewBucket(marketdata.TimeframeFiveMinute),
		fifteenMinBucket: marketdata.NewBucket(marketdata.TimeframeFifteenMinute),
	}
}

// AddCandle ingests one base candle, appending it to the one-minute series
// and folding it into each higher timeframe bucket independently.
func (s *Service) AddCandle(candle marketdata.Candle) {
	s.oneMinute = append(s.oneMinute, candle)
	s.fiveMinute = fold(s.fiveMinBucket, s.fiveMinute, candle)
	s.fifteenMinute = fold(s.fifteenMinBucket, s.fifteenMinute, candle)
}

func fold(bucket *marketdata.Bucket, out []marketdata.Candle, candle marketdata.Candle) []marketdata.Candle {
	bucket.Add(candle)
	if !bucket.Full() {
		return out
	}
	if aggregated, ok := bucket.Aggregate(); ok {
		out = append(out, aggregated)
	}
	bucket.Reset()
	return out
}

// OneMinuteCandles returns a copy of the base series.
func (s *Service) OneMinuteCandles() []marketdata.Candle {
	return copySeries(s.oneMinute)
}

// FiveMinuteCandles returns a copy of the closed five-minute series.
func (s *Service) FiveMinuteCandles() []marketdata.Candle {
	return copySeries(s.fiveMinute)
}

// FifteenMinuteCandles returns a copy of the closed fifteen-minute series.
func (s *Service) FifteenMinuteCandles() []marketdata.Candle {
	return copySeries(s.fifteenMinute)
}

// Candles returns a copy of the closed series for the given timeframe.
func (s *Service) Candles(timeframe marketdata.Timeframe) []marketdata.Candle {
	switch timeframe {
	case marketdata.TimeframeFiveMinute:
		return s.FiveMinuteCandles()
	case marketdata.TimeframeFifteenMinute:
		return s.FifteenMinuteCandles()
	default:
		return s.OneMinuteCandles()
	}
}

// CurrentFiveMinuteCandle exposes the live aggregate of the in-progress
// five-minute bucket, or false when the bucket is empty or just closed.
func (s *Service) CurrentFiveMinuteCandle() (marketdata.Candle, bool) {
	return s.fiveMinBucket.Partial()
}

// CurrentFifteenMinuteCandle exposes the live aggregate of the in-progress
// fifteen-minute bucket, or false when the bucket is empty or just closed.
func (s *Service) CurrentFifteenMinuteCandle() (marketdata.Candle, bool) {
	return s.fifteenMinBucket.Partial()
}

// PartialCandle exposes the in-progress bucket for the given higher
// timeframe. The one-minute series has no partial candle.
func (s *Service) PartialCandle(timeframe marketdata.Timeframe) (marketdata.Candle, bool) {
	switch timeframe {
	case marketdata.TimeframeFiveMinute:
		return s.CurrentFiveMinuteCandle()
	case marketdata.TimeframeFifteenMinute:
		return s.CurrentFifteenMinuteCandle()
	default:
		return marketdata.Candle{}, false
	}
}

// Lengths reports the number of closed candles in each series.
func (s *Service) Lengths() (oneMinute, fiveMinute, fifteenMinute int) {
	return len(s.oneMinute), len(s.fiveMinute), len(s.fifteenMinute)
}

// LastCandle returns the most recently closed candle of a timeframe.
func (s *Service) LastCandle(timeframe marketdata.Timeframe) (marketdata.Candle, bool) {
	var series []marketdata.Candle
	switch timeframe {
	case marketdata.TimeframeFiveMinute:
		series = s.fiveMinute
	case marketdata.TimeframeFifteenMinute:
		series = s.fifteenMinute
	default:
		series = s.oneMinute
	}
	if len(series) == 0 {
		return marketdata.Candle{}, false
	}
	return series[len(series)-1], true
}

// Reset clears all three series and both buckets, returning to the empty
// initial state.
func (s *Service) Reset() {
	s.oneMinute = nil
	s.fiveMinute = nil
	s.fifteenMinute = nil
	s.fiveMinBucket.Reset()
	s.fifteenMinBucket.Reset()
}

func copySeries(in []marketdata.Candle) []marketdata.Candle {
	if len(in) == 0 {
		return nil
	}
	out := make([]marketdata.Candle, len(in))
	copy(out, in)
	return out
}
