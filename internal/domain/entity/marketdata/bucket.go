package marketdata

// Bucket accumulates base candles belonging to one not-yet-closed higher
// timeframe period. Members are contiguous in arrival order; the bucket is
// reset to empty the instant it closes.
type Bucket struct {
	candles   []Candle
	timeframe Timeframe
}

// NewBucket creates an empty bucket for the given timeframe length.
func NewBucket(timeframe Timeframe) *Bucket {
	return &Bucket{
		candles:   make([]Candle, 0, int(timeframe)),
		timeframe: timeframe,
	}
}

func (b *Bucket) Add(candle Candle) {
	b.candles = append(b.candles, candle)
}

func (b *Bucket) Len() int {
	return len(b.candles)
}

func (b *Bucket) Timeframe() Timeframe {
	return b.timeframe
}

// Full reports whether the bucket holds exactly its timeframe length of
// members and must be closed.
func (b *Bucket) Full() bool {
	return len(b.candles) >= int(b.timeframe)
}

// Aggregate folds the member candles into a single candle: open of the first
// member, close of the last, max high, min low, summed volume and the first
// member's timestamp. Returns false when the bucket is empty.
func (b *Bucket) Aggregate() (Candle, bool) {
	if len(b.candles) == 0 {
		return Candle{}, false
	}

	first := b.candles[0]
	last := b.candles[len(b.candles)-1]

	high := first.High
	low := first.Low
	volume := 0.0
	for _, c := range b.candles {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
		volume += c.Volume
	}

	return NewCandle(first.Timestamp, first.Open, high, low, last.Close, volume), true
}

// Partial returns the live aggregate of a bucket that is filling but not yet
// full, so a consumer can render the in-progress candle. Returns false when
// the bucket is empty or has just closed.
func (b *Bucket) Partial() (Candle, bool) {
	if len(b.candles) == 0 || b.Full() {
		return Candle{}, false
	}
	return b.Aggregate()
}

// Reset empties the bucket, ready to accumulate the next period.
func (b *Bucket) Reset() {
	b.candles = b.candles[:0]
}
