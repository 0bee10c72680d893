// Package marketdata ingests raw trades into Ticks, buffers them in a
// bounded FIFO, and aggregates a tick stream into aligned OHLCV bars.
package marketdata

import (
	"time"

	"github.com/quantedge/riskengine/riskerrors"
	"github.com/shopspring/decimal"
)

// Tick is a single validated trade or quote update. Immutable after
// construction.
type Tick struct {
	Symbol    string
	Timestamp time.Time
	Price     float64
	Volume    float64
	Turnover  float64
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

// NewTick validates and constructs a Tick, deriving Turnover = Price*Volume.
// Volume of zero marks a quote-only tick.
func NewTick(symbol string, timestamp time.Time, price, volume, bid, ask float64) (*Tick, error) {
	if symbol == "" {
		return nil, riskerrors.New(riskerrors.InvalidSymbol, "marketdata: symbol must not be empty")
	}
	if price <= 0 {
		return nil, riskerrors.New(riskerrors.InvalidPrice, "marketdata: price must be positive")
	}
	if volume < 0 {
		return nil, riskerrors.New(riskerrors.InvalidVolume, "marketdata: volume must be non-negative")
	}
	return &Tick{
		Symbol:    symbol,
		Timestamp: timestamp,
		Price:     price,
		Volume:    volume,
		Turnover:  price * volume,
		Bid:       bid,
		Ask:       ask,
	}, nil
}

// WithBookSizes attaches bid/ask sizes, returning a new Tick (Ticks stay
// immutable after NewTick).
func (t *Tick) WithBookSizes(bidVolume, askVolume float64) *Tick {
	out := *t
	out.BidVolume = bidVolume
	out.AskVolume = askVolume
	return &out
}

// MidPrice returns (bid+ask)/2.
func (t *Tick) MidPrice() float64 {
	return (t.Bid + t.Ask) / 2
}

// Spread returns ask - bid.
func (t *Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// SpreadBps returns the spread in basis points of the mid price, or 0 when
// the mid price is zero.
func (t *Tick) SpreadBps() float64 {
	mid := t.MidPrice()
	if mid == 0 {
		return 0
	}
	return (t.Spread() / mid) * 10000
}

// ParseTick parses a tick off its wire-string boundary: prices and
// volumes are decoded through shopspring/decimal first (so "10.50" never
// silently loses precision to float rounding on the way in) and only then
// converted to the float64 the numerical core operates on.
func ParseTick(symbol string, timestamp time.Time, priceStr, volumeStr, bidStr, askStr string) (*Tick, error) {
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, riskerrors.Wrap(riskerrors.InvalidPrice, "marketdata: parse price", err)
	}
	volume, err := decimal.NewFromString(volumeStr)
	if err != nil {
		return nil, riskerrors.Wrap(riskerrors.InvalidVolume, "marketdata: parse volume", err)
	}
	bid, err := decimal.NewFromString(bidStr)
	if err != nil {
		return nil, riskerrors.Wrap(riskerrors.InvalidPrice, "marketdata: parse bid", err)
	}
	ask, err := decimal.NewFromString(askStr)
	if err != nil {
		return nil, riskerrors.Wrap(riskerrors.InvalidPrice, "marketdata: parse ask", err)
	}

	priceF, _ := price.Float64()
	volumeF, _ := volume.Float64()
	bidF, _ := bid.Float64()
	askF, _ := ask.Float64()

	return NewTick(symbol, timestamp, priceF, volumeF, bidF, askF)
}

// TickBuffer is a bounded FIFO of the most recent ticks for one symbol.
type TickBuffer struct {
	capacity int
	ticks    []Tick
}

// NewTickBuffer builds a TickBuffer holding at most capacity ticks.
func NewTickBuffer(capacity int) *TickBuffer {
	return &TickBuffer{capacity: capacity, ticks: make([]Tick, 0, capacity)}
}

// Push appends a tick, evicting the oldest entry when at capacity.
func (b *TickBuffer) Push(t Tick) {
	if len(b.ticks) >= b.capacity {
		b.ticks = b.ticks[1:]
	}
	b.ticks = append(b.ticks, t)
}

// Latest returns the most recently pushed tick.
func (b *TickBuffer) Latest() (Tick, bool) {
	if len(b.ticks) == 0 {
		return Tick{}, false
	}
	return b.ticks[len(b.ticks)-1], true
}

// Len returns the number of buffered ticks.
func (b *TickBuffer) Len() int {
	return len(b.ticks)
}

// IsEmpty reports whether the buffer holds no ticks.
func (b *TickBuffer) IsEmpty() bool {
	return len(b.ticks) == 0
}

// VWAP returns the volume-weighted average price over positive-volume
// entries, or false when total volume is zero.
func (b *TickBuffer) VWAP() (float64, bool) {
	var turnover, volume float64
	for _, t := range b.ticks {
		if t.Volume > 0 {
			turnover += t.Turnover
			volume += t.Volume
		}
	}
	if volume == 0 {
		return 0, false
	}
	return turnover / volume, true
}

// TicksSince returns the entries with timestamp >= since, oldest first.
func (b *TickBuffer) TicksSince(since time.Time) []Tick {
	var out []Tick
	for _, t := range b.ticks {
		if !t.Timestamp.Before(since) {
			out = append(out, t)
		}
	}
	return out
}

// Clear empties the buffer.
func (b *TickBuffer) Clear() {
	b.ticks = b.ticks[:0]
}
