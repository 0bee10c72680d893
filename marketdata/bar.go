package marketdata

import (
	"time"

	"github.com/quantedge/riskengine/riskerrors"
)

// Period is one of the fixed bar durations the system tracks.
type Period int

const (
	Minute1 Period = iota
	Minute5
	Minute15
	Minute30
	Minute60
	Daily
)

// Seconds returns the bar period's duration in seconds.
func (p Period) Seconds() int64 {
	switch p {
	case Minute1:
		return 60
	case Minute5:
		return 300
	case Minute15:
		return 900
	case Minute30:
		return 1800
	case Minute60:
		return 3600
	case Daily:
		return 86400
	default:
		return 60
	}
}

// Duration returns the bar period as a time.Duration.
func (p Period) Duration() time.Duration {
	return time.Duration(p.Seconds()) * time.Second
}

// AlignTimestamp floors ts to the bar boundary: floor(ts/period)*period.
func AlignTimestamp(ts time.Time, period Period) time.Time {
	secs := ts.Unix()
	periodSecs := period.Seconds()
	aligned := (secs / periodSecs) * periodSecs
	return time.Unix(aligned, 0).UTC()
}

// Bar is an aggregated OHLCV window for one (symbol, period).
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Period    Period
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Turnover  float64
	TickCount uint64
	VWAP      float64
}

// NewBar opens a bar from the first tick, aligning its start timestamp.
func NewBar(tick *Tick, period Period) *Bar {
	return &Bar{
		Symbol:    tick.Symbol,
		Timestamp: AlignTimestamp(tick.Timestamp, period),
		Period:    period,
		Open:      tick.Price,
		High:      tick.Price,
		Low:       tick.Price,
		Close:     tick.Price,
		Volume:    tick.Volume,
		Turnover:  tick.Turnover,
		TickCount: 1,
		VWAP:      tick.Price,
	}
}

// Accepts reports whether tick belongs in this bar: same symbol, same
// aligned start.
func (b *Bar) Accepts(tick *Tick) bool {
	if tick.Symbol != b.Symbol {
		return false
	}
	return AlignTimestamp(tick.Timestamp, b.Period).Equal(b.Timestamp)
}

// Update folds tick into the bar's running OHLCV statistics. Rejects a
// tick that does not belong to this bar with AggregationError.
func (b *Bar) Update(tick *Tick) error {
	if !b.Accepts(tick) {
		return riskerrors.New(riskerrors.AggregationError, "marketdata: tick does not belong to this bar")
	}
	if tick.Price > b.High {
		b.High = tick.Price
	}
	if tick.Price < b.Low {
		b.Low = tick.Price
	}
	b.Close = tick.Price
	b.Volume += tick.Volume
	b.Turnover += tick.Turnover
	b.TickCount++
	if b.Volume > 0 {
		b.VWAP = b.Turnover / b.Volume
	}
	return nil
}

// IsComplete reports whether wall time has passed the bar's end.
func (b *Bar) IsComplete(currentTime time.Time) bool {
	return !currentTime.Before(b.Timestamp.Add(b.Period.Duration()))
}

// Range returns high - low.
func (b *Bar) Range() float64 {
	return b.High - b.Low
}

// Body returns |close - open|.
func (b *Bar) Body() float64 {
	d := b.Close - b.Open
	if d < 0 {
		return -d
	}
	return d
}

// IsBullish reports close > open.
func (b *Bar) IsBullish() bool {
	return b.Close > b.Open
}

// ReturnPct returns the bar's percentage return, or 0 when open is zero.
func (b *Bar) ReturnPct() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open * 100
}

// Aggregator folds a single symbol's tick stream into a sequence of bars:
// one in-progress bar plus a bounded FIFO of completed bars.
type Aggregator struct {
	period    Period
	current   *Bar
	completed []Bar
	maxBars   int
}

// NewAggregator builds an Aggregator for period, retaining at most maxBars
// completed bars.
func NewAggregator(period Period, maxBars int) *Aggregator {
	return &Aggregator{period: period, maxBars: maxBars, completed: make([]Bar, 0, maxBars)}
}

// Process folds tick into the in-progress bar, or closes it and opens a
// new one if tick does not belong. Returns the bar that was just closed,
// if any.
func (a *Aggregator) Process(tick *Tick) (Bar, bool) {
	if a.current != nil && a.current.Accepts(tick) {
		_ = a.current.Update(tick)
		return Bar{}, false
	}

	var closed Bar
	var didClose bool
	if a.current != nil {
		closed = *a.current
		a.storeCompleted(closed)
		didClose = true
	}
	a.current = NewBar(tick, a.period)
	return closed, didClose
}

// Flush force-closes the in-progress bar (e.g. at market close).
func (a *Aggregator) Flush() (Bar, bool) {
	if a.current == nil {
		return Bar{}, false
	}
	closed := *a.current
	a.storeCompleted(closed)
	a.current = nil
	return closed, true
}

func (a *Aggregator) storeCompleted(bar Bar) {
	if len(a.completed) >= a.maxBars {
		a.completed = a.completed[1:]
	}
	a.completed = append(a.completed, bar)
}

// Bars returns the completed bars, oldest first.
func (a *Aggregator) Bars() []Bar {
	return a.completed
}

// Current returns the in-progress bar, if any.
func (a *Aggregator) Current() (Bar, bool) {
	if a.current == nil {
		return Bar{}, false
	}
	return *a.current, true
}

// Clear discards the in-progress bar and all completed bars.
func (a *Aggregator) Clear() {
	a.current = nil
	a.completed = a.completed[:0]
}
