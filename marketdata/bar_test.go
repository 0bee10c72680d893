package marketdata

import (
	"math"
	"testing"
	"time"
)

func barTick(t *testing.T, price, volume float64, at time.Time) *Tick {
	t.Helper()
	tick, err := NewTick("TEST", at, price, volume, price-0.01, price+0.01)
	if err != nil {
		t.Fatalf("NewTick failed: %v", err)
	}
	return tick
}

func TestPeriodSeconds(t *testing.T) {
	cases := map[Period]int64{
		Minute1:  60,
		Minute5:  300,
		Minute15: 900,
		Minute30: 1800,
		Minute60: 3600,
		Daily:    86400,
	}
	for period, want := range cases {
		if got := period.Seconds(); got != want {
			t.Errorf("Period(%v).Seconds() = %v, want %v", period, got, want)
		}
	}
}

func TestAlignTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 3, 45, 0, time.UTC)

	aligned1 := AlignTimestamp(ts, Minute1)
	if aligned1.Minute() != 3 || aligned1.Second() != 0 {
		t.Errorf("Minute1 alignment = %v, want 10:03:00", aligned1)
	}

	aligned5 := AlignTimestamp(ts, Minute5)
	if aligned5.Minute() != 0 {
		t.Errorf("Minute5 alignment = %v, want minute 0", aligned5)
	}
}

func TestAlignTimestampInvariant(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 22, 7, 0, time.UTC)
	for _, period := range []Period{Minute1, Minute5, Minute15, Minute30, Minute60, Daily} {
		aligned := AlignTimestamp(ts, period)
		if aligned.Unix()%period.Seconds() != 0 {
			t.Errorf("period %v: aligned epoch %v not a multiple of %v", period, aligned.Unix(), period.Seconds())
		}
		if aligned.After(ts) || !ts.Before(aligned.Add(period.Duration())) {
			t.Errorf("period %v: alignment %v does not bracket %v", period, aligned, ts)
		}
	}
}

func TestBarAggregation(t *testing.T) {
	agg := NewAggregator(Minute1, 100)
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	if _, closed := agg.Process(barTick(t, 10.0, 100, base)); closed {
		t.Error("first tick should not close a bar")
	}
	if _, ok := agg.Current(); !ok {
		t.Fatal("expected an in-progress bar")
	}

	agg.Process(barTick(t, 10.5, 200, base.Add(30*time.Second)))
	current, _ := agg.Current()
	if current.Open != 10.0 || current.High != 10.5 || current.Close != 10.5 || current.Volume != 300 {
		t.Errorf("in-progress bar = %+v", current)
	}

	closedBar, ok := agg.Process(barTick(t, 11.0, 150, base.Add(61*time.Second)))
	if !ok {
		t.Fatal("expected the third tick to close the first bar")
	}
	if closedBar.Open != 10.0 || closedBar.Close != 10.5 {
		t.Errorf("closed bar = %+v", closedBar)
	}
	if len(agg.Bars()) != 1 {
		t.Errorf("Bars() len = %v, want 1", len(agg.Bars()))
	}
}

func TestBarMetrics(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tick := barTick(t, 10.0, 100, ts)
	bar := NewBar(tick, Minute1)

	if err := bar.Update(barTick(t, 12.0, 200, ts.Add(30*time.Second))); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if !bar.IsBullish() {
		t.Error("expected bar to be bullish")
	}
	if bar.Range() != 2.0 {
		t.Errorf("Range = %v, want 2.0", bar.Range())
	}
	if bar.Body() != 2.0 {
		t.Errorf("Body = %v, want 2.0", bar.Body())
	}
	if math.Abs(bar.ReturnPct()-20.0) > 1e-10 {
		t.Errorf("ReturnPct = %v, want 20.0", bar.ReturnPct())
	}
}

func TestBarUpdateRejectsForeignTick(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	bar := NewBar(barTick(t, 10.0, 100, ts), Minute1)

	otherSymbol, err := NewTick("OTHER", ts, 11.0, 100, 10.99, 11.01)
	if err != nil {
		t.Fatalf("NewTick failed: %v", err)
	}
	if err := bar.Update(otherSymbol); err == nil {
		t.Error("expected AggregationError for a different symbol")
	}

	laterTick := barTick(t, 11.0, 100, ts.Add(2*time.Minute))
	if err := bar.Update(laterTick); err == nil {
		t.Error("expected AggregationError for a tick outside this bar's window")
	}
}

func TestAggregatorFlushAndMaxBars(t *testing.T) {
	agg := NewAggregator(Minute1, 2)
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		agg.Process(barTick(t, 10.0+float64(i), 100, base.Add(time.Duration(i)*time.Minute)))
	}
	closedBar, ok := agg.Flush()
	if !ok {
		t.Fatal("expected Flush to close the in-progress bar")
	}
	if closedBar.Open != 12.0 {
		t.Errorf("flushed bar open = %v, want 12.0", closedBar.Open)
	}
	if len(agg.Bars()) != 2 {
		t.Errorf("Bars() len = %v, want 2 (bounded by max_bars)", len(agg.Bars()))
	}
}
