package marketdata

import (
	"math"
	"testing"
	"time"
)

func makeTick(t *testing.T, price, volume float64, at time.Time) *Tick {
	t.Helper()
	tick, err := NewTick("TEST", at, price, volume, price-0.01, price+0.01)
	if err != nil {
		t.Fatalf("NewTick failed: %v", err)
	}
	return tick
}

func TestNewTickDerivesTurnover(t *testing.T) {
	tick := makeTick(t, 10.50, 1000, time.Unix(1000, 0).UTC())
	if tick.Turnover != 10500 {
		t.Errorf("Turnover = %v, want 10500", tick.Turnover)
	}
}

func TestNewTickRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name                    string
		symbol                  string
		price, volume, bid, ask float64
	}{
		{"empty symbol", "", 10, 100, 9.99, 10.01},
		{"non-positive price", "TEST", -1, 100, 9.99, 10.01},
		{"negative volume", "TEST", 10, -100, 9.99, 10.01},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewTick(c.symbol, time.Now(), c.price, c.volume, c.bid, c.ask); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSpreadCalculations(t *testing.T) {
	tick := makeTick(t, 10.0, 100, time.Unix(1000, 0).UTC())
	if math.Abs(tick.Spread()-0.02) > 1e-10 {
		t.Errorf("Spread = %v, want 0.02", tick.Spread())
	}
	if math.Abs(tick.MidPrice()-10.0) > 1e-10 {
		t.Errorf("MidPrice = %v, want 10.0", tick.MidPrice())
	}
}

func TestParseTickParsesDecimalStrings(t *testing.T) {
	tick, err := ParseTick("TEST", time.Unix(1000, 0).UTC(), "10.50", "1000", "10.49", "10.51")
	if err != nil {
		t.Fatalf("ParseTick failed: %v", err)
	}
	if tick.Price != 10.50 || tick.Volume != 1000 {
		t.Errorf("parsed tick = %+v", tick)
	}
}

func TestParseTickRejectsMalformedPrice(t *testing.T) {
	if _, err := ParseTick("TEST", time.Now(), "not-a-number", "100", "9.99", "10.01"); err == nil {
		t.Error("expected a parse error")
	}
}

func TestTickBufferEviction(t *testing.T) {
	buf := NewTickBuffer(3)
	if !buf.IsEmpty() {
		t.Fatal("expected new buffer to be empty")
	}

	buf.Push(*makeTick(t, 10.0, 100, time.Unix(1, 0).UTC()))
	buf.Push(*makeTick(t, 10.5, 200, time.Unix(2, 0).UTC()))
	buf.Push(*makeTick(t, 11.0, 150, time.Unix(3, 0).UTC()))

	if buf.Len() != 3 {
		t.Fatalf("Len = %v, want 3", buf.Len())
	}
	latest, ok := buf.Latest()
	if !ok || latest.Price != 11.0 {
		t.Errorf("Latest = %+v, want price 11.0", latest)
	}

	buf.Push(*makeTick(t, 11.5, 100, time.Unix(4, 0).UTC()))
	if buf.Len() != 3 {
		t.Errorf("Len after eviction = %v, want 3", buf.Len())
	}
	latest, _ = buf.Latest()
	if latest.Price != 11.5 {
		t.Errorf("Latest after eviction = %v, want 11.5", latest.Price)
	}
}

func TestTickBufferVWAP(t *testing.T) {
	buf := NewTickBuffer(10)
	buf.Push(*makeTick(t, 10.0, 100, time.Unix(1, 0).UTC()))
	buf.Push(*makeTick(t, 20.0, 100, time.Unix(2, 0).UTC()))

	vwap, ok := buf.VWAP()
	if !ok {
		t.Fatal("expected VWAP to be defined")
	}
	if math.Abs(vwap-15.0) > 1e-10 {
		t.Errorf("VWAP = %v, want 15.0", vwap)
	}
}

func TestTickBufferVWAPUndefinedWhenNoVolume(t *testing.T) {
	buf := NewTickBuffer(5)
	tick, err := NewTick("TEST", time.Now(), 10.0, 0, 9.99, 10.01)
	if err != nil {
		t.Fatalf("NewTick failed: %v", err)
	}
	buf.Push(*tick)
	if _, ok := buf.VWAP(); ok {
		t.Error("expected VWAP to be undefined with zero total volume")
	}
}

func TestTickBufferTicksSince(t *testing.T) {
	buf := NewTickBuffer(10)
	buf.Push(*makeTick(t, 10.0, 100, time.Unix(1, 0).UTC()))
	buf.Push(*makeTick(t, 10.5, 100, time.Unix(5, 0).UTC()))
	buf.Push(*makeTick(t, 11.0, 100, time.Unix(10, 0).UTC()))

	since := buf.TicksSince(time.Unix(5, 0).UTC())
	if len(since) != 2 {
		t.Fatalf("TicksSince returned %d ticks, want 2", len(since))
	}
	if since[0].Price != 10.5 || since[1].Price != 11.0 {
		t.Errorf("TicksSince = %+v", since)
	}
}
