package snapshot

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/quantedge/riskengine/marketdata"
)

func snapTick(t *testing.T, symbol string, price, volume float64) *marketdata.Tick {
	t.Helper()
	tick, err := marketdata.NewTick(symbol, time.Now().UTC(), price, volume, price-0.01, price+0.01)
	if err != nil {
		t.Fatalf("NewTick failed: %v", err)
	}
	return tick
}

func TestProcessTickAutoSubscribesAndUpserts(t *testing.T) {
	m := New()
	tick1 := snapTick(t, "000001.SZ", 10.0, 100)
	if err := m.ProcessTick(tick1); err != nil {
		t.Fatalf("ProcessTick failed: %v", err)
	}
	if !m.IsSubscribed("000001.SZ") {
		t.Error("expected auto-subscription on first tick")
	}

	tick2 := snapTick(t, "000001.SZ", 10.5, 200)
	if err := m.ProcessTick(tick2); err != nil {
		t.Fatalf("ProcessTick failed: %v", err)
	}

	snap, ok := m.Get("000001.SZ")
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snap.LastPrice != 10.5 || snap.High != 10.5 || snap.Low != 10.0 || snap.Volume != 300 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestChangeAndPct(t *testing.T) {
	m := New()
	tick := snapTick(t, "TEST", 11.0, 100)
	if err := m.ProcessTick(tick); err != nil {
		t.Fatalf("ProcessTick failed: %v", err)
	}
	m.SetPrevClose("TEST", 10.0)

	snap, _ := m.Get("TEST")
	if snap.Change() != 1.0 {
		t.Errorf("Change = %v, want 1.0", snap.Change())
	}
	if math.Abs(snap.ChangePct()-10.0) > 1e-10 {
		t.Errorf("ChangePct = %v, want 10.0", snap.ChangePct())
	}
}

func TestMidPriceAndSpreadBps(t *testing.T) {
	m := New()
	tick := snapTick(t, "TEST", 10.0, 100)
	if err := m.ProcessTick(tick); err != nil {
		t.Fatalf("ProcessTick failed: %v", err)
	}

	snap, _ := m.Get("TEST")
	if snap.MidPrice() != 10.0 {
		t.Errorf("MidPrice = %v, want 10.0", snap.MidPrice())
	}
	want := (snap.Spread() / snap.MidPrice()) * 10000
	if math.Abs(snap.SpreadBps()-want) > 1e-9 {
		t.Errorf("SpreadBps = %v, want %v", snap.SpreadBps(), want)
	}
}

func TestPriceLimitDetection(t *testing.T) {
	m := New()
	tick := snapTick(t, "TEST", 11.0, 100)
	if err := m.ProcessTick(tick); err != nil {
		t.Fatalf("ProcessTick failed: %v", err)
	}
	m.SetPriceLimits("TEST", 11.0, 9.0)

	snap, _ := m.Get("TEST")
	if !snap.IsAtUpperLimit() {
		t.Error("expected snapshot to be at upper limit")
	}
	if snap.IsAtLowerLimit() {
		t.Error("expected snapshot to not be at lower limit")
	}
}

func TestUnsubscribeRemovesSnapshot(t *testing.T) {
	m := New()
	if err := m.ProcessTick(snapTick(t, "TEST", 10.0, 100)); err != nil {
		t.Fatalf("ProcessTick failed: %v", err)
	}
	m.Unsubscribe("TEST")
	if m.IsSubscribed("TEST") {
		t.Error("expected TEST to be unsubscribed")
	}
	if _, ok := m.Get("TEST"); ok {
		t.Error("expected snapshot to be removed with the subscription")
	}
}

func TestResetForNewDayRetainsSubscriptions(t *testing.T) {
	m := New()
	if err := m.ProcessTick(snapTick(t, "TEST", 10.0, 100)); err != nil {
		t.Fatalf("ProcessTick failed: %v", err)
	}
	m.ResetForNewDay()

	if !m.IsSubscribed("TEST") {
		t.Error("expected subscription to survive ResetForNewDay")
	}
	if _, ok := m.Get("TEST"); ok {
		t.Error("expected snapshot data to be cleared")
	}
}

func TestConcurrentUpdatesAcrossSymbolsDoNotRace(t *testing.T) {
	m := New()
	symbols := []string{"AAA", "BBB", "CCC", "DDD"}

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		symbol := symbol
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tick := snapTick(t, symbol, 10.0+float64(i)*0.01, 10)
				if err := m.ProcessTick(tick); err != nil {
					t.Errorf("ProcessTick failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if m.SymbolCount() != len(symbols) {
		t.Errorf("SymbolCount = %v, want %v", m.SymbolCount(), len(symbols))
	}
	for _, symbol := range symbols {
		snap, ok := m.Get(symbol)
		if !ok {
			t.Errorf("expected a snapshot for %s", symbol)
			continue
		}
		if snap.Volume != 1000 {
			t.Errorf("%s: Volume = %v, want 1000", symbol, snap.Volume)
		}
	}
}
