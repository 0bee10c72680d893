// Package snapshot maintains live per-symbol market state fed by a tick
// stream: last trade, session open/high/low, previous close, cumulative
// volume/turnover, top-of-book, and daily price limits.
package snapshot

import (
	"sync"
	"time"

	"github.com/quantedge/riskengine/marketdata"
)

// Snapshot is a single symbol's live market state. Returned by value from
// the Manager so callers never alias the manager's internal state.
type Snapshot struct {
	Symbol     string
	Timestamp  time.Time
	LastPrice  float64
	Open       float64
	High       float64
	Low        float64
	PrevClose  float64
	Volume     float64
	Turnover   float64
	Bid        float64
	Ask        float64
	BidVolume  float64
	AskVolume  float64
	UpperLimit float64
	LowerLimit float64
}

// fromTick builds the first Snapshot for a symbol from its opening tick.
func fromTick(t *marketdata.Tick) Snapshot {
	return Snapshot{
		Symbol:    t.Symbol,
		Timestamp: t.Timestamp,
		LastPrice: t.Price,
		Open:      t.Price,
		High:      t.Price,
		Low:       t.Price,
		Volume:    t.Volume,
		Turnover:  t.Turnover,
		Bid:       t.Bid,
		Ask:       t.Ask,
		BidVolume: t.BidVolume,
		AskVolume: t.AskVolume,
	}
}

// update folds a later tick into the snapshot in place.
func (s *Snapshot) update(t *marketdata.Tick) {
	s.Timestamp = t.Timestamp
	s.LastPrice = t.Price
	if t.Price > s.High {
		s.High = t.Price
	}
	if t.Price < s.Low {
		s.Low = t.Price
	}
	s.Volume += t.Volume
	s.Turnover += t.Turnover
	s.Bid = t.Bid
	s.Ask = t.Ask
	s.BidVolume = t.BidVolume
	s.AskVolume = t.AskVolume
}

// Change returns last price minus previous close.
func (s Snapshot) Change() float64 {
	return s.LastPrice - s.PrevClose
}

// ChangePct returns Change as a percentage of previous close, or 0 when
// previous close is zero.
func (s Snapshot) ChangePct() float64 {
	if s.PrevClose == 0 {
		return 0
	}
	return s.Change() / s.PrevClose * 100
}

// IsAtUpperLimit reports whether the last price sits at the upper daily
// price limit.
func (s Snapshot) IsAtUpperLimit() bool {
	return s.UpperLimit > 0 && absFloat(s.LastPrice-s.UpperLimit) < 0.001
}

// IsAtLowerLimit reports whether the last price sits at the lower daily
// price limit.
func (s Snapshot) IsAtLowerLimit() bool {
	return s.LowerLimit > 0 && absFloat(s.LastPrice-s.LowerLimit) < 0.001
}

// VWAP returns turnover/volume for the session, or LastPrice when no
// volume has traded yet.
func (s Snapshot) VWAP() float64 {
	if s.Volume == 0 {
		return s.LastPrice
	}
	return s.Turnover / s.Volume
}

// Spread returns ask - bid.
func (s Snapshot) Spread() float64 {
	return s.Ask - s.Bid
}

// MidPrice returns (bid+ask)/2.
func (s Snapshot) MidPrice() float64 {
	return (s.Bid + s.Ask) / 2
}

// SpreadBps returns the spread in basis points of the mid price, or 0 when
// the mid price is zero.
func (s Snapshot) SpreadBps() float64 {
	mid := s.MidPrice()
	if mid == 0 {
		return 0
	}
	return (s.Spread() / mid) * 10000
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// entry pairs a per-symbol snapshot with its own lock, so updates to one
// symbol never contend with reads or writes of another — spec.md §5's
// "concurrent mapping with per-key atomic upsert semantics", upgraded
// from the teacher's single global sync.RWMutex over its whole map.
type entry struct {
	mu       sync.RWMutex
	snapshot Snapshot
	exists   bool
}

// Manager is the thread-safe per-symbol snapshot store. Zero value is not
// usable; construct with New.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	subs    map[string]bool
}

// New builds an empty Manager.
func New() *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		subs:    make(map[string]bool),
	}
}

func (m *Manager) entryFor(symbol string) *entry {
	m.mu.RLock()
	e, ok := m.entries[symbol]
	m.mu.RUnlock()
	if ok {
		return e
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok = m.entries[symbol]; ok {
		return e
	}
	e = &entry{}
	m.entries[symbol] = e
	return e
}

// Subscribe marks symbol as subscribed.
func (m *Manager) Subscribe(symbol string) {
	m.mu.Lock()
	m.subs[symbol] = true
	m.mu.Unlock()
}

// Unsubscribe removes symbol's subscription and its snapshot.
func (m *Manager) Unsubscribe(symbol string) {
	m.mu.Lock()
	delete(m.subs, symbol)
	delete(m.entries, symbol)
	m.mu.Unlock()
}

// IsSubscribed reports whether symbol is currently subscribed.
func (m *Manager) IsSubscribed(symbol string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subs[symbol]
}

// ProcessTick auto-subscribes on first arrival for symbol, then upserts
// its snapshot: insert-from-tick on miss, update on hit. Serialized per
// symbol via that symbol's own lock; unrelated symbols never block each
// other.
func (m *Manager) ProcessTick(t *marketdata.Tick) error {
	if !m.IsSubscribed(t.Symbol) {
		m.Subscribe(t.Symbol)
	}

	e := m.entryFor(t.Symbol)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exists {
		e.snapshot.update(t)
	} else {
		e.snapshot = fromTick(t)
		e.exists = true
	}
	return nil
}

// Get returns a copy of symbol's snapshot, if any.
func (m *Manager) Get(symbol string) (Snapshot, bool) {
	m.mu.RLock()
	e, ok := m.entries[symbol]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.exists {
		return Snapshot{}, false
	}
	return e.snapshot, true
}

// GetAll returns a copy of every tracked snapshot.
func (m *Manager) GetAll() []Snapshot {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		if e.exists {
			out = append(out, e.snapshot)
		}
		e.mu.RUnlock()
	}
	return out
}

// SymbolCount returns the number of tracked symbols.
func (m *Manager) SymbolCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetPrevClose attaches a previous-close price to symbol's snapshot, if
// it exists.
func (m *Manager) SetPrevClose(symbol string, prevClose float64) {
	m.mu.RLock()
	e, ok := m.entries[symbol]
	m.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.snapshot.PrevClose = prevClose
	e.mu.Unlock()
}

// SetPriceLimits attaches daily upper/lower price limits to symbol's
// snapshot, if it exists.
func (m *Manager) SetPriceLimits(symbol string, upper, lower float64) {
	m.mu.RLock()
	e, ok := m.entries[symbol]
	m.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.snapshot.UpperLimit = upper
	e.snapshot.LowerLimit = lower
	e.mu.Unlock()
}

// Clear removes every tracked snapshot and subscription.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]*entry)
	m.subs = make(map[string]bool)
	m.mu.Unlock()
}

// ResetForNewDay clears all snapshot data while retaining subscriptions.
func (m *Manager) ResetForNewDay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
}
