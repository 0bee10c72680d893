package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quantedge/riskengine/marketdata"
	"github.com/quantedge/riskengine/riskerrors"
)

// wireTick is the on-the-wire shape of a tick message: strings for the
// price-bearing fields so ParseTick can route them through
// shopspring/decimal before they ever become a float64.
type wireTick struct {
	Symbol    string `json:"symbol"`
	Timestamp int64  `json:"timestamp"`
	Price     string `json:"price"`
	Volume    string `json:"volume"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
}

// TickHandler receives one successfully decoded tick.
type TickHandler func(*marketdata.Tick)

// TickStreamReader decodes a live tick stream off a websocket connection,
// the same context-cancellation shape the teacher's TickerServer used for
// its polling loop, swapped for a blocking websocket read loop.
type TickStreamReader struct {
	url     string
	handler TickHandler
	conn    *websocket.Conn
}

// NewTickStreamReader builds a reader that will dial url and invoke
// handler for every decoded tick.
func NewTickStreamReader(url string, handler TickHandler) *TickStreamReader {
	return &TickStreamReader{url: url, handler: handler}
}

// Run dials the websocket and reads ticks until ctx is canceled or the
// connection errors. Malformed messages are logged and skipped; they do
// not terminate the stream (spec.md §7: tick-level validation errors must
// not poison the aggregator or snapshot manager).
func (r *TickStreamReader) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return riskerrors.Wrap(riskerrors.NotSubscribed, "feed: dial tick stream", err)
	}
	r.conn = conn
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return riskerrors.Wrap(riskerrors.NotSubscribed, "feed: read tick stream", err)
		}

		tick, err := decodeWireTick(message)
		if err != nil {
			log.Printf("feed: dropping malformed tick message: %v", err)
			continue
		}
		r.handler(tick)
	}
}

func decodeWireTick(message []byte) (*marketdata.Tick, error) {
	var wire wireTick
	if err := json.Unmarshal(message, &wire); err != nil {
		return nil, fmt.Errorf("decode wire tick: %w", err)
	}
	ts := time.Unix(wire.Timestamp, 0).UTC()
	return marketdata.ParseTick(wire.Symbol, ts, wire.Price, wire.Volume, wire.Bid, wire.Ask)
}

// Close closes the underlying websocket connection, if dialed.
func (r *TickStreamReader) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
