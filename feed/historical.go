// Package feed adapts external market-data transports — Alpaca's
// historical-bars REST API and a live tick websocket — into the return
// matrices and Tick stream the rest of the engine consumes. Grounded on
// the teacher's own Alpaca client wiring and streaming-server shape, now
// pointed at the risk engine's data-ingestion path instead of a trading
// bot's order path.
package feed

import (
	"context"
	"math"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// HistoricalBarSource fetches historical daily bars from Alpaca and
// builds the return matrix the covariance estimators consume.
type HistoricalBarSource struct {
	client *marketdata.Client
}

// NewHistoricalBarSource wraps an Alpaca market-data client.
func NewHistoricalBarSource(client *marketdata.Client) *HistoricalBarSource {
	return &HistoricalBarSource{client: client}
}

// ReturnMatrix fetches daily bars for each symbol over [start, end] and
// builds the n_obs x n_assets simple-return matrix R (row i = period i's
// close-to-close return, oldest first). Symbols whose bar count disagrees
// with the first symbol's are rejected with DimensionMismatch — every
// column of R must share one observation index.
func (s *HistoricalBarSource) ReturnMatrix(ctx context.Context, symbols []string, start, end time.Time) (*mat.Dense, error) {
	if len(symbols) == 0 {
		return nil, riskerrors.New(riskerrors.InvalidInput, "feed: no symbols requested")
	}

	closesBySymbol := make([][]float64, len(symbols))
	var nBars int
	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, riskerrors.Wrap(riskerrors.AggregationError, "feed: fetch historical bars for "+symbol, err)
		}
		closes := make([]float64, len(bars))
		for j, bar := range bars {
			closes[j] = bar.Close
		}
		if i == 0 {
			nBars = len(closes)
		} else if len(closes) != nBars {
			return nil, riskerrors.Dimension("feed: bar count mismatch across symbols", nBars, len(closes))
		}
		closesBySymbol[i] = closes
	}

	if nBars < 2 {
		return nil, riskerrors.Insufficient("feed: need at least 2 bars to compute a return", 2, nBars)
	}

	data, nObs, nAssets := closesToReturnMatrixData(closesBySymbol)
	if err := sanityCheckFinite(data); err != nil {
		return nil, err
	}
	return mat.NewDense(nObs, nAssets, data), nil
}

// closesToReturnMatrixData converts one close-price series per asset into
// row-major simple-return data: row i, column j = asset j's return over
// period i, oldest first.
func closesToReturnMatrixData(closesBySymbol [][]float64) (data []float64, nObs, nAssets int) {
	nAssets = len(closesBySymbol)
	nObs = len(closesBySymbol[0]) - 1
	data = make([]float64, nObs*nAssets)
	for j, closes := range closesBySymbol {
		for i := 0; i < nObs; i++ {
			prev, cur := closes[i], closes[i+1]
			ret := 0.0
			if prev != 0 {
				ret = (cur - prev) / prev
			}
			data[i*nAssets+j] = ret
		}
	}
	return data, nObs, nAssets
}

// sanityCheckFinite rejects a return matrix containing non-finite
// entries, matching spec.md's "finite floating-point entries" input
// contract for sample matrices.
func sanityCheckFinite(data []float64) error {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return riskerrors.New(riskerrors.InvalidInput, "feed: return matrix contains a non-finite entry")
		}
	}
	return nil
}
