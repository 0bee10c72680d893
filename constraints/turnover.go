package constraints

import "github.com/quantedge/riskengine/riskerrors"

// Turnover caps the L1 distance from a reference portfolio: ||w - w0||_1 <= Max.
type Turnover struct {
	Reference []float64
	Max       float64
}

// NewTurnover validates Max >= 0.
func NewTurnover(reference []float64, max float64) (*Turnover, error) {
	if max < 0 {
		return nil, riskerrors.New(riskerrors.InvalidInput, "turnover: max must be >= 0")
	}
	ref := append([]float64(nil), reference...)
	return &Turnover{Reference: ref, Max: max}, nil
}

// Feasible reports whether w satisfies the turnover cap.
func (t *Turnover) Feasible(w []float64) bool {
	return t.L1Distance(w) <= t.Max
}

// L1Distance returns ||w - Reference||_1.
func (t *Turnover) L1Distance(w []float64) float64 {
	var sum float64
	for i := range w {
		d := w[i] - t.Reference[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}
