// Package constraints shapes the constraint primitives the optimization
// problem and solver consume: per-asset box bounds, linear equality/
// inequality constraints, turnover caps, factor-exposure bands, and the
// aggregate set that bundles them. Shaped as plain structs the way the
// teacher shapes algorithm/algo/algorithm_interface.go's AlgorithmConfig.
package constraints

import "github.com/quantedge/riskengine/riskerrors"

// Box holds per-asset (lower, upper) bounds.
type Box struct {
	Lower []float64
	Upper []float64
}

// NewBox validates lower <= upper elementwise and equal lengths.
func NewBox(lower, upper []float64) (*Box, error) {
	if len(lower) != len(upper) {
		return nil, riskerrors.Dimension("box: lower/upper length mismatch", len(lower), len(upper))
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return nil, riskerrors.New(riskerrors.InvalidInput, "box: lower bound exceeds upper bound")
		}
	}
	l := append([]float64(nil), lower...)
	u := append([]float64(nil), upper...)
	return &Box{Lower: l, Upper: u}, nil
}

// Uniform builds a Box with the same (lower, upper) pair for all n assets.
func Uniform(n int, lower, upper float64) (*Box, error) {
	l := make([]float64, n)
	u := make([]float64, n)
	for i := 0; i < n; i++ {
		l[i] = lower
		u[i] = upper
	}
	return NewBox(l, u)
}

// LongOnly builds Uniform(n, 0, 1).
func LongOnly(n int) (*Box, error) {
	return Uniform(n, 0, 1)
}

// N returns the number of assets the box covers.
func (b *Box) N() int { return len(b.Lower) }
