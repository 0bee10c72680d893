package constraints

import (
	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// FactorExposure bounds each factor exposure B^T*w within [Lower, Upper],
// labeling each factor for diagnostics.
type FactorExposure struct {
	Loadings *mat.Dense
	Lower    []float64
	Upper    []float64
	Labels   []string
}

// NewFactorExposure validates that Loadings' factor-column count matches
// Lower/Upper/Labels length.
func NewFactorExposure(loadings *mat.Dense, lower, upper []float64, labels []string) (*FactorExposure, error) {
	_, k := loadings.Dims()
	if len(lower) != k || len(upper) != k {
		return nil, riskerrors.Dimension("factor_exposure: bound length must match factor count", k, len(lower))
	}
	if labels != nil && len(labels) != k {
		return nil, riskerrors.Dimension("factor_exposure: labels length must match factor count", k, len(labels))
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return nil, riskerrors.New(riskerrors.InvalidInput, "factor_exposure: lower bound exceeds upper bound")
		}
	}
	return &FactorExposure{
		Loadings: loadings,
		Lower:    append([]float64(nil), lower...),
		Upper:    append([]float64(nil), upper...),
		Labels:   labels,
	}, nil
}

// Exposures returns B^T * w.
func (fe *FactorExposure) Exposures(w []float64) []float64 {
	_, k := fe.Loadings.Dims()
	wv := mat.NewVecDense(len(w), w)
	var exp mat.VecDense
	exp.MulVec(fe.Loadings.T(), wv)
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = exp.AtVec(i)
	}
	return out
}
