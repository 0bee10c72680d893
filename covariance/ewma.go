package covariance

import (
	"math"

	"github.com/quantedge/riskengine/matrix"
	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// EWMA is an exponentially weighted moving-average covariance estimator
// parameterized by a decay factor lambda in (0,1).
type EWMA struct {
	lambda float64
}

// NewEWMA builds an EWMA estimator from an explicit decay factor.
func NewEWMA(lambda float64) (*EWMA, error) {
	if lambda <= 0 || lambda >= 1 {
		return nil, riskerrors.New(riskerrors.InvalidInput, "ewma: lambda must be in (0,1)")
	}
	return &EWMA{lambda: lambda}, nil
}

// NewEWMAFromHalfLife builds an EWMA estimator from a half-life h (in the
// same units as the observation spacing), deriving lambda = 1 - exp(ln(0.5)/h).
func NewEWMAFromHalfLife(h float64) (*EWMA, error) {
	if h <= 0 {
		return nil, riskerrors.New(riskerrors.InvalidInput, "ewma: half-life must be > 0")
	}
	lambda := 1 - math.Exp(math.Log(0.5)/h)
	return NewEWMA(lambda)
}

// Lambda returns the estimator's decay factor.
func (e *EWMA) Lambda() float64 { return e.lambda }

// Compute runs the EWMA recurrence over R, whose rows must be ordered
// oldest-first. C0 = r0*r0^T from the oldest row; for each later row
// C <- lambda*C + (1-lambda)*(r_t*r_t^T). Returns Symmetrize(C).
func (e *EWMA) Compute(r *mat.Dense) (*mat.SymDense, error) {
	n, p := r.Dims()
	if n < 2 {
		return nil, riskerrors.Insufficient("ewma requires at least 2 observations", 2, n)
	}

	c := mat.NewDense(p, p, nil)
	row0 := mat.NewVecDense(p, mat.Row(nil, 0, r))
	c.Mul(row0, row0.T())

	for t := 1; t < n; t++ {
		rowT := mat.NewVecDense(p, mat.Row(nil, t, r))
		var outer mat.Dense
		outer.Mul(rowT, rowT.T())

		var next mat.Dense
		next.Scale(e.lambda, c)
		var scaledOuter mat.Dense
		scaledOuter.Scale(1-e.lambda, &outer)
		next.Add(&next, &scaledOuter)
		c = &next
	}

	return matrix.Symmetrize(c), nil
}
