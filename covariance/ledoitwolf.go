package covariance

import (
	"github.com/quantedge/riskengine/matrix"
	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// LedoitWolfResult is the shrinkage estimate plus the derived intensity.
type LedoitWolfResult struct {
	Covariance *mat.SymDense
	Shrinkage  float64
}

// LedoitWolf computes the Ledoit-Wolf shrinkage estimator toward the scaled
// identity target T = mu*I, mu = trace(S)/p, with S the ddof=1 sample
// covariance. The shrinkage intensity is derived from the Frobenius
// distance between S and T and the per-observation outer-product
// residuals, clamped to [0,1].
func LedoitWolf(r *mat.Dense) (*LedoitWolfResult, error) {
	n, p := r.Dims()
	if n < 2 {
		return nil, riskerrors.Insufficient("ledoit-wolf requires at least 2 observations", 2, n)
	}

	means := columnMeans(r)
	xc := centered(r, means)

	s, err := Sample(r, 1)
	if err != nil {
		return nil, err
	}

	mu := matrix.Trace(s) / float64(p)

	// delta2 = ||S - T||_F^2 / p
	var delta2 float64
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			target := 0.0
			if i == j {
				target = mu
			}
			diff := s.At(i, j) - target
			delta2 += diff * diff
		}
	}
	delta2 /= float64(p)

	if delta2 == 0 {
		return &LedoitWolfResult{Covariance: s, Shrinkage: 1}, nil
	}

	// beta: per-observation outer-product residual against S, summed over
	// i,j, accumulated across k, normalized by n^2 * p.
	var beta float64
	for k := 0; k < n; k++ {
		var residual float64
		for i := 0; i < p; i++ {
			xki := xc.At(k, i)
			for j := 0; j < p; j++ {
				outer := xki * xc.At(k, j)
				diff := outer - s.At(i, j)
				residual += diff * diff
			}
		}
		beta += residual
	}
	beta /= float64(n*n*p)

	gamma := delta2
	kappa := (beta - gamma) / delta2
	shrinkage := kappa / float64(n)
	if shrinkage < 0 {
		shrinkage = 0
	}
	if shrinkage > 1 {
		shrinkage = 1
	}

	out := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			target := 0.0
			if i == j {
				target = mu
			}
			out.SetSym(i, j, (1-shrinkage)*s.At(i, j)+shrinkage*target)
		}
	}

	return &LedoitWolfResult{Covariance: out, Shrinkage: shrinkage}, nil
}
