// Package covariance implements the statistical covariance estimators the
// spec names: sample, correlation, Ledoit-Wolf shrinkage, EWMA, and a
// fork-join parallel sample estimator that must agree with the sequential
// one bitwise-close.
//
// All estimators take a row-major return matrix R (n_obs rows, n_assets
// columns, oldest-first where order matters) and return a *mat.SymDense,
// generalizing the single-asset placeholder math in the teacher's
// algorithm/algo/mvo.go and hrp.go into real multi-asset statistics built
// on gonum.org/v1/gonum/mat.
package covariance

import (
	"math"

	"github.com/quantedge/riskengine/matrix"
	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// columnMeans returns the mean of each column of r.
func columnMeans(r *mat.Dense) []float64 {
	n, p := r.Dims()
	means := make([]float64, p)
	for j := 0; j < p; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += r.At(i, j)
		}
		means[j] = sum / float64(n)
	}
	return means
}

// centered returns r with each column's mean subtracted.
func centered(r *mat.Dense, means []float64) *mat.Dense {
	n, p := r.Dims()
	xc := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xc.Set(i, j, r.At(i, j)-means[j])
		}
	}
	return xc
}

// Sample computes the sample covariance matrix of R with the given delta
// degrees of freedom (0 or 1). Requires n_obs > ddof. The result is exactly
// symmetric (enforced by matrix.Symmetrize) with non-negative diagonal.
func Sample(r *mat.Dense, ddof int) (*mat.SymDense, error) {
	n, p := r.Dims()
	if n <= ddof {
		return nil, riskerrors.Insufficient("sample covariance requires n_obs > ddof", ddof+1, n)
	}

	xc := centered(r, columnMeans(r))

	var st mat.Dense
	st.Mul(xc.T(), xc)
	st.Scale(1.0/float64(n-ddof), &st)

	return matrix.Symmetrize(&st), nil
}

// Correlation computes the correlation matrix implied by a covariance
// matrix: C_ij = Sigma_ij / (sigma_i * sigma_j) when both standard
// deviations are positive, with the diagonal forced to 1.
func Correlation(cov *mat.SymDense) *mat.SymDense {
	n := cov.SymmetricDim()
	std := make([]float64, n)
	for i := 0; i < n; i++ {
		std[i] = math.Sqrt(math.Max(cov.At(i, i), 0))
	}

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			if std[i] > 0 && std[j] > 0 {
				out.SetSym(i, j, cov.At(i, j)/(std[i]*std[j]))
			} else {
				out.SetSym(i, j, 0)
			}
		}
	}
	return out
}
