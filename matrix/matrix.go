// Package matrix provides the conditioning utilities the rest of the
// engine's numerical pipeline depends on: symmetry/PSD checks, eigen-based
// PSD repair, regularization, SPD inversion, matrix square root, condition
// number, and the small norm/trace helpers everything else calls.
//
// Every matrix here is represented with gonum.org/v1/gonum/mat. Symmetric
// matrices use mat.Symmetric (backed by *mat.SymDense); callers that start
// from a plain *mat.Dense first call Symmetrize.
package matrix

import (
	"math"

	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the symmetry/PSD eigenvalue tolerance fixed by the
// spec: 1e-10 everywhere these checks are made.
const DefaultTolerance = 1e-10

// IsSymmetric reports whether M is square and |M_ij - M_ji| <= tol for all
// i < j.
func IsSymmetric(m *mat.Dense, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// Symmetrize returns (M + M^T) / 2 as a SymDense. Applying Symmetrize to an
// already-symmetric matrix is idempotent.
func Symmetrize(m *mat.Dense) *mat.SymDense {
	r, c := m.Dims()
	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			out.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return out
}

// eigenSym factorizes a symmetric matrix and returns ascending eigenvalues
// plus the eigenvector matrix (columns are eigenvectors, same ordering).
func eigenSym(m mat.Symmetric) ([]float64, *mat.Dense, bool) {
	var eig mat.EigenSym
	ok := eig.Factorize(m, true)
	if !ok {
		return nil, nil, false
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	return values, &vectors, true
}

// IsPSD reports whether M is symmetric and every eigenvalue is >= -tol.
func IsPSD(m mat.Symmetric, tol float64) bool {
	values, _, ok := eigenSym(m)
	if !ok {
		return false
	}
	for _, v := range values {
		if v < -tol {
			return false
		}
	}
	return true
}

// MakePSD symmetrizes M, eigen-decomposes it, clips every eigenvalue to be
// at least minEV, and reconstructs V*diag(lambda')*V^T. The result is
// symmetric with minimum eigenvalue >= minEV.
func MakePSD(m *mat.Dense, minEV float64) (*mat.SymDense, error) {
	sym := Symmetrize(m)
	values, vectors, ok := eigenSym(sym)
	if !ok {
		return nil, riskerrors.New(riskerrors.NotPositiveSemiDefinite, "eigendecomposition failed in MakePSD")
	}

	n := len(values)
	clipped := make([]float64, n)
	for i, v := range values {
		clipped[i] = math.Max(v, minEV)
	}

	return reconstructSym(n, vectors, clipped), nil
}

// reconstructSym builds V*diag(lambda)*V^T as a SymDense.
func reconstructSym(n int, vectors *mat.Dense, lambda []float64) *mat.SymDense {
	scaled := mat.NewDense(n, n, nil)
	scaled.Apply(func(i, j int, v float64) float64 {
		return v * lambda[j]
	}, vectors)

	var full mat.Dense
	full.Mul(scaled, vectors.T())

	return Symmetrize(&full)
}

// ConditionNumber returns lambda_max / lambda_min over strictly positive
// eigenvalues, or +Inf when there is no positive eigenvalue or the smallest
// positive eigenvalue rounds to zero.
func ConditionNumber(m mat.Symmetric) float64 {
	values, _, ok := eigenSym(m)
	if !ok {
		return math.Inf(1)
	}

	lambdaMin := math.Inf(1)
	lambdaMax := math.Inf(-1)
	found := false
	for _, v := range values {
		if v > 0 {
			found = true
			if v < lambdaMin {
				lambdaMin = v
			}
			if v > lambdaMax {
				lambdaMax = v
			}
		}
	}
	if !found || lambdaMin == 0 {
		return math.Inf(1)
	}
	return lambdaMax / lambdaMin
}

// Regularize shrinks M toward an isotropic target scaled by its average
// diagonal: (1-alpha)*M + alpha*(mean(diag(M))*I).
func Regularize(m mat.Symmetric, alpha float64) (*mat.SymDense, error) {
	if alpha < 0 || alpha > 1 {
		return nil, riskerrors.New(riskerrors.InvalidInput, "regularize: alpha must be in [0,1]")
	}
	n := m.SymmetricDim()
	meanDiag := Trace(m) / float64(n)

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (1 - alpha) * m.At(i, j)
			if i == j {
				v += alpha * meanDiag
			}
			out.SetSym(i, j, v)
		}
	}
	return out, nil
}

// InverseSPD inverts a symmetric positive-definite matrix via Cholesky
// factorization, returning riskerrors.NotPositiveSemiDefinite if the
// factorization fails.
func InverseSPD(m mat.Symmetric) (*mat.Dense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(m); !ok {
		return nil, riskerrors.New(riskerrors.NotPositiveSemiDefinite, "cholesky factorization failed")
	}
	var inv mat.Dense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, riskerrors.Wrap(riskerrors.SingularMatrix, "cholesky inverse failed", err)
	}
	return &inv, nil
}

// Sqrt computes a symmetric matrix square root via eigendecomposition,
// rejecting inputs whose minimum eigenvalue is below -1e-10.
func Sqrt(m mat.Symmetric) (*mat.SymDense, error) {
	values, vectors, ok := eigenSym(m)
	if !ok {
		return nil, riskerrors.New(riskerrors.NotPositiveSemiDefinite, "eigendecomposition failed in Sqrt")
	}
	for _, v := range values {
		if v < -1e-10 {
			return nil, riskerrors.New(riskerrors.NotPositiveSemiDefinite, "matrix has eigenvalue below -1e-10")
		}
	}

	n := len(values)
	sqrtLambda := make([]float64, n)
	for i, v := range values {
		sqrtLambda[i] = math.Sqrt(math.Max(v, 0))
	}
	return reconstructSym(n, vectors, sqrtLambda), nil
}

// Frobenius returns the Frobenius norm of M.
func Frobenius(m mat.Matrix) float64 {
	return mat.Norm(m, 2)
}

// Trace returns the sum of the diagonal entries of M.
func Trace(m mat.Symmetric) float64 {
	n := m.SymmetricDim()
	var sum float64
	for i := 0; i < n; i++ {
		sum += m.At(i, i)
	}
	return sum
}
