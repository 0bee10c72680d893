// Package factormodel implements the structured factor covariance
// Sigma = B*F*B^T + D and the portfolio-level risk decomposition built on
// top of it, without ever materializing the full N x N covariance matrix
// except when a caller explicitly asks for it via ToFull.
//
// New domain content relative to the teacher repo (spec.md §4.3); shaped on
// the teacher's validate-then-store constructor pattern
// (algorithm/algo/mvo.go's NewMVOAlgorithm) and on the matrix package's PSD
// check for F.
package factormodel

import (
	"math"

	"github.com/quantedge/riskengine/matrix"
	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// Model is the triple (B, F, D): B is n_assets x n_factors loadings, F is
// the n_factors x n_factors PSD factor covariance, D is the n_assets
// specific-variance vector.
type Model struct {
	b        *mat.Dense
	f        *mat.SymDense
	d        []float64
	labels   []string
	nAssets  int
	nFactors int
}

// New validates dimensions, rejects a non-PSD F or negative specific
// variances, and returns a Model.
func New(b *mat.Dense, f *mat.SymDense, d []float64) (*Model, error) {
	nAssets, nFactors := b.Dims()
	if f.SymmetricDim() != nFactors {
		return nil, riskerrors.Dimension("factormodel: F dimension must match B's factor columns", nFactors, f.SymmetricDim())
	}
	if len(d) != nAssets {
		return nil, riskerrors.Dimension("factormodel: D length must match B's asset rows", nAssets, len(d))
	}
	for _, v := range d {
		if v < 0 {
			return nil, riskerrors.New(riskerrors.InvalidInput, "factormodel: specific variances must be >= 0")
		}
	}
	if !matrix.IsPSD(f, 1e-10) {
		return nil, riskerrors.New(riskerrors.NotPositiveSemiDefinite, "factormodel: F must be PSD (eigenvalues >= -1e-10)")
	}

	dCopy := make([]float64, nAssets)
	copy(dCopy, d)

	bCopy := mat.NewDense(nAssets, nFactors, nil)
	bCopy.Copy(b)

	fCopy := mat.NewSymDense(nFactors, nil)
	fCopy.CopySym(f)

	return &Model{b: bCopy, f: fCopy, d: dCopy, nAssets: nAssets, nFactors: nFactors}, nil
}

// NAssets returns n_assets.
func (m *Model) NAssets() int { return m.nAssets }

// NFactors returns n_factors.
func (m *Model) NFactors() int { return m.nFactors }

// WithFactorLabels attaches human-readable factor names, used by
// VarianceDecomposition's per-factor breakdown. Validated against n_factors.
func (m *Model) WithFactorLabels(labels []string) (*Model, error) {
	if len(labels) != m.nFactors {
		return nil, riskerrors.Dimension("factormodel: labels length must match factor count", m.nFactors, len(labels))
	}
	m.labels = append([]string(nil), labels...)
	return m, nil
}

// ToFull materializes Sigma = B*F*B^T + diag(D), symmetrized. Intended only
// for interop with code that needs a dense covariance matrix; callers
// should otherwise prefer the structured operations below.
func (m *Model) ToFull() *mat.SymDense {
	var bf mat.Dense
	bf.Mul(m.b, m.f)

	var full mat.Dense
	full.Mul(&bf, m.b.T())

	for i := 0; i < m.nAssets; i++ {
		full.Set(i, i, full.At(i, i)+m.d[i])
	}

	return matrix.Symmetrize(&full)
}

func (m *Model) checkWeights(w []float64) error {
	if len(w) != m.nAssets {
		return riskerrors.Dimension("factormodel: weights length mismatch", m.nAssets, len(w))
	}
	return nil
}

// PortfolioFactorExposures returns B^T * w.
func (m *Model) PortfolioFactorExposures(w []float64) ([]float64, error) {
	if err := m.checkWeights(w); err != nil {
		return nil, err
	}
	wv := mat.NewVecDense(m.nAssets, w)
	var f mat.VecDense
	f.MulVec(m.b.T(), wv)
	return denseVecData(&f), nil
}

// PortfolioVariance computes f = B^T w once, then f^T F f + sum_i w_i^2*d_i.
// Linear in N*K plus K^2.
func (m *Model) PortfolioVariance(w []float64) (float64, error) {
	f, err := m.PortfolioFactorExposures(w)
	if err != nil {
		return 0, err
	}

	fv := mat.NewVecDense(len(f), f)
	var ff mat.VecDense
	ff.MulVec(m.f, fv)

	factorVar := mat.Dot(fv, &ff)

	var specificVar float64
	for i, wi := range w {
		specificVar += wi * wi * m.d[i]
	}

	return factorVar + specificVar, nil
}

// MCTR returns the marginal contribution to risk, (Sigma*w)/sqrt(variance),
// computed without materializing Sigma: Sigma*w = B*(F*(B^T*w)) + D elementwise* w.
func (m *Model) MCTR(w []float64) ([]float64, error) {
	variance, err := m.PortfolioVariance(w)
	if err != nil {
		return nil, err
	}
	if variance <= 0 {
		return nil, riskerrors.New(riskerrors.NumericalError, "factormodel: mctr requires positive portfolio variance")
	}
	vol := math.Sqrt(variance)

	f, err := m.PortfolioFactorExposures(w)
	if err != nil {
		return nil, err
	}
	fv := mat.NewVecDense(len(f), f)
	var ff mat.VecDense
	ff.MulVec(m.f, fv)

	var bff mat.VecDense
	bff.MulVec(m.b, &ff)

	sigmaW := make([]float64, m.nAssets)
	for i := 0; i < m.nAssets; i++ {
		sigmaW[i] = bff.AtVec(i) + m.d[i]*w[i]
	}

	mctr := make([]float64, m.nAssets)
	for i := range sigmaW {
		mctr[i] = sigmaW[i] / vol
	}
	return mctr, nil
}

// RiskContribution returns w elementwise-multiplied by MCTR(w). The sum of
// the entries equals sqrt(PortfolioVariance(w)) to 1e-10.
func (m *Model) RiskContribution(w []float64) ([]float64, error) {
	mctr, err := m.MCTR(w)
	if err != nil {
		return nil, err
	}
	rc := make([]float64, len(w))
	for i, wi := range w {
		rc[i] = wi * mctr[i]
	}
	return rc, nil
}

// Decomposition is the total/factor/specific variance breakdown.
type Decomposition struct {
	Total               float64
	Factor              float64
	Specific            float64
	Exposures           []float64
	FactorFraction      float64
	SpecificFraction    float64
	FactorContributions []FactorContribution
}

// FactorContribution is one factor's share of total portfolio variance:
// exposure_i * (F * exposure)_i, the additive decomposition of factorVar =
// exposure^T * F * exposure across its i terms.
type FactorContribution struct {
	FactorIndex     int
	FactorLabel     string
	Exposure        float64
	Contribution    float64
	ContributionPct float64
}

// VarianceDecomposition returns total, factor, and specific variance, factor
// exposures, and a per-factor contribution breakdown. FactorFraction +
// SpecificFraction = 1 when Total > 0.
func (m *Model) VarianceDecomposition(w []float64) (*Decomposition, error) {
	if err := m.checkWeights(w); err != nil {
		return nil, err
	}
	exposures, err := m.PortfolioFactorExposures(w)
	if err != nil {
		return nil, err
	}

	fv := mat.NewVecDense(len(exposures), exposures)
	var ff mat.VecDense
	ff.MulVec(m.f, fv)
	factorVar := mat.Dot(fv, &ff)

	var specificVar float64
	for i, wi := range w {
		specificVar += wi * wi * m.d[i]
	}

	total := factorVar + specificVar
	dec := &Decomposition{
		Total:     total,
		Factor:    factorVar,
		Specific:  specificVar,
		Exposures: exposures,
	}
	if total > 0 {
		dec.FactorFraction = factorVar / total
		dec.SpecificFraction = specificVar / total
	}

	dec.FactorContributions = make([]FactorContribution, len(exposures))
	for i, exposure := range exposures {
		contribution := exposure * ff.AtVec(i)
		label := ""
		if i < len(m.labels) {
			label = m.labels[i]
		}
		var pct float64
		if total > 0 {
			pct = contribution / total
		}
		dec.FactorContributions[i] = FactorContribution{
			FactorIndex:     i,
			FactorLabel:     label,
			Exposure:        exposure,
			Contribution:    contribution,
			ContributionPct: pct,
		}
	}

	return dec, nil
}

// UpdateFactorCovariance swaps in a new F after re-checking its shape and
// PSD-ness. F is the only mutable field of a Model.
func (m *Model) UpdateFactorCovariance(f *mat.SymDense) error {
	if f.SymmetricDim() != m.nFactors {
		return riskerrors.Dimension("factormodel: new F dimension mismatch", m.nFactors, f.SymmetricDim())
	}
	if !matrix.IsPSD(f, 1e-10) {
		return riskerrors.New(riskerrors.NotPositiveSemiDefinite, "factormodel: new F must be PSD")
	}
	fCopy := mat.NewSymDense(m.nFactors, nil)
	fCopy.CopySym(f)
	m.f = fCopy
	return nil
}

func denseVecData(v *mat.VecDense) []float64 {
	n := v.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = v.AtVec(i)
	}
	return out
}
