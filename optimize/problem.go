// Package optimize builds the optimization problem and the projected-
// gradient solver over it: five objectives (minimum variance, mean-
// variance, maximum expected return, maximum Sharpe, risk parity), a
// builder-style Problem the way the teacher's AlgorithmConfig is built, and
// an Objective registry directly adapted from
// algorithm/algo/algorithm_interface.go's Register/Create/FactoryFunc
// machinery.
package optimize

import (
	"math"

	"github.com/quantedge/riskengine/constraints"
	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// Objective names one of the five supported optimization objectives.
type Objective string

const (
	MinimizeVariance Objective = "minimize_variance"
	MeanVariance     Objective = "mean_variance"
	MaximizeReturn   Objective = "maximize_return"
	MaximizeSharpe   Objective = "maximize_sharpe"
	RiskParity       Objective = "risk_parity"
)

// TransactionCost models fixed + linear + quadratic-impact trading costs
// per unit of absolute trade value t: fixed + linear*t + impact*t^2,
// charged only when a trade actually occurs (t > 0).
type TransactionCost struct {
	Fixed  float64
	Linear float64
	Impact float64
}

// Cost returns the cost of trading absolute value t.
func (tc *TransactionCost) Cost(t float64) float64 {
	if tc == nil || t == 0 {
		return 0
	}
	return tc.Fixed + tc.Linear*t + tc.Impact*t*t
}

// Total sums Cost(|w_i - w0_i|) over all assets.
func (tc *TransactionCost) Total(w, w0 []float64) float64 {
	if tc == nil {
		return 0
	}
	var total float64
	for i := range w {
		total += tc.Cost(math.Abs(w[i] - w0[i]))
	}
	return total
}

// Problem is the optimization problem builder: required expected returns
// and covariance, with long-only + full-investment, MinimizeVariance,
// lambda=1, r_f=0 as the defaults — only mu and Sigma are mandatory.
type Problem struct {
	NAssets         int
	Mu              []float64
	Sigma           *mat.SymDense
	Constraints     *constraints.Set
	Objective       Objective
	RiskAversion    float64
	RiskFreeRate    float64
	TransactionCost *TransactionCost
	CurrentWeights  []float64
}

// NewProblem builds a Problem from the mandatory expected-returns vector
// and covariance matrix, filling every other field with its default.
func NewProblem(mu []float64, sigma *mat.SymDense) (*Problem, error) {
	n := len(mu)
	if sigma.SymmetricDim() != n {
		return nil, riskerrors.Dimension("optimize: Sigma dimension must match len(mu)", n, sigma.SymmetricDim())
	}

	defaultSet, err := constraints.LongOnlyFullInvestment(n)
	if err != nil {
		return nil, err
	}

	return &Problem{
		NAssets:      n,
		Mu:           append([]float64(nil), mu...),
		Sigma:        sigma,
		Constraints:  defaultSet,
		Objective:    MinimizeVariance,
		RiskAversion: 1,
		RiskFreeRate: 0,
	}, nil
}

// WithConstraints overrides the constraint set.
func (p *Problem) WithConstraints(set *constraints.Set) *Problem {
	p.Constraints = set
	return p
}

// WithObjective overrides the objective.
func (p *Problem) WithObjective(o Objective) *Problem {
	p.Objective = o
	return p
}

// WithRiskAversion overrides lambda (used by MeanVariance).
func (p *Problem) WithRiskAversion(lambda float64) *Problem {
	p.RiskAversion = lambda
	return p
}

// WithRiskFreeRate overrides r_f (used by MaximizeSharpe).
func (p *Problem) WithRiskFreeRate(rf float64) *Problem {
	p.RiskFreeRate = rf
	return p
}

// WithTransactionCost attaches a transaction-cost model.
func (p *Problem) WithTransactionCost(tc *TransactionCost) *Problem {
	p.TransactionCost = tc
	return p
}

// WithCurrentWeights attaches the portfolio's current weights (used by
// transaction-cost accounting; a turnover constraint carries its own
// reference weights).
func (p *Problem) WithCurrentWeights(w []float64) *Problem {
	p.CurrentWeights = append([]float64(nil), w...)
	return p
}

// Validate enforces: |mu| = Sigma rows = Sigma cols = n_assets; Sigma
// symmetric to 1e-10; any attached box/current-weights vectors have length
// n_assets.
func (p *Problem) Validate() error {
	n := p.NAssets
	if len(p.Mu) != n {
		return riskerrors.Dimension("optimize: mu length mismatch", n, len(p.Mu))
	}
	if p.Sigma.SymmetricDim() != n {
		return riskerrors.Dimension("optimize: Sigma dimension mismatch", n, p.Sigma.SymmetricDim())
	}
	if !symmetricToTolerance(p.Sigma, 1e-10) {
		return riskerrors.New(riskerrors.NotPositiveSemiDefinite, "optimize: Sigma must be symmetric to 1e-10")
	}
	if p.Constraints != nil && p.Constraints.Box != nil && p.Constraints.Box.N() != n {
		return riskerrors.Dimension("optimize: box length mismatch", n, p.Constraints.Box.N())
	}
	if p.CurrentWeights != nil && len(p.CurrentWeights) != n {
		return riskerrors.Dimension("optimize: current weights length mismatch", n, len(p.CurrentWeights))
	}
	return nil
}

func symmetricToTolerance(m *mat.SymDense, tol float64) bool {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// Variance returns w^T Sigma w.
func Variance(w []float64, sigma *mat.SymDense) float64 {
	wv := mat.NewVecDense(len(w), w)
	var sw mat.VecDense
	sw.MulVec(sigma, wv)
	return mat.Dot(wv, &sw)
}

// Return returns mu^T w.
func Return(w, mu []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * mu[i]
	}
	return sum
}

// Sharpe returns (mu^T w - r_f) / sqrt(w^T Sigma w).
func Sharpe(w, mu []float64, sigma *mat.SymDense, rf float64) float64 {
	variance := Variance(w, sigma)
	if variance <= 0 {
		return 0
	}
	return (Return(w, mu) - rf) / math.Sqrt(variance)
}

func (p *Problem) effectiveBox() (*constraints.Box, error) {
	if p.Constraints != nil && p.Constraints.Box != nil {
		return p.Constraints.Box, nil
	}
	return constraints.LongOnly(p.NAssets)
}
