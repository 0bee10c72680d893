package optimize

import (
	"math"
	"sort"

	"github.com/quantedge/riskengine/constraints"
	"gonum.org/v1/gonum/mat"
)

// TradingDaysPerYear is the annualization factor applied to a per-period
// volatility, matching the original Rust engine's 252-trading-day assumption
// for daily returns.
const TradingDaysPerYear = 252

// AnnualizedVolatility scales a per-period volatility to an annualized
// figure: vol * sqrt(TradingDaysPerYear).
func AnnualizedVolatility(volatility float64) float64 {
	return volatility * math.Sqrt(TradingDaysPerYear)
}

// Status reports how a Solve call terminated.
type Status string

const (
	StatusOptimal        Status = "optimal"
	StatusSubOptimal     Status = "sub_optimal"
	StatusInfeasible     Status = "infeasible"
	StatusUnbounded      Status = "unbounded"
	StatusMaxIterations  Status = "max_iterations"
	StatusNumericalError Status = "numerical_error"
)

// Result is the outcome of a Solve call.
type Result struct {
	Weights              []float64
	Return               float64
	Variance             float64
	Volatility           float64
	AnnualizedVolatility float64
	Sharpe               float64
	Iterations           int
	Status               Status
	Cost                 float64
}

// Solver runs the projected-gradient loop described for each objective.
type Solver struct {
	MaxIterations int
	EpsAbs        float64
}

// NewSolver builds a Solver, defaulting MaxIterations to 10000 and EpsAbs
// to 1e-6 when zero is passed.
func NewSolver(maxIterations int, epsAbs float64) *Solver {
	if maxIterations <= 0 {
		maxIterations = 10000
	}
	if epsAbs <= 0 {
		epsAbs = 1e-6
	}
	return &Solver{MaxIterations: maxIterations, EpsAbs: epsAbs}
}

// Solve validates p and dispatches to the closed-form MaximizeReturn
// solver or the shared iterative projected-gradient loop.
func (s *Solver) Solve(p *Problem) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Objective == MaximizeReturn {
		return s.solveMaxReturn(p)
	}
	return s.iterativeSolve(p)
}

func (s *Solver) iterativeSolve(p *Problem) (*Result, error) {
	spec, ok := objectiveRegistry[p.Objective]
	if !ok {
		return nil, unknownObjectiveError(p.Objective)
	}

	box, err := p.effectiveBox()
	if err != nil {
		return nil, err
	}

	var w []float64
	if p.Objective == RiskParity {
		// Inverse-variance weights are the natural warm start for a
		// risk-parity-flavored allocation: assets with lower variance start
		// with more weight, closer to the equalized-contribution optimum
		// than a uniform 1/n iterate.
		w = inverseVarianceWeights(p.Sigma)
	} else {
		w = uniformWeights(p.NAssets)
	}
	w, err = s.projectFeasible(p, box, w)
	if err != nil {
		return nil, err
	}
	if p.Objective == RiskParity {
		w = enforceRiskParityFloor(w)
	}

	iter := 0
	for ; iter < s.MaxIterations; iter++ {
		grad, gradErr := spec.gradient(p, w)
		if gradErr != nil {
			return s.buildResult(p, w, iter, StatusNumericalError), nil
		}
		if l2Norm(grad) < s.EpsAbs {
			return s.buildResult(p, w, iter, StatusOptimal), nil
		}

		next := make([]float64, p.NAssets)
		for i := range w {
			if spec.ascent {
				next[i] = w[i] + spec.learningRate*grad[i]
			} else {
				next[i] = w[i] - spec.learningRate*grad[i]
			}
		}

		next, err = s.projectFeasible(p, box, next)
		if err != nil {
			return nil, err
		}
		if p.Objective == RiskParity {
			next = enforceRiskParityFloor(next)
		}
		w = next
	}
	return s.buildResult(p, w, iter, StatusMaxIterations), nil
}

// solveMaxReturn places maximum admissible weight on the highest-return
// asset, then fills remaining capacity down the return ranking up to each
// asset's upper bound, then normalizes the sum back to one and re-clips
// to the box — a single-iteration closed form, not an iterative climb.
func (s *Solver) solveMaxReturn(p *Problem) (*Result, error) {
	box, err := p.effectiveBox()
	if err != nil {
		return nil, err
	}

	n := p.NAssets
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return p.Mu[order[a]] > p.Mu[order[b]] })

	w := append([]float64(nil), box.Lower...)
	remaining := 1.0
	for i := range w {
		remaining -= w[i]
	}
	for _, idx := range order {
		if remaining <= 1e-12 {
			break
		}
		capacity := box.Upper[idx] - w[idx]
		alloc := math.Min(capacity, remaining)
		if alloc > 0 {
			w[idx] += alloc
			remaining -= alloc
		}
	}

	w = normalizeSum(w, 1.0)
	w = clipBox(w, box)

	status := StatusOptimal
	if remaining > 1e-6 {
		status = StatusInfeasible
	}
	return s.buildResult(p, w, 1, status), nil
}

// projectFeasible projects w onto box bounds intersected with the
// full-investment simplex via a single tau-bisection, then — if a
// turnover constraint is present — alternates with scaling the deviation
// from the turnover reference down by Max/||w - reference||_1 until both
// hold or a cap of five rounds is reached. General linear inequalities and factor-exposure bands are
// not enforced by this projection; only box, full investment, and
// turnover are.
func (s *Solver) projectFeasible(p *Problem, box *constraints.Box, w []float64) ([]float64, error) {
	projected := projectSimplexBox(w, box, 1.0)

	if p.Constraints == nil || p.Constraints.Turnover == nil {
		return projected, nil
	}

	to := p.Constraints.Turnover
	for iter := 0; iter < 5; iter++ {
		dist := to.L1Distance(projected)
		if dist <= to.Max {
			break
		}
		scale := to.Max / dist
		adjusted := make([]float64, len(projected))
		for i := range adjusted {
			adjusted[i] = to.Reference[i] + scale*(projected[i]-to.Reference[i])
		}
		projected = projectSimplexBox(adjusted, box, 1.0)
	}
	return projected, nil
}

// projectSimplexBox finds, by bisection on tau, the shift that makes
// sum(clip(w - tau, lower, upper)) equal target, then returns that
// clipped vector. This replaces an oscillating clip/rescale/re-clip loop
// with a single monotone root-find.
func projectSimplexBox(w []float64, box *constraints.Box, target float64) []float64 {
	f := func(tau float64) float64 {
		var sum float64
		for i := range w {
			sum += clip(w[i]-tau, box.Lower[i], box.Upper[i])
		}
		return sum - target
	}

	lo, hi := -10.0, 10.0
	for _, v := range w {
		if v-lo < -10 {
			lo = v - 10
		}
		if v-hi > 10 {
			hi = v + 10
		}
	}
	// f is non-increasing in tau; widen until the bracket contains a root.
	for f(lo) < 0 {
		lo -= 10
	}
	for f(hi) > 0 {
		hi += 10
	}

	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	tau := (lo + hi) / 2

	out := make([]float64, len(w))
	for i := range w {
		out[i] = clip(w[i]-tau, box.Lower[i], box.Upper[i])
	}
	return out
}

func clip(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

func clipBox(w []float64, box *constraints.Box) []float64 {
	out := make([]float64, len(w))
	for i := range w {
		out[i] = clip(w[i], box.Lower[i], box.Upper[i])
	}
	return out
}

func normalizeSum(w []float64, target float64) []float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		return append([]float64(nil), w...)
	}
	out := make([]float64, len(w))
	scale := target / sum
	for i := range w {
		out[i] = w[i] * scale
	}
	return out
}

// enforceRiskParityFloor clamps every weight to at least 1e-6 (risk
// contribution is undefined at w_i = 0) and renormalizes to sum to one.
func enforceRiskParityFloor(w []float64) []float64 {
	const floor = 1e-6
	out := make([]float64, len(w))
	for i, v := range w {
		if v < floor {
			out[i] = floor
		} else {
			out[i] = v
		}
	}
	return normalizeSum(out, 1.0)
}

func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

// inverseVarianceWeights weights each asset by 1/variance, normalized to sum
// to one. Assets with zero or near-zero variance are floored to avoid
// dividing by zero.
func inverseVarianceWeights(sigma *mat.SymDense) []float64 {
	n := sigma.SymmetricDim()
	w := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		variance := sigma.At(i, i)
		if variance <= 0 {
			variance = 1e-8
		}
		w[i] = 1.0 / variance
		total += w[i]
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

func l2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func (s *Solver) buildResult(p *Problem, w []float64, iterations int, status Status) *Result {
	variance := Variance(w, p.Sigma)
	ret := Return(w, p.Mu)
	var cost float64
	if p.TransactionCost != nil && p.CurrentWeights != nil {
		cost = p.TransactionCost.Total(w, p.CurrentWeights)
	}
	volatility := math.Sqrt(math.Max(variance, 0))
	return &Result{
		Weights:              w,
		Return:               ret,
		Variance:             variance,
		Volatility:           volatility,
		AnnualizedVolatility: AnnualizedVolatility(volatility),
		Sharpe:               Sharpe(w, p.Mu, p.Sigma, p.RiskFreeRate),
		Iterations:           iterations,
		Status:               status,
		Cost:                 cost,
	}
}
