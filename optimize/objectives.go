package optimize

import (
	"math"

	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// GradientFunc computes the ascent/descent direction for an objective at
// the current iterate w. A non-nil error signals a numerical degeneracy
// (e.g. variance collapsing to zero) that should stop the solver early.
type GradientFunc func(p *Problem, w []float64) ([]float64, error)

// objectiveSpec pairs a gradient with the direction to step it (ascent vs
// descent) and its fixed learning rate.
type objectiveSpec struct {
	gradient     GradientFunc
	ascent       bool
	learningRate float64
}

// objectiveRegistry mirrors algorithm/algo/algorithm_interface.go's
// algorithmRegistry: a name keyed lookup populated by Register calls
// instead of a hand-maintained switch.
var objectiveRegistry = map[Objective]objectiveSpec{}

// RegisterObjective adds or replaces the gradient/step rule for o.
func RegisterObjective(o Objective, gradient GradientFunc, ascent bool, learningRate float64) {
	objectiveRegistry[o] = objectiveSpec{gradient: gradient, ascent: ascent, learningRate: learningRate}
}

func init() {
	RegisterObjective(MinimizeVariance, minimizeVarianceGradient, false, 0.01)
	RegisterObjective(MeanVariance, meanVarianceGradient, false, 0.01)
	RegisterObjective(MaximizeSharpe, maximizeSharpeGradient, true, 0.001)
	RegisterObjective(RiskParity, riskParityGradient, false, 0.01)
	// MaximizeReturn is solved in closed form by solveMaxReturn and carries
	// no registered gradient.
}

func unknownObjectiveError(o Objective) error {
	return riskerrors.New(riskerrors.InvalidInput, "optimize: unregistered objective "+string(o))
}

func sigmaW(sigma *mat.SymDense, w []float64) []float64 {
	wv := mat.NewVecDense(len(w), w)
	var sw mat.VecDense
	sw.MulVec(sigma, wv)
	out := make([]float64, len(w))
	for i := range out {
		out[i] = sw.AtVec(i)
	}
	return out
}

// minimizeVarianceGradient returns 2*Sigma*w.
func minimizeVarianceGradient(p *Problem, w []float64) ([]float64, error) {
	sw := sigmaW(p.Sigma, w)
	grad := make([]float64, len(w))
	for i := range grad {
		grad[i] = 2 * sw[i]
	}
	return grad, nil
}

// meanVarianceGradient returns lambda*Sigma*w - mu.
func meanVarianceGradient(p *Problem, w []float64) ([]float64, error) {
	sw := sigmaW(p.Sigma, w)
	grad := make([]float64, len(w))
	for i := range grad {
		grad[i] = p.RiskAversion*sw[i] - p.Mu[i]
	}
	return grad, nil
}

// maximizeSharpeGradient ascends (vol*mu - (ret-rf)*Sigma*w/vol) / variance.
func maximizeSharpeGradient(p *Problem, w []float64) ([]float64, error) {
	variance := Variance(w, p.Sigma)
	if variance < 1e-10 {
		return nil, riskerrors.New(riskerrors.NumericalError, "optimize: degenerate variance in Sharpe gradient")
	}
	vol := math.Sqrt(variance)
	ret := Return(w, p.Mu)
	sw := sigmaW(p.Sigma, w)
	excess := ret - p.RiskFreeRate
	grad := make([]float64, len(w))
	for i := range grad {
		grad[i] = (vol*p.Mu[i] - excess*sw[i]/vol) / variance
	}
	return grad, nil
}

// riskParityGradient descends rc_i - target, where rc_i is asset i's risk
// contribution and target = vol/n is the equal-contribution level.
func riskParityGradient(p *Problem, w []float64) ([]float64, error) {
	variance := Variance(w, p.Sigma)
	if variance < 1e-10 {
		return nil, riskerrors.New(riskerrors.NumericalError, "optimize: degenerate variance in risk-parity gradient")
	}
	vol := math.Sqrt(variance)
	sw := sigmaW(p.Sigma, w)
	target := vol / float64(len(w))
	grad := make([]float64, len(w))
	for i := range grad {
		rc := w[i] * sw[i] / vol
		grad[i] = rc - target
	}
	return grad, nil
}
