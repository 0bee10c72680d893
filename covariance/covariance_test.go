package covariance

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func sampleReturns() *mat.Dense {
	rows := [][]float64{
		{0.01, 0.02, 0.015},
		{-0.005, 0.01, 0.005},
		{0.02, -0.01, 0.01},
		{0.005, 0.015, -0.005},
		{-0.01, 0.005, 0.02},
		{0.015, -0.005, 0.01},
		{0.008, 0.012, -0.008},
		{-0.012, 0.008, 0.015},
		{0.018, -0.015, 0.005},
		{0.003, 0.018, 0.012},
	}
	data := make([]float64, 0, len(rows)*3)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), 3, data)
}

func TestSampleSymmetricPositiveDiagonal(t *testing.T) {
	r := sampleReturns()
	cov, err := Sample(r, 1)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	n := cov.SymmetricDim()
	if n != 3 {
		t.Fatalf("expected 3x3, got %dx%d", n, n)
	}
	for i := 0; i < n; i++ {
		if cov.At(i, i) <= 0 {
			t.Errorf("diagonal %d = %v, want > 0", i, cov.At(i, i))
		}
		for j := i + 1; j < n; j++ {
			if math.Abs(cov.At(i, j)-cov.At(j, i)) > 1e-12 {
				t.Errorf("cov not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestSampleInsufficientObservations(t *testing.T) {
	r := mat.NewDense(1, 2, []float64{0.01, 0.02})
	if _, err := Sample(r, 1); err == nil {
		t.Error("expected error for n_obs <= ddof")
	}
}

func TestCorrelationUnitDiagonalBounded(t *testing.T) {
	r := sampleReturns()
	cov, err := Sample(r, 1)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	corr := Correlation(cov)
	n := corr.SymmetricDim()
	for i := 0; i < n; i++ {
		if math.Abs(corr.At(i, i)-1) > 1e-9 {
			t.Errorf("diagonal %d = %v, want 1", i, corr.At(i, i))
		}
		for j := 0; j < n; j++ {
			if corr.At(i, j) < -1-1e-9 || corr.At(i, j) > 1+1e-9 {
				t.Errorf("correlation (%d,%d) = %v out of [-1,1]", i, j, corr.At(i, j))
			}
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	r := sampleReturns()
	seq, err := Sample(r, 1)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	par, err := ParallelSample(r, 1)
	if err != nil {
		t.Fatalf("ParallelSample failed: %v", err)
	}
	n := seq.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if math.Abs(seq.At(i, j)-par.At(i, j)) >= 1e-10 {
				t.Errorf("mismatch at (%d,%d): seq=%v par=%v", i, j, seq.At(i, j), par.At(i, j))
			}
		}
	}
}

func TestLedoitWolfBoundedShrinkage(t *testing.T) {
	r := sampleReturns()
	result, err := LedoitWolf(r)
	if err != nil {
		t.Fatalf("LedoitWolf failed: %v", err)
	}
	if result.Shrinkage < 0 || result.Shrinkage > 1 {
		t.Errorf("shrinkage = %v, want in [0,1]", result.Shrinkage)
	}
	n := result.Covariance.SymmetricDim()
	for i := 0; i < n; i++ {
		if result.Covariance.At(i, i) <= 0 {
			t.Errorf("diagonal %d = %v, want > 0", i, result.Covariance.At(i, i))
		}
		for j := i + 1; j < n; j++ {
			if math.Abs(result.Covariance.At(i, j)-result.Covariance.At(j, i)) > 1e-12 {
				t.Errorf("ledoit-wolf result not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestLedoitWolfInsufficientObservations(t *testing.T) {
	r := mat.NewDense(1, 2, []float64{0.01, 0.02})
	if _, err := LedoitWolf(r); err == nil {
		t.Error("expected error for n_obs < 2")
	}
}

func TestEWMADecaySymmetric(t *testing.T) {
	r := sampleReturns()
	e, err := NewEWMA(0.94)
	if err != nil {
		t.Fatalf("NewEWMA failed: %v", err)
	}
	cov, err := e.Compute(r)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	n := cov.SymmetricDim()
	if n != 3 {
		t.Fatalf("expected 3x3, got %dx%d", n, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(cov.At(i, j)-cov.At(j, i)) > 1e-12 {
				t.Errorf("ewma result not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestEWMAHalfLifeDerivesValidLambda(t *testing.T) {
	e, err := NewEWMAFromHalfLife(30)
	if err != nil {
		t.Fatalf("NewEWMAFromHalfLife failed: %v", err)
	}
	if e.Lambda() <= 0 || e.Lambda() >= 1 {
		t.Errorf("lambda = %v, want in (0,1)", e.Lambda())
	}
}

func TestEWMARejectsInvalidLambda(t *testing.T) {
	if _, err := NewEWMA(0); err == nil {
		t.Error("expected error for lambda=0")
	}
	if _, err := NewEWMA(1); err == nil {
		t.Error("expected error for lambda=1")
	}
	if _, err := NewEWMAFromHalfLife(-1); err == nil {
		t.Error("expected error for negative half-life")
	}
}

func TestEWMAInsufficientObservations(t *testing.T) {
	e, _ := NewEWMA(0.5)
	r := mat.NewDense(1, 2, []float64{0.01, 0.02})
	if _, err := e.Compute(r); err == nil {
		t.Error("expected error for fewer than 2 rows")
	}
}
