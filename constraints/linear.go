package constraints

import (
	"github.com/quantedge/riskengine/riskerrors"
	"gonum.org/v1/gonum/mat"
)

// Linear is a single linear constraint A*w {=,<=} b, tagged with a name.
type Linear struct {
	A        *mat.Dense
	B        []float64
	Equality bool
	Name     string
}

// NewLinear validates that A has len(b) rows and builds a Linear constraint.
func NewLinear(a *mat.Dense, b []float64, equality bool, name string) (*Linear, error) {
	rows, _ := a.Dims()
	if rows != len(b) {
		return nil, riskerrors.Dimension("linear: A row count must match len(b)", len(b), rows)
	}
	bCopy := append([]float64(nil), b...)
	return &Linear{A: a, B: bCopy, Equality: equality, Name: name}, nil
}

// NCols returns the number of assets (A's column count).
func (l *Linear) NCols() int {
	_, cols := l.A.Dims()
	return cols
}

// FullInvestment builds the equality constraint 1^T w = 1 for n assets.
func FullInvestment(n int) (*Linear, error) {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	a := mat.NewDense(1, n, ones)
	return NewLinear(a, []float64{1}, true, "full_investment")
}

// SectorExposure builds a 0/1 indicator matrix from a per-asset sector
// membership slice (sector index in [0, nSectors)) and caps every sector's
// aggregate weight at cap. Grounded on the 0/1 loading-matrix construction
// pattern used for indicator matrices in factor-analysis code (build a zero
// matrix, set one entry per row).
func SectorExposure(membership []int, nSectors int, capValue float64) (*Linear, error) {
	n := len(membership)
	a := mat.NewDense(nSectors, n, nil)
	for asset, sector := range membership {
		if sector < 0 || sector >= nSectors {
			return nil, riskerrors.New(riskerrors.InvalidInput, "sector_exposure: sector index out of range")
		}
		a.Set(sector, asset, 1)
	}
	b := make([]float64, nSectors)
	for i := range b {
		b[i] = capValue
	}
	return NewLinear(a, b, false, "sector_exposure")
}
