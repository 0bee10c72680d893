package constraints

// Set bundles the optional/repeated constraint kinds a problem can carry:
// an optional box, a list of linear constraints, an optional turnover cap,
// and an optional factor-exposure band.
type Set struct {
	Box            *Box
	Linear         []*Linear
	Turnover       *Turnover
	FactorExposure *FactorExposure
}

// LongOnlyFullInvestment composes Box([0,1]) with the equality 1^T w = 1,
// the default constraint set for an unconfigured Problem.
func LongOnlyFullInvestment(n int) (*Set, error) {
	box, err := LongOnly(n)
	if err != nil {
		return nil, err
	}
	full, err := FullInvestment(n)
	if err != nil {
		return nil, err
	}
	return &Set{Box: box, Linear: []*Linear{full}}, nil
}
