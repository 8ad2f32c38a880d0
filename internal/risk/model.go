package risk

import (
	"errors"
	"fmt"
	"math"
)

// CovariateSet maps covariate names to their values. The caller supplies all
// eight keys, including the two derived interaction terms; the model does not
// re-derive or validate the products.
type CovariateSet map[string]float64

// Contribution is a single covariate's share of the linear predictor,
// weight * value, for display breakdowns.
type Contribution struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// MissingCovariateError reports a covariate key absent from the input set.
// A missing key is fatal to the call; it is never silently defaulted to zero.
type MissingCovariateError struct {
	Name string
}

func (e *MissingCovariateError) Error() string {
	return fmt.Sprintf("missing covariate %q", e.Name)
}

// ErrUndefinedReduction is returned by ComputeBenefit when the current risk is
// exactly zero and the relative reduction would divide by zero.
var ErrUndefinedReduction = errors.New("relative risk reduction undefined: current risk is zero")

// Model evaluates the fixed logistic-regression formula. The coefficient
// table is immutable after construction, so a single Model is safe to share
// across goroutines.
type Model struct {
	coefficients map[string]float64
}

// Default returns the model carrying the published coefficient table.
func Default() *Model {
	return &Model{coefficients: defaultCoefficients}
}

// New builds a model from an explicit coefficient table. The table must carry
// the intercept and a weight for each of the eight covariates.
func New(coefficients map[string]float64) (*Model, error) {
	if _, ok := coefficients[Intercept]; !ok {
		return nil, fmt.Errorf("coefficient table missing %q", Intercept)
	}
	for _, name := range requiredCovariates {
		if _, ok := coefficients[name]; !ok {
			return nil, fmt.Errorf("coefficient table missing weight for %q", name)
		}
	}
	table := make(map[string]float64, len(coefficients))
	for name, weight := range coefficients {
		table[name] = weight
	}
	return &Model{coefficients: table}, nil
}

// Coefficients returns a copy of the model's coefficient table.
func (m *Model) Coefficients() map[string]float64 {
	out := make(map[string]float64, len(m.coefficients))
	for name, weight := range m.coefficients {
		out[name] = weight
	}
	return out
}

// logOdds evaluates the linear predictor over the covariate set in fixed
// order, failing on the first absent key.
func (m *Model) logOdds(covariates CovariateSet) (float64, error) {
	l := m.coefficients[Intercept]
	for _, name := range requiredCovariates {
		value, ok := covariates[name]
		if !ok {
			return 0, &MissingCovariateError{Name: name}
		}
		l += m.coefficients[name] * value
	}
	return l, nil
}

// ComputeRisk maps a covariate set to the probability of disease worsening.
//
// The fitted linear predictor models the odds of remaining stable, so the
// returned risk is 1 - odds/(1+odds). The result is nominally in [0,1] and is
// not clamped. When the exponential overflows, the stability probability
// saturates to 1 and the risk to 0; that is a normal return, not an error.
func (m *Model) ComputeRisk(covariates CovariateSet) (float64, error) {
	l, err := m.logOdds(covariates)
	if err != nil {
		return 0, err
	}
	odds := math.Exp(l)
	if math.IsInf(odds, 1) {
		return 0, nil
	}
	probabilityOfStability := odds / (1 + odds)
	return 1 - probabilityOfStability, nil
}

// Contributions returns each covariate's weight*value share of the linear
// predictor, plus the intercept, in evaluation order.
func (m *Model) Contributions(covariates CovariateSet) ([]Contribution, error) {
	out := make([]Contribution, 0, len(requiredCovariates)+1)
	out = append(out, Contribution{Name: Intercept, Value: m.coefficients[Intercept]})
	for _, name := range requiredCovariates {
		value, ok := covariates[name]
		if !ok {
			return nil, &MissingCovariateError{Name: name}
		}
		out = append(out, Contribution{Name: name, Value: m.coefficients[name] * value})
	}
	return out, nil
}
