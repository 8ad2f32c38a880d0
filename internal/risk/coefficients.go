package risk

// Covariate names. The eight keys form the closed covariate set the model is
// fitted over; the two product terms are derived by the caller.
const (
	CovBpwMS              = "BpwMS"
	CovCurrentSmoker      = "Current Smoker"
	CovBpwMSCurrentSmoker = "BpwMS * Current Smoker"
	CovPackYears          = "Pack-Years"
	CovBpwMSPackYears     = "BpwMS * Pack-Years"
	CovAgeAtBaseline      = "Age at Baseline"
	CovSexMale            = "Sex (Male)"
	CovFollowUpInterval   = "Follow-up Interval"

	Intercept = "Intercept"
)

// requiredCovariates is the fixed evaluation order. Keeping a slice rather
// than ranging over the map makes repeated calls bit-identical.
var requiredCovariates = []string{
	CovBpwMS,
	CovCurrentSmoker,
	CovBpwMSCurrentSmoker,
	CovPackYears,
	CovBpwMSPackYears,
	CovAgeAtBaseline,
	CovSexMale,
	CovFollowUpInterval,
}

// defaultCoefficients holds the published log-odds weights of the fitted
// logistic regression. The linear predictor models the odds of remaining
// stable, so risk of worsening is 1 - p.
var defaultCoefficients = map[string]float64{
	Intercept:             0.488,
	CovBpwMS:              4.8613,
	CovCurrentSmoker:      16.8601,
	CovBpwMSCurrentSmoker: -18.5033,
	CovPackYears:          0.1531,
	CovBpwMSPackYears:     -0.496,
	CovAgeAtBaseline:      0.0056,
	CovSexMale:            -2.2452,
	CovFollowUpInterval:   0.3507,
}

// RequiredCovariates returns the covariate names every CovariateSet must carry.
func RequiredCovariates() []string {
	out := make([]string, len(requiredCovariates))
	copy(out, requiredCovariates)
	return out
}
