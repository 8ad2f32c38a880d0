package risk

// Benefit quantifies smoking cessation for a subject, all values expressed as
// percentages.
type Benefit struct {
	RelativeReductionPercent  float64 `json:"relative_reduction_percent"`
	CurrentRiskPercent        float64 `json:"current_risk_percent"`
	RiskWithoutSmokingPercent float64 `json:"risk_without_smoking_percent"`
}

// cessationCounterfactual copies the covariate set with smoking status
// zeroed. Pack-years stay untouched: quitting changes current status, not
// cumulative exposure history.
func cessationCounterfactual(covariates CovariateSet) CovariateSet {
	counterfactual := make(CovariateSet, len(covariates))
	for name, value := range covariates {
		counterfactual[name] = value
	}
	counterfactual[CovCurrentSmoker] = 0
	counterfactual[CovBpwMSCurrentSmoker] = 0
	return counterfactual
}

// ComputeBenefit contrasts the subject's current worsening risk with the
// counterfactual risk under smoking cessation and derives the relative risk
// reduction.
//
// Returns ErrUndefinedReduction when the current risk is exactly zero; the
// division is never allowed to produce Inf or NaN.
func (m *Model) ComputeBenefit(covariates CovariateSet) (Benefit, error) {
	currentRisk, err := m.ComputeRisk(covariates)
	if err != nil {
		return Benefit{}, err
	}

	riskNoSmoking, err := m.ComputeRisk(cessationCounterfactual(covariates))
	if err != nil {
		return Benefit{}, err
	}

	if currentRisk == 0 {
		return Benefit{}, ErrUndefinedReduction
	}

	relativeReduction := (currentRisk - riskNoSmoking) / currentRisk
	return Benefit{
		RelativeReductionPercent:  relativeReduction * 100,
		CurrentRiskPercent:        currentRisk * 100,
		RiskWithoutSmokingPercent: riskNoSmoking * 100,
	}, nil
}
