package types

import "github.com/EmpowerMS/empower-ms/internal/risk"

// OutOfPopulationAdvisory is attached to responses for subjects outside the
// population the model was fitted on. The estimate is still computed; whether
// to trust it is the caller's call.
const OutOfPopulationAdvisory = "This calculator was fitted for Black persons with multiple sclerosis who are current smokers; results may not be accurate outside that population."

// EstimateRequest carries the six raw covariates the form collects. The two
// interaction terms are derived server-side, never accepted from the client.
// Pointer fields let binding distinguish an absent key from a legitimate zero.
type EstimateRequest struct {
	BpwMS            *int     `json:"bpwms" binding:"required,min=0,max=1"`
	CurrentSmoker    *int     `json:"current_smoker" binding:"required,min=0,max=1"`
	PackYears        *float64 `json:"pack_years" binding:"required,min=0"`
	AgeAtBaseline    *int     `json:"age_at_baseline" binding:"required,min=0"`
	SexMale          *int     `json:"sex_male" binding:"required,min=0,max=1"`
	FollowUpInterval *float64 `json:"follow_up_interval" binding:"required,min=0"`
}

// Covariates builds the full eight-key covariate set, deriving the
// BpwMS*smoker and BpwMS*pack-years products.
func (r *EstimateRequest) Covariates() risk.CovariateSet {
	bpwms := float64(*r.BpwMS)
	smoker := float64(*r.CurrentSmoker)
	packYears := *r.PackYears

	return risk.CovariateSet{
		risk.CovBpwMS:              bpwms,
		risk.CovCurrentSmoker:      smoker,
		risk.CovBpwMSCurrentSmoker: bpwms * smoker,
		risk.CovPackYears:          packYears,
		risk.CovBpwMSPackYears:     bpwms * packYears,
		risk.CovAgeAtBaseline:      float64(*r.AgeAtBaseline),
		risk.CovSexMale:            float64(*r.SexMale),
		risk.CovFollowUpInterval:   *r.FollowUpInterval,
	}
}

// OutOfPopulation reports whether the subject falls outside the fitted
// population (non-BpwMS or non-smoker).
func (r *EstimateRequest) OutOfPopulation() bool {
	return *r.BpwMS == 0 || *r.CurrentSmoker == 0
}

// RiskResponse is the payload of POST /api/risk.
type RiskResponse struct {
	RiskPercent   float64             `json:"risk_percent"`
	Contributions []risk.Contribution `json:"contributions"`
	Advisory      string              `json:"advisory,omitempty"`
}

// ChartSlice is one wedge of the reduction pie chart.
type ChartSlice struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// BenefitResponse is the payload of POST /api/benefit.
type BenefitResponse struct {
	RelativeReductionPercent  float64      `json:"relative_reduction_percent"`
	CurrentRiskPercent        float64      `json:"current_risk_percent"`
	RiskWithoutSmokingPercent float64      `json:"risk_without_smoking_percent"`
	Chart                     []ChartSlice `json:"chart"`
	Advisory                  string       `json:"advisory,omitempty"`
}

// BenefitChart builds the two-slice reduction-vs-remaining-risk breakdown.
func BenefitChart(b risk.Benefit) []ChartSlice {
	return []ChartSlice{
		{Label: "Remaining Risk After Quitting", Percent: 100 - b.RelativeReductionPercent},
		{Label: "Risk Reduction", Percent: b.RelativeReductionPercent},
	}
}

// ModelResponse is the payload of GET /api/model.
type ModelResponse struct {
	Coefficients map[string]float64 `json:"coefficients"`
	Covariates   []string           `json:"covariates"`
}
