package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceCovariates is the worked scenario: a Black female smoker with MS,
// 2.5 pack-years, age 30 at baseline, one year of follow-up.
func referenceCovariates() CovariateSet {
	return CovariateSet{
		CovBpwMS:              1,
		CovCurrentSmoker:      1,
		CovBpwMSCurrentSmoker: 1,
		CovPackYears:          2.5,
		CovBpwMSPackYears:     2.5,
		CovAgeAtBaseline:      30,
		CovSexMale:            0,
		CovFollowUpInterval:   1.0,
	}
}

// riskFromLogOdds recomputes the expected risk independently of the model.
func riskFromLogOdds(l float64) float64 {
	odds := math.Exp(l)
	return 1 - odds/(1+odds)
}

func TestComputeRisk_ReferenceScenario(t *testing.T) {
	// Hand-summed linear predictor:
	// 0.488 + 4.8613 + 16.8601 - 18.5033 + 0.1531*2.5 - 0.496*2.5
	//   + 0.0056*30 + 0 + 0.3507*1.0
	const expectedLogOdds = 0.488 + 4.8613 + 16.8601 - 18.5033 +
		0.1531*2.5 - 0.496*2.5 + 0.0056*30 + 0.3507

	got, err := Default().ComputeRisk(referenceCovariates())
	require.NoError(t, err)
	assert.InDelta(t, riskFromLogOdds(expectedLogOdds), got, 1e-12)
	assert.InDelta(t, 0.0333, got, 1e-3)
}

func TestComputeRisk_TableCases(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(CovariateSet)
		logOdds float64
	}{
		{
			name:   "reference subject",
			mutate: func(CovariateSet) {},
			logOdds: 0.488 + 4.8613 + 16.8601 - 18.5033 +
				0.1531*2.5 - 0.496*2.5 + 0.0056*30 + 0.3507,
		},
		{
			name: "male subject",
			mutate: func(c CovariateSet) {
				c[CovSexMale] = 1
			},
			logOdds: 0.488 + 4.8613 + 16.8601 - 18.5033 +
				0.1531*2.5 - 0.496*2.5 + 0.0056*30 - 2.2452 + 0.3507,
		},
		{
			name: "non-smoker outside the fitted population",
			mutate: func(c CovariateSet) {
				c[CovBpwMS] = 0
				c[CovCurrentSmoker] = 0
				c[CovBpwMSCurrentSmoker] = 0
				c[CovBpwMSPackYears] = 0
			},
			logOdds: 0.488 + 0.1531*2.5 + 0.0056*30 + 0.3507,
		},
		{
			name: "all zero covariates",
			mutate: func(c CovariateSet) {
				for name := range c {
					c[name] = 0
				}
			},
			logOdds: 0.488,
		},
	}

	m := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			covariates := referenceCovariates()
			tt.mutate(covariates)

			got, err := m.ComputeRisk(covariates)
			require.NoError(t, err)
			assert.InDelta(t, riskFromLogOdds(tt.logOdds), got, 1e-12)
		})
	}
}

func TestComputeRisk_MissingCovariate(t *testing.T) {
	m := Default()
	for _, name := range RequiredCovariates() {
		t.Run(name, func(t *testing.T) {
			covariates := referenceCovariates()
			delete(covariates, name)

			_, err := m.ComputeRisk(covariates)
			require.Error(t, err)

			var missing *MissingCovariateError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, name, missing.Name)
		})
	}
}

func TestComputeRisk_StaysInUnitInterval(t *testing.T) {
	m := Default()
	for _, bpwms := range []float64{0, 1} {
		for _, smoker := range []float64{0, 1} {
			for _, packYears := range []float64{0, 2.5, 40, 120} {
				for _, age := range []float64{0, 30, 95} {
					covariates := CovariateSet{
						CovBpwMS:              bpwms,
						CovCurrentSmoker:      smoker,
						CovBpwMSCurrentSmoker: bpwms * smoker,
						CovPackYears:          packYears,
						CovBpwMSPackYears:     bpwms * packYears,
						CovAgeAtBaseline:      age,
						CovSexMale:            1,
						CovFollowUpInterval:   5,
					}
					got, err := m.ComputeRisk(covariates)
					require.NoError(t, err)
					assert.GreaterOrEqual(t, got, 0.0)
					assert.LessOrEqual(t, got, 1.0)
				}
			}
		}
	}
}

func TestComputeRisk_PackYearsMonotonicity(t *testing.T) {
	// For a BpwMS smoker the net pack-years weight on the stability log-odds
	// is 0.1531 - 0.496 < 0, so worsening risk rises with pack-years.
	m := Default()
	previous := -1.0
	for _, packYears := range []float64{0, 1, 2.5, 5, 10, 20, 40} {
		covariates := referenceCovariates()
		covariates[CovPackYears] = packYears
		covariates[CovBpwMSPackYears] = packYears

		got, err := m.ComputeRisk(covariates)
		require.NoError(t, err)
		assert.Greater(t, got, previous, "risk should increase at %v pack-years", packYears)
		previous = got
	}
}

func TestComputeRisk_OverflowSaturatesToZero(t *testing.T) {
	coefficients := Default().Coefficients()
	coefficients[Intercept] = 1000
	m, err := New(coefficients)
	require.NoError(t, err)

	got, err := m.ComputeRisk(referenceCovariates())
	require.NoError(t, err)
	assert.Equal(t, 0.0, got, "saturated stability probability should yield zero risk")
}

func TestComputeRisk_Deterministic(t *testing.T) {
	m := Default()
	first, err := m.ComputeRisk(referenceCovariates())
	require.NoError(t, err)
	second, err := m.ComputeRisk(referenceCovariates())
	require.NoError(t, err)
	assert.True(t, first == second, "identical inputs must return bit-identical results")
}

func TestNew_RejectsIncompleteTables(t *testing.T) {
	tests := []struct {
		name   string
		drop   string
		hasErr bool
	}{
		{name: "complete table", drop: "", hasErr: false},
		{name: "missing intercept", drop: Intercept, hasErr: true},
		{name: "missing pack-years weight", drop: CovPackYears, hasErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coefficients := Default().Coefficients()
			if tt.drop != "" {
				delete(coefficients, tt.drop)
			}

			_, err := New(coefficients)
			if tt.hasErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_CopiesTheTable(t *testing.T) {
	coefficients := Default().Coefficients()
	m, err := New(coefficients)
	require.NoError(t, err)

	baseline, err := m.ComputeRisk(referenceCovariates())
	require.NoError(t, err)

	// Mutating the caller's map must not reach into the model.
	coefficients[Intercept] = -50
	again, err := m.ComputeRisk(referenceCovariates())
	require.NoError(t, err)
	assert.Equal(t, baseline, again)
}

func TestContributions(t *testing.T) {
	m := Default()
	contributions, err := m.Contributions(referenceCovariates())
	require.NoError(t, err)
	require.Len(t, contributions, 9)

	assert.Equal(t, Intercept, contributions[0].Name)
	assert.InDelta(t, 0.488, contributions[0].Value, 1e-12)

	total := 0.0
	for _, c := range contributions {
		total += c.Value
	}
	const expectedLogOdds = 0.488 + 4.8613 + 16.8601 - 18.5033 +
		0.1531*2.5 - 0.496*2.5 + 0.0056*30 + 0.3507
	assert.InDelta(t, expectedLogOdds, total, 1e-9)

	_, err = m.Contributions(CovariateSet{})
	var missing *MissingCovariateError
	assert.ErrorAs(t, err, &missing)
}
