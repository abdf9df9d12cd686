package match

import (
	"fmt"

	"neuromatch/domain/core"
	"neuromatch/domain/sample"
)

// Default matching parameters. Scales are chosen so that a "typical"
// covariate difference contributes roughly one unit before weighting.
const (
	DefaultAlpha         = 0.05
	DefaultAgeScale      = 10.0 // years
	DefaultPMIScale      = 5.0  // hours
	DefaultRINScale      = 2.0  // RIN points
	DefaultMaxIterations = 100
)

// Config carries the tunable parameters of the matching engine as one
// explicit value passed into every function that needs them. Distance and
// validation stay referentially transparent: same inputs plus same config,
// same outputs.
type Config struct {
	Weights       map[sample.Covariate]float64 `json:"weights"`
	Scales        map[sample.Covariate]float64 `json:"scales"`
	Alpha         float64                      `json:"alpha"`
	MaxIterations int                          `json:"max_iterations"`
}

// DefaultConfig returns the production defaults: unit weights, the
// canonical covariate scales, alpha 0.05 and a 100-iteration budget.
func DefaultConfig() Config {
	return Config{
		Weights: map[sample.Covariate]float64{
			sample.CovariateAge: 1.0,
			sample.CovariatePMI: 1.0,
			sample.CovariateRIN: 1.0,
		},
		Scales: map[sample.Covariate]float64{
			sample.CovariateAge: DefaultAgeScale,
			sample.CovariatePMI: DefaultPMIScale,
			sample.CovariateRIN: DefaultRINScale,
		},
		Alpha:         DefaultAlpha,
		MaxIterations: DefaultMaxIterations,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("%w: alpha must be in (0,1), got %g", core.ErrInvalidConfig, c.Alpha)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", core.ErrInvalidConfig, c.MaxIterations)
	}
	for _, cov := range sample.Covariates {
		if c.Scales[cov] <= 0 {
			return fmt.Errorf("%w: scale for %s must be positive", core.ErrInvalidConfig, cov)
		}
		if c.Weights[cov] < 0 {
			return fmt.Errorf("%w: weight for %s must be non-negative", core.ErrInvalidConfig, cov)
		}
	}
	return nil
}

// CovariateStats holds the per-covariate comparison between groups.
// PValue is nil when either side contributed no values for the covariate;
// a missing test is vacuously non-blocking, not an imbalance.
type CovariateStats struct {
	CaseMean      float64  `json:"case_mean"`
	CaseStdDev    float64  `json:"case_std_dev"`
	ControlMean   float64  `json:"control_mean"`
	ControlStdDev float64  `json:"control_std_dev"`
	PValue        *float64 `json:"p_value,omitempty"`
	TestMethod    string   `json:"test_method,omitempty"`
}

// StatisticalReport is the outcome of comparing one case group against one
// control group. It is an immutable value object produced fresh by the
// validator on every invocation.
type StatisticalReport struct {
	CaseCount    int                                  `json:"case_count"`
	ControlCount int                                  `json:"control_count"`
	Covariates   map[sample.Covariate]*CovariateStats `json:"covariates"`
	Alpha        float64                              `json:"alpha"`
}

// IsBalanced reports whether every available p-value exceeds the
// significance threshold. A p-value exactly at the threshold counts as
// imbalanced.
func (r *StatisticalReport) IsBalanced() bool {
	if r == nil {
		return false
	}
	for _, cov := range sample.Covariates {
		cs := r.Covariates[cov]
		if cs == nil || cs.PValue == nil {
			continue
		}
		if *cs.PValue <= r.Alpha {
			return false
		}
	}
	return true
}

// ImbalancedVariables returns the covariates whose p-value is at or below
// the threshold, in canonical order.
func (r *StatisticalReport) ImbalancedVariables() []sample.Covariate {
	if r == nil {
		return nil
	}
	var out []sample.Covariate
	for _, cov := range sample.Covariates {
		cs := r.Covariates[cov]
		if cs != nil && cs.PValue != nil && *cs.PValue <= r.Alpha {
			out = append(out, cov)
		}
	}
	return out
}

// BalanceScore is the sum of the available p-values. The optimizer uses it
// as a tie-breaking objective: balanced status dominates, score breaks ties.
func (r *StatisticalReport) BalanceScore() float64 {
	if r == nil {
		return 0
	}
	score := 0.0
	for _, cov := range sample.Covariates {
		if cs := r.Covariates[cov]; cs != nil && cs.PValue != nil {
			score += *cs.PValue
		}
	}
	return score
}

// MeanGap returns the absolute case/control mean difference for a covariate.
func (r *StatisticalReport) MeanGap(cov sample.Covariate) float64 {
	cs := r.Covariates[cov]
	if cs == nil {
		return 0
	}
	gap := cs.CaseMean - cs.ControlMean
	if gap < 0 {
		gap = -gap
	}
	return gap
}

// MatchResult is the outcome of a full matching attempt. Every domain
// failure (insufficient pool, statistical imbalance, empty pool) is
// carried here as data rather than raised as an error, so callers can
// inspect and retry with relaxed criteria.
type MatchResult struct {
	Cases       []*sample.CandidateSample `json:"cases"`
	Controls    []*sample.CandidateSample `json:"controls"`
	Report      *StatisticalReport        `json:"report,omitempty"`
	Success     bool                      `json:"success"`
	Message     string                    `json:"message"`
	Suggestions []string                  `json:"suggestions,omitempty"`
}

// Failure constructs an unsuccessful result with remediation suggestions.
func Failure(message string, suggestions ...string) *MatchResult {
	return &MatchResult{
		Cases:       []*sample.CandidateSample{},
		Controls:    []*sample.CandidateSample{},
		Success:     false,
		Message:     message,
		Suggestions: suggestions,
	}
}
