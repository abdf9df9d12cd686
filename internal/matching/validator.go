package matching

import (
	"github.com/montanaflynn/stats"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
)

// Validate compares the case and control groups on each covariate and
// produces a fresh StatisticalReport. For a covariate with no values on
// either side the p-value is left nil and the covariate does not block
// balance. The report is deterministic: the same two lists always yield
// the same values, in either argument order.
func Validate(cases, controls []*sample.CandidateSample, cfg match.Config) *match.StatisticalReport {
	report := &match.StatisticalReport{
		CaseCount:    len(cases),
		ControlCount: len(controls),
		Covariates:   make(map[sample.Covariate]*match.CovariateStats, len(sample.Covariates)),
		Alpha:        cfg.Alpha,
	}

	for _, cov := range sample.Covariates {
		caseVals := covariateValues(cases, cov)
		controlVals := covariateValues(controls, cov)

		cs := &match.CovariateStats{}
		cs.CaseMean, cs.CaseStdDev = summarize(caseVals)
		cs.ControlMean, cs.ControlStdDev = summarize(controlVals)

		if len(caseVals) > 0 && len(controlVals) > 0 {
			p, method := twoSampleTest(caseVals, controlVals)
			cs.PValue = &p
			cs.TestMethod = method
		}

		report.Covariates[cov] = cs
	}

	return report
}

// covariateValues extracts the non-null values of one covariate.
func covariateValues(pool []*sample.CandidateSample, cov sample.Covariate) []float64 {
	vals := make([]float64, 0, len(pool))
	for _, c := range pool {
		if v, ok := c.Value(cov); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// summarize computes mean and sample standard deviation; a single
// observation has deviation 0 by definition.
func summarize(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	mean, _ := stats.Mean(vals)
	if len(vals) < 2 {
		return mean, 0
	}
	sd, err := stats.StandardDeviationSample(vals)
	if err != nil {
		return mean, 0
	}
	return mean, sd
}
