package matching

import (
	"fmt"
	"math"
	"sort"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
)

// sexOrder fixes the iteration order over strata so that selection is
// deterministic regardless of map traversal.
var sexOrder = []sample.Sex{sample.SexFemale, sample.SexMale, sample.SexUnknown}

// Select picks a case subset and its matched controls. Candidates failing
// the validity gate are filtered out first. When exactSexMatch is set the
// control pool is partitioned by sex and each case stratum is matched
// independently; otherwise the whole pool competes at once.
//
// Within a stratum, controls are ranked by distance to a synthetic target
// placed at the case-group covariate centroid and the nearest are taken.
// If the greedy pick fails the balance test, the swap optimizer gets a
// chance to repair it before the result is returned.
//
// When more cases are available than requested the first nCases survive;
// which cases to keep is deliberately not optimized.
func Select(cases, controls []*sample.CandidateSample, nCases, controlRatio int, exactSexMatch bool, cfg match.Config) *match.MatchResult {
	validCases := sample.FilterValid(cases)
	if len(validCases) == 0 {
		return match.Failure(
			"no case candidates have complete age, PMI, and RIN data",
			"Review case candidates for missing covariate values before matching",
		)
	}
	validControls := sample.FilterValid(controls)
	if len(validControls) == 0 {
		return match.Failure(
			"no control candidates have complete age, PMI, and RIN data",
			"Review control candidates for missing covariate values before matching",
		)
	}

	if len(validCases) > nCases {
		validCases = validCases[:nCases]
	}

	var selCases, selControls []*sample.CandidateSample
	if exactSexMatch {
		caseGroups := sample.PartitionBySex(validCases)
		controlGroups := sample.PartitionBySex(validControls)

		for _, sex := range sexOrder {
			group := caseGroups[sex]
			if len(group) == 0 {
				continue
			}
			needed := len(group) * controlRatio
			available := controlGroups[sex]
			if len(available) < needed {
				return match.Failure(
					fmt.Sprintf("insufficient %s controls: need %d, have %d", sex, needed, len(available)),
					fmt.Sprintf("Reduce the number of %s cases from %d to %d or fewer", sex, len(group), len(available)/max(controlRatio, 1)),
					"Relax the exact sex match constraint to draw controls across strata",
				)
			}
			target := centroidTarget(group, sex)
			selCases = append(selCases, group...)
			selControls = append(selControls, nearestTo(target, available, needed, cfg)...)
		}
	} else {
		needed := len(validCases) * controlRatio
		if len(validControls) < needed {
			return match.Failure(
				fmt.Sprintf("insufficient controls: need %d, have %d", needed, len(validControls)),
				fmt.Sprintf("Reduce the requested group size from %d to %d or fewer", len(validCases), len(validControls)/max(controlRatio, 1)),
				"Relax control filters to enlarge the pool",
			)
		}
		target := centroidTarget(validCases, sample.SexUnknown)
		selCases = validCases
		selControls = nearestTo(target, validControls, needed, cfg)
	}

	report := Validate(selCases, selControls, cfg)
	if !report.IsBalanced() {
		selControls, report = Optimize(selCases, selControls, validControls, exactSexMatch, cfg)
	}

	if report.IsBalanced() {
		return &match.MatchResult{
			Cases:    selCases,
			Controls: selControls,
			Report:   report,
			Success:  true,
			Message: fmt.Sprintf("matched %d cases to %d controls with balanced covariates",
				len(selCases), len(selControls)),
		}
	}

	return &match.MatchResult{
		Cases:    selCases,
		Controls: selControls,
		Report:   report,
		Success:  false,
		Message: fmt.Sprintf("groups remain imbalanced on %s after optimization",
			joinCovariates(report.ImbalancedVariables())),
		Suggestions: ImbalanceSuggestions(report),
	}
}

// centroidTarget builds a synthetic candidate at the covariate centroid of
// a case group. Age keeps its native integer type via rounding.
func centroidTarget(group []*sample.CandidateSample, sex sample.Sex) *sample.CandidateSample {
	meanAge, _ := summarize(covariateValues(group, sample.CovariateAge))
	meanPMI, _ := summarize(covariateValues(group, sample.CovariatePMI))
	meanRIN, _ := summarize(covariateValues(group, sample.CovariateRIN))

	age := int(math.Round(meanAge))
	return &sample.CandidateSample{
		ID:       "centroid",
		Age:      &age,
		PMIHours: &meanPMI,
		RINScore: &meanRIN,
		Sex:      sex,
	}
}

// nearestTo scores every candidate by distance to the target and returns
// the n closest. Ties break on candidate ID to keep selection stable.
func nearestTo(target *sample.CandidateSample, pool []*sample.CandidateSample, n int, cfg match.Config) []*sample.CandidateSample {
	type scored struct {
		candidate *sample.CandidateSample
		distance  float64
	}
	ranked := make([]scored, len(pool))
	for i, c := range pool {
		ranked[i] = scored{candidate: c, distance: Distance(target, c, cfg)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].candidate.ID < ranked[j].candidate.ID
	})

	selected := make([]*sample.CandidateSample, n)
	for i := 0; i < n; i++ {
		selected[i] = ranked[i].candidate
	}
	return selected
}

// ImbalanceSuggestions turns the report's mean gaps into concrete,
// quantified remediation options for the caller.
func ImbalanceSuggestions(report *match.StatisticalReport) []string {
	var suggestions []string
	for _, cov := range report.ImbalancedVariables() {
		gap := report.MeanGap(cov)
		switch cov {
		case sample.CovariateAge:
			suggestions = append(suggestions,
				fmt.Sprintf("Age differs by ~%.1f years — consider expanding the control age range", gap))
		case sample.CovariatePMI:
			suggestions = append(suggestions,
				fmt.Sprintf("PMI differs by ~%.1f hours — consider raising the maximum PMI", gap))
		case sample.CovariateRIN:
			suggestions = append(suggestions,
				fmt.Sprintf("RIN differs by ~%.1f points — consider lowering the minimum RIN score", gap))
		}
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Enlarge the control pool by relaxing filters")
	}
	return suggestions
}

func joinCovariates(covs []sample.Covariate) string {
	if len(covs) == 0 {
		return "no covariates"
	}
	out := ""
	for i, c := range covs {
		if i > 0 {
			out += ", "
		}
		out += string(c)
	}
	return out
}
