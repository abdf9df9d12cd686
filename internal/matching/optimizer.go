package matching

import (
	"neuromatch/domain/match"
	"neuromatch/domain/sample"
)

// Optimize refines an unbalanced control selection by local search. It
// trials one-for-one substitutions of selected controls with unused
// controls from the pool, accepting the first swap that strictly improves
// the selection, and rescans after every acceptance (first-improvement,
// not best-improvement).
//
// "Strictly better" means the trial report becomes balanced while the
// incumbent is not, or both share balanced status and the sum of available
// p-values strictly increases. The accepted-swap trajectory is therefore
// monotone in that score.
//
// When stratified is set, substitutions stay within the replaced control's
// sex stratum. The search is deterministic: no randomization, no restarts.
// It runs for at most cfg.MaxIterations accepted swaps and returns the
// best selection found together with its report, balanced or not — the
// caller decides success from the report.
func Optimize(cases, selected, pool []*sample.CandidateSample, stratified bool, cfg match.Config) ([]*sample.CandidateSample, *match.StatisticalReport) {
	best := make([]*sample.CandidateSample, len(selected))
	copy(best, selected)
	bestReport := Validate(cases, best, cfg)

	unused := unusedControls(pool, best)

	for iter := 0; iter < cfg.MaxIterations && !bestReport.IsBalanced(); iter++ {
		accepted := false
		for i := range best {
			for j, candidate := range unused {
				if stratified && stratum(candidate) != stratum(best[i]) {
					continue
				}

				trial := make([]*sample.CandidateSample, len(best))
				copy(trial, best)
				trial[i] = candidate

				trialReport := Validate(cases, trial, cfg)
				if !strictlyBetter(trialReport, bestReport) {
					continue
				}

				// Commit: the replaced control returns to the unused pool.
				unused[j] = best[i]
				best = trial
				bestReport = trialReport
				accepted = true
				break
			}
			if accepted {
				break
			}
		}
		if !accepted {
			// Local optimum: a full pass found no improving swap.
			break
		}
	}

	return best, bestReport
}

// strictlyBetter implements the optimizer's acceptance criterion.
func strictlyBetter(trial, incumbent *match.StatisticalReport) bool {
	if trial.IsBalanced() && !incumbent.IsBalanced() {
		return true
	}
	if trial.IsBalanced() != incumbent.IsBalanced() {
		return false
	}
	return trial.BalanceScore() > incumbent.BalanceScore()
}

// stratum buckets a candidate for swap eligibility.
func stratum(c *sample.CandidateSample) sample.Sex {
	if c.Sex == sample.SexMale || c.Sex == sample.SexFemale {
		return c.Sex
	}
	return sample.SexUnknown
}

// unusedControls returns pool members not currently selected, keyed by ID.
func unusedControls(pool, selected []*sample.CandidateSample) []*sample.CandidateSample {
	taken := make(map[string]bool, len(selected))
	for _, c := range selected {
		taken[c.ID] = true
	}
	unused := make([]*sample.CandidateSample, 0, len(pool))
	for _, c := range pool {
		if !taken[c.ID] {
			unused = append(unused, c)
		}
	}
	return unused
}
