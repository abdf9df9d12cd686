package matching

import (
	"math"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
)

// Distance computes the normalized, weighted dissimilarity between two
// candidates over the three matching covariates. Each covariate difference
// is divided by its configured scale so a typical gap contributes roughly
// one unit, then combined via a weighted Euclidean norm.
//
// Returns +Inf when either candidate is missing a covariate. The infinity
// is a sentinel for "incomparable", not an error: callers either filter on
// validity first or treat infinite distance as never-select.
func Distance(a, b *sample.CandidateSample, cfg match.Config) float64 {
	if !a.IsValid() || !b.IsValid() {
		return math.Inf(1)
	}

	sum := 0.0
	for _, cov := range sample.Covariates {
		va, _ := a.Value(cov)
		vb, _ := b.Value(cov)
		diff := math.Abs(va-vb) / cfg.Scales[cov]
		sum += cfg.Weights[cov] * diff * diff
	}
	return math.Sqrt(sum)
}
