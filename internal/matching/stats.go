package matching

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"neuromatch/domain/core"
)

// Test method labels recorded in the report.
const (
	TestMannWhitney = "mann_whitney_u"
	TestWelchT      = "welch_ttest"
)

// twoSampleTest computes a two-sided p-value for the null hypothesis that
// x and y come from the same distribution. Mann-Whitney U is preferred
// because age/PMI covariates are rarely normal; on degenerate input
// (both groups constant) it falls back to Welch's t-test. Both tests are
// symmetric in their arguments, so swapping case and control sides never
// changes the p-value.
func twoSampleTest(x, y []float64) (float64, string) {
	if p, err := mannWhitneyU(x, y); err == nil {
		return p, TestMannWhitney
	}
	return welchTTest(x, y), TestWelchT
}

// mannWhitneyU performs a two-sided Mann-Whitney U test using the
// tie-corrected normal approximation with continuity correction.
func mannWhitneyU(x, y []float64) (float64, error) {
	n1 := float64(len(x))
	n2 := float64(len(y))
	if n1 == 0 || n2 == 0 {
		return 0, fmt.Errorf("%w: empty group", core.ErrInsufficientData)
	}
	if allEqual(x) && allEqual(y) {
		// Two constant groups carry no rank signal worth a normal
		// approximation; Welch resolves them exactly (p=1 or p=0).
		return 0, fmt.Errorf("%w: both groups constant", core.ErrDegenerateInput)
	}

	ranks, tieTerm := rankCombined(x, y)

	// Rank sum of the first group
	r1 := 0.0
	for i := range x {
		r1 += ranks[i]
	}

	u1 := r1 - n1*(n1+1)/2
	u2 := n1*n2 - u1
	u := math.Min(u1, u2)

	n := n1 + n2
	mu := n1 * n2 / 2
	variance := n1 * n2 / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 {
		// Every observation tied: the rank distribution carries no signal.
		return 0, fmt.Errorf("%w: all values tied", core.ErrDegenerateInput)
	}

	// Continuity correction; u <= mu by construction
	z := (u - mu + 0.5) / math.Sqrt(variance)
	p := 2 * distuv.UnitNormal.CDF(z)
	return clampProbability(p), nil
}

// rankCombined assigns midranks to the pooled sample, returning the rank
// of each observation (x first, then y) and the tie-correction term
// sum(t^3 - t) over tie groups.
func rankCombined(x, y []float64) ([]float64, float64) {
	n := len(x) + len(y)
	pooled := make([]float64, 0, n)
	pooled = append(pooled, x...)
	pooled = append(pooled, y...)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return pooled[order[i]] < pooled[order[j]] })

	ranks := make([]float64, n)
	tieTerm := 0.0
	for i := 0; i < n; {
		j := i
		for j < n && pooled[order[j]] == pooled[order[i]] {
			j++
		}
		// Midrank for the tie group spanning positions [i, j)
		rank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = rank
		}
		t := float64(j - i)
		if t > 1 {
			tieTerm += t*t*t - t
		}
		i = j
	}
	return ranks, tieTerm
}

// welchTTest performs a two-sided Welch two-sample t-test with the
// Welch-Satterthwaite degrees of freedom. The p-value comes from the
// Student's t CDF rather than a step-function approximation.
func welchTTest(x, y []float64) float64 {
	n1 := float64(len(x))
	n2 := float64(len(y))
	if n1 == 0 || n2 == 0 {
		return 1.0
	}

	mean1, var1 := meanVariance(x)
	mean2, var2 := meanVariance(y)

	se2 := var1/n1 + var2/n2
	if se2 == 0 {
		// Zero variance on both sides: identical constants are a perfect
		// match, differing constants an unambiguous difference.
		if mean1 == mean2 {
			return 1.0
		}
		return 0.0
	}

	t := (mean1 - mean2) / math.Sqrt(se2)

	df := se2 * se2 / (var1*var1/(n1*n1*(math.Max(n1-1, 1))) + var2*var2/(n2*n2*(math.Max(n2-1, 1))))
	if math.IsNaN(df) || df < 1 {
		df = 1
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - tDist.CDF(math.Abs(t)))
	return clampProbability(p)
}

// meanVariance returns the mean and sample variance (n-1 denominator).
// A single observation has variance 0 by definition.
func meanVariance(data []float64) (float64, float64) {
	n := float64(len(data))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / n
	if n < 2 {
		return mean, 0
	}
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return mean, sumSq / (n - 1)
}

func allEqual(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
