package matching

import (
	"testing"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
	"neuromatch/internal/testkit"
)

// optimizerFixture builds a cohort whose imbalance is driven entirely by
// PMI: ages and RIN are constant, the initially selected controls sit far
// above the case PMI range, and the unused pool interleaves with it.
func optimizerFixture() (cases, selected, pool []*sample.CandidateSample) {
	casePMI := []float64{7.0, 7.1, 7.2, 7.3, 7.4, 7.5}
	selectedPMI := []float64{9.0, 9.1, 9.2, 9.3, 9.4, 9.5}
	unusedPMI := []float64{7.35, 7.05, 7.15, 7.25, 7.45, 7.55}

	for i, pmi := range casePMI {
		cases = append(cases, testkit.Candidate(idf("case", i), 75, pmi, 7.0, sample.SexFemale))
	}
	for i, pmi := range selectedPMI {
		selected = append(selected, testkit.Candidate(idf("sel", i), 75, pmi, 7.0, sample.SexFemale))
	}
	pool = append(pool, selected...)
	for i, pmi := range unusedPMI {
		pool = append(pool, testkit.Candidate(idf("alt", i), 75, pmi, 7.0, sample.SexFemale))
	}
	return cases, selected, pool
}

func idf(prefix string, i int) string {
	return prefix + "-" + string(rune('a'+i))
}

func TestOptimizeRepairsImbalancedSelection(t *testing.T) {
	cfg := match.DefaultConfig()
	cases, selected, pool := optimizerFixture()

	before := Validate(cases, selected, cfg)
	if before.IsBalanced() {
		t.Fatal("fixture must start imbalanced")
	}

	result, report := Optimize(cases, selected, pool, false, cfg)

	if !report.IsBalanced() {
		t.Fatalf("optimizer should reach balance, p-values: %v", report.ImbalancedVariables())
	}
	if len(result) != len(selected) {
		t.Fatalf("selection size changed: %d -> %d", len(selected), len(result))
	}
	if report.BalanceScore() <= before.BalanceScore() {
		t.Errorf("balance score should improve: %f -> %f", before.BalanceScore(), report.BalanceScore())
	}

	// No duplicates in the repaired selection
	seen := make(map[string]bool)
	for _, c := range result {
		if seen[c.ID] {
			t.Errorf("duplicate control %s in repaired selection", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestOptimizeIsDeterministic(t *testing.T) {
	cfg := match.DefaultConfig()
	cases, selected, pool := optimizerFixture()

	first, firstReport := Optimize(cases, selected, pool, false, cfg)
	second, secondReport := Optimize(cases, selected, pool, false, cfg)

	if len(first) != len(second) {
		t.Fatalf("selection sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("selection diverged at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
	if firstReport.BalanceScore() != secondReport.BalanceScore() {
		t.Errorf("scores diverged: %f vs %f", firstReport.BalanceScore(), secondReport.BalanceScore())
	}
}

func TestOptimizerHonorsIterationBudget(t *testing.T) {
	cfg := match.DefaultConfig()
	cfg.MaxIterations = 1
	cases, selected, pool := optimizerFixture()

	result, report := Optimize(cases, selected, pool, false, cfg)

	// One iteration admits at most one swap; this fixture needs several.
	swapped := 0
	original := make(map[string]bool, len(selected))
	for _, c := range selected {
		original[c.ID] = true
	}
	for _, c := range result {
		if !original[c.ID] {
			swapped++
		}
	}
	if swapped != 1 {
		t.Errorf("one-iteration budget should admit exactly one swap, got %d", swapped)
	}
	if report.IsBalanced() {
		t.Error("a single swap cannot balance this fixture")
	}

	before := Validate(cases, selected, cfg)
	if report.BalanceScore() <= before.BalanceScore() {
		t.Errorf("even a truncated run must improve the score: %f -> %f", before.BalanceScore(), report.BalanceScore())
	}
}

func TestOptimizeLeavesBalancedSelectionAlone(t *testing.T) {
	cfg := match.DefaultConfig()
	cases, controls := testkit.BalancedCohort()

	// 4 females vs 4 female controls, already balanced
	selected := controls[:4]
	result, report := Optimize(cases, selected, controls, true, cfg)

	if !report.IsBalanced() {
		t.Fatal("balanced input should stay balanced")
	}
	for i := range selected {
		if result[i].ID != selected[i].ID {
			t.Errorf("balanced selection should not be touched, changed at %d", i)
		}
	}
}

func TestOptimizeRespectsStrata(t *testing.T) {
	cfg := match.DefaultConfig()
	cases, selected, pool := optimizerFixture()

	// Move every unused control to the other sex: under stratified search
	// none of them is eligible, so the selection cannot change.
	for _, c := range pool[len(selected):] {
		c.Sex = sample.SexMale
	}

	result, report := Optimize(cases, selected, pool, true, cfg)

	for i := range selected {
		if result[i].ID != selected[i].ID {
			t.Fatalf("cross-stratum swap accepted at %d", i)
		}
	}
	if report.IsBalanced() {
		t.Error("selection should remain imbalanced with no eligible swaps")
	}
}
