package matching

import (
	"math"
	"testing"
)

func TestMannWhitneyU_Symmetry(t *testing.T) {
	x := []float64{75, 78, 80, 77, 74}
	y := []float64{76, 79, 73, 81, 75}

	p1, err1 := mannWhitneyU(x, y)
	p2, err2 := mannWhitneyU(y, x)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if math.Abs(p1-p2) > 1e-12 {
		t.Errorf("two-sided test should be symmetric: %f vs %f", p1, p2)
	}
}

func TestMannWhitneyU_OverlappingGroups(t *testing.T) {
	x := []float64{75, 78, 80, 77}
	y := []float64{76, 77, 78, 79}

	p, err := mannWhitneyU(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p <= 0.5 {
		t.Errorf("heavily overlapping groups should give a high p-value, got %f", p)
	}
}

func TestMannWhitneyU_SeparatedGroups(t *testing.T) {
	x := []float64{80, 82, 84, 85}
	y := []float64{58, 60, 59, 62}

	p, err := mannWhitneyU(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p >= 0.05 {
		t.Errorf("completely separated groups should give p < 0.05, got %f", p)
	}
}

func TestMannWhitneyU_AllTiedIsDegenerate(t *testing.T) {
	x := []float64{5, 5, 5}
	y := []float64{5, 5, 5, 5}

	if _, err := mannWhitneyU(x, y); err == nil {
		t.Error("all-tied input should be reported as degenerate")
	}
}

func TestMannWhitneyU_DistinctConstantGroupsAreDegenerate(t *testing.T) {
	x := []float64{5, 5, 5}
	y := []float64{9, 9, 9}

	if _, err := mannWhitneyU(x, y); err == nil {
		t.Error("two constant groups should be reported as degenerate")
	}
}

func TestTwoSampleTest_FallsBackToWelch(t *testing.T) {
	x := []float64{5, 5, 5}
	y := []float64{5, 5, 5}

	p, method := twoSampleTest(x, y)
	if method != TestWelchT {
		t.Errorf("expected Welch fallback on degenerate input, got %s", method)
	}
	if p != 1.0 {
		t.Errorf("identical constant groups should give p=1, got %f", p)
	}

	// Differing constants are an unambiguous difference
	p, method = twoSampleTest([]float64{5, 5, 5}, []float64{9, 9, 9})
	if method != TestWelchT {
		t.Errorf("expected Welch fallback, got %s", method)
	}
	if p != 0.0 {
		t.Errorf("distinct constant groups should give p=0, got %f", p)
	}

	// A single constant group against a varying one still ranks fine
	_, method = twoSampleTest([]float64{5, 5, 5}, []float64{4, 6, 8})
	if method != TestMannWhitney {
		t.Errorf("one varying group should keep Mann-Whitney, got %s", method)
	}
}

func TestWelchTTest_NoDifference(t *testing.T) {
	x := []float64{10, 12, 11, 13, 9}
	if p := welchTTest(x, x); p < 0.99 {
		t.Errorf("identical samples should give p close to 1, got %f", p)
	}
}

func TestWelchTTest_LargeDifference(t *testing.T) {
	x := []float64{10, 11, 12, 11, 10, 12}
	y := []float64{50, 51, 52, 51, 50, 52}
	if p := welchTTest(x, y); p > 0.001 {
		t.Errorf("widely separated samples should give p near 0, got %f", p)
	}
}

func TestWelchTTest_Symmetry(t *testing.T) {
	x := []float64{10, 14, 12, 13}
	y := []float64{11, 15, 16, 12}
	if p1, p2 := welchTTest(x, y), welchTTest(y, x); math.Abs(p1-p2) > 1e-12 {
		t.Errorf("Welch p-values should be symmetric: %f vs %f", p1, p2)
	}
}

func TestTwoSampleTest_Deterministic(t *testing.T) {
	x := []float64{75, 78, 80, 77}
	y := []float64{76, 77, 78, 79}

	p1, m1 := twoSampleTest(x, y)
	p2, m2 := twoSampleTest(x, y)
	if p1 != p2 || m1 != m2 {
		t.Errorf("repeated invocations must agree: (%f,%s) vs (%f,%s)", p1, m1, p2, m2)
	}
}

func TestRankCombined_Midranks(t *testing.T) {
	ranks, tieTerm := rankCombined([]float64{1, 2, 2}, []float64{2, 3})

	// The three tied 2s span ranks 2-4 and share midrank 3
	want := []float64{1, 3, 3, 3, 5}
	for i, r := range ranks {
		if r != want[i] {
			t.Errorf("rank[%d] = %f, want %f", i, r, want[i])
		}
	}
	if tieTerm != 24 { // 3^3 - 3
		t.Errorf("tie term = %f, want 24", tieTerm)
	}
}
