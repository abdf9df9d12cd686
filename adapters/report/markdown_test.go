package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
	"neuromatch/internal/testkit"
)

func sampleResult() *match.MatchResult {
	cases, controls := testkit.BalancedCohort()
	p := 0.42
	return &match.MatchResult{
		Cases:    cases,
		Controls: controls[:4],
		Success:  true,
		Message:  "matched 4 cases to 4 controls",
		Report: &match.StatisticalReport{
			CaseCount:    4,
			ControlCount: 4,
			Alpha:        0.05,
			Covariates: map[sample.Covariate]*match.CovariateStats{
				sample.CovariateAge: {CaseMean: 77.5, CaseStdDev: 2.1, ControlMean: 76.5, ControlStdDev: 2.2, PValue: &p, TestMethod: "mann_whitney_u"},
				sample.CovariatePMI: {CaseMean: 8.25, CaseStdDev: 0.6, ControlMean: 8.6, ControlStdDev: 0.3, PValue: &p, TestMethod: "mann_whitney_u"},
				sample.CovariateRIN: {CaseMean: 7.0, CaseStdDev: 0.2, ControlMean: 7.1, ControlStdDev: 0.2},
			},
		},
	}
}

func TestRender_ContainsCohortsAndBalance(t *testing.T) {
	w := NewMarkdownWriter()
	doc := w.Render(sampleResult())

	for _, want := range []string{
		"# Case-Control Match Report",
		"**Status:** matched",
		"## Balance (4 cases vs 4 controls, alpha 0.05)",
		"| age | 77.50 (2.10) | 76.50 (2.20) | 0.4200 | mann_whitney_u |",
		"## Cases (4)",
		"## Controls (4)",
		"| case-1 | 75 | 8.0 | 7.0 | female |",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("rendered document missing %q", want)
		}
	}

	// A covariate without a p-value renders as n/a
	if !strings.Contains(doc, "| n/a |") {
		t.Error("missing p-value should render as n/a")
	}
}

func TestRender_FailureIncludesSuggestions(t *testing.T) {
	w := NewMarkdownWriter()
	result := match.Failure("insufficient female controls: need 3, have 1",
		"Relax control filters to widen the female pool")

	doc := w.Render(result)
	if !strings.Contains(doc, "**Status:** failed") {
		t.Error("failure status missing")
	}
	if !strings.Contains(doc, "## Suggestions") || !strings.Contains(doc, "- Relax control filters") {
		t.Errorf("suggestions section missing:\n%s", doc)
	}
	if strings.Contains(doc, "## Cases") {
		t.Error("empty cohorts should not render a section")
	}
}

func TestWriteReport_RoundTripsToFile(t *testing.T) {
	w := NewMarkdownWriter()
	dest := filepath.Join(t.TempDir(), "report.md")

	if err := w.WriteReport(context.Background(), sampleResult(), dest); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading report back: %v", err)
	}
	if !strings.Contains(string(data), "# Case-Control Match Report") {
		t.Error("written file does not contain the rendered document")
	}
}

func TestRenderHTML_ProducesCompletePage(t *testing.T) {
	w := NewMarkdownWriter()
	html := string(w.RenderHTML(sampleResult()))

	if !strings.Contains(html, "<html") || !strings.Contains(html, "</html>") {
		t.Error("expected a complete HTML page")
	}
	if !strings.Contains(html, "<table>") {
		t.Error("markdown tables should render as HTML tables")
	}
	if !strings.Contains(html, "Case-Control Match Report") {
		t.Error("heading missing from HTML output")
	}
}
