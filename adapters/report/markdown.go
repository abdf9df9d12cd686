package report

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
	"neuromatch/ports"
)

// MarkdownWriter renders a MatchResult as a markdown document, either to
// a file (MatchReporter) or to HTML for the web surface.
type MarkdownWriter struct{}

// NewMarkdownWriter creates a new markdown report writer
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

var _ ports.MatchReporter = (*MarkdownWriter)(nil)

// WriteReport renders the result and writes it to destination.
func (w *MarkdownWriter) WriteReport(ctx context.Context, result *match.MatchResult, destination string) error {
	doc := w.Render(result)
	if err := os.WriteFile(destination, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

// Render produces the markdown document for a match result.
func (w *MarkdownWriter) Render(result *match.MatchResult) string {
	var b strings.Builder

	b.WriteString("# Case-Control Match Report\n\n")
	if result.Success {
		b.WriteString("**Status:** matched\n\n")
	} else {
		b.WriteString("**Status:** failed\n\n")
	}
	fmt.Fprintf(&b, "%s\n\n", result.Message)

	if report := result.Report; report != nil {
		fmt.Fprintf(&b, "## Balance (%d cases vs %d controls, alpha %.2f)\n\n",
			report.CaseCount, report.ControlCount, report.Alpha)
		b.WriteString("| Covariate | Case Mean (SD) | Control Mean (SD) | p-value | Test |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, cov := range sample.Covariates {
			cs := report.Covariates[cov]
			if cs == nil {
				continue
			}
			pval := "n/a"
			if cs.PValue != nil {
				pval = fmt.Sprintf("%.4f", *cs.PValue)
			}
			fmt.Fprintf(&b, "| %s | %.2f (%.2f) | %.2f (%.2f) | %s | %s |\n",
				cov, cs.CaseMean, cs.CaseStdDev, cs.ControlMean, cs.ControlStdDev, pval, cs.TestMethod)
		}
		b.WriteString("\n")
	}

	writeCohort(&b, "Cases", result.Cases)
	writeCohort(&b, "Controls", result.Controls)

	if len(result.Suggestions) > 0 {
		b.WriteString("## Suggestions\n\n")
		for _, s := range result.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderHTML renders the result's markdown document to HTML.
func (w *MarkdownWriter) RenderHTML(result *match.MatchResult) []byte {
	doc := []byte(w.Render(result))

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage,
		Title: "Match Report",
	})
	return markdown.ToHTML(doc, p, renderer)
}

func writeCohort(b *strings.Builder, title string, cohort []*sample.CandidateSample) {
	if len(cohort) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(cohort))
	b.WriteString("| ID | Age | PMI | RIN | Sex | Diagnosis |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range cohort {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			c.ID, fmtInt(c.Age), fmtFloat(c.PMIHours), fmtFloat(c.RINScore), c.Sex, c.Diagnosis)
	}
	b.WriteString("\n")
}

func fmtInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
