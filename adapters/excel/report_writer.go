package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
	"neuromatch/ports"
)

// ReportWriter exports a MatchResult as an Excel workbook with one sheet
// per cohort plus a balance summary sheet.
type ReportWriter struct{}

// NewReportWriter creates a new Excel report writer
func NewReportWriter() ports.MatchReporter {
	return &ReportWriter{}
}

// WriteReport writes the workbook to destination (an .xlsx path).
func (w *ReportWriter) WriteReport(ctx context.Context, result *match.MatchResult, destination string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeCohortSheet(f, "Cases", result.Cases); err != nil {
		return err
	}
	if err := w.writeCohortSheet(f, "Controls", result.Controls); err != nil {
		return err
	}
	if err := w.writeBalanceSheet(f, result); err != nil {
		return err
	}

	// Drop the default sheet created by excelize
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(destination); err != nil {
		return fmt.Errorf("failed to save report workbook: %w", err)
	}
	return nil
}

var cohortHeader = []interface{}{"ID", "Age", "PMI (hours)", "RIN", "Sex", "Diagnosis", "Source", "Brain Region", "External ID"}

func (w *ReportWriter) writeCohortSheet(f *excelize.File, name string, cohort []*sample.CandidateSample) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	if err := f.SetSheetRow(name, "A1", &cohortHeader); err != nil {
		return err
	}

	for i, c := range cohort {
		row := []interface{}{
			c.ID,
			optionalInt(c.Age),
			optionalFloat(c.PMIHours),
			optionalFloat(c.RINScore),
			string(c.Sex),
			c.Diagnosis,
			c.Source,
			c.BrainRegion,
			c.ExternalID,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWriter) writeBalanceSheet(f *excelize.File, result *match.MatchResult) error {
	const name = "Balance"
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	summary := []interface{}{"Success", result.Success, "Message", result.Message}
	if err := f.SetSheetRow(name, "A1", &summary); err != nil {
		return err
	}

	if result.Report == nil {
		return nil
	}

	header := []interface{}{"Covariate", "Case Mean", "Case SD", "Control Mean", "Control SD", "P-Value", "Test"}
	if err := f.SetSheetRow(name, "A3", &header); err != nil {
		return err
	}
	for i, cov := range sample.Covariates {
		cs := result.Report.Covariates[cov]
		if cs == nil {
			continue
		}
		row := []interface{}{
			string(cov),
			cs.CaseMean, cs.CaseStdDev,
			cs.ControlMean, cs.ControlStdDev,
			optionalFloat(cs.PValue),
			cs.TestMethod,
		}
		cell := fmt.Sprintf("A%d", i+4)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}

	suggestionRow := len(sample.Covariates) + 5
	for i, s := range result.Suggestions {
		cell := fmt.Sprintf("A%d", suggestionRow+i)
		if err := f.SetCellValue(name, cell, s); err != nil {
			return err
		}
	}
	return nil
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
