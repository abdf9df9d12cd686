package testkit

import (
	"context"
	"fmt"
	"strings"

	"neuromatch/domain/sample"
	"neuromatch/ports"
)

// Candidate builds a fully-populated candidate with all covariates present.
func Candidate(id string, age int, pmi, rin float64, sex sample.Sex) *sample.CandidateSample {
	return &sample.CandidateSample{
		ID:       id,
		Age:      &age,
		PMIHours: &pmi,
		RINScore: &rin,
		Sex:      sex,
	}
}

// InvalidCandidate builds a candidate missing every covariate.
func InvalidCandidate(id string, sex sample.Sex) *sample.CandidateSample {
	return &sample.CandidateSample{ID: id, Sex: sex}
}

// BalancedCohort returns the canonical synthetic fixture: 4 cases and 8
// controls whose per-sex covariates match closely enough that a 1:1
// sex-exact match balances on all three covariates.
func BalancedCohort() (cases, controls []*sample.CandidateSample) {
	cases = []*sample.CandidateSample{
		Candidate("case-1", 75, 8.0, 7.0, sample.SexFemale),
		Candidate("case-2", 78, 9.0, 7.2, sample.SexFemale),
		Candidate("case-3", 80, 7.5, 6.8, sample.SexMale),
		Candidate("case-4", 77, 8.5, 7.1, sample.SexMale),
	}
	controls = []*sample.CandidateSample{
		Candidate("ctrl-1", 74, 8.2, 7.1, sample.SexFemale),
		Candidate("ctrl-2", 79, 8.8, 7.0, sample.SexFemale),
		Candidate("ctrl-3", 76, 8.4, 7.3, sample.SexFemale),
		Candidate("ctrl-4", 77, 9.1, 6.9, sample.SexFemale),
		Candidate("ctrl-5", 81, 7.6, 6.9, sample.SexMale),
		Candidate("ctrl-6", 78, 8.3, 7.0, sample.SexMale),
		Candidate("ctrl-7", 79, 7.9, 7.2, sample.SexMale),
		Candidate("ctrl-8", 76, 8.6, 6.7, sample.SexMale),
	}
	return cases, controls
}

// ShiftedAgeControls returns controls aged far below the BalancedCohort
// cases (otherwise matched on PMI and RIN) for imbalance scenarios.
func ShiftedAgeControls() []*sample.CandidateSample {
	return []*sample.CandidateSample{
		Candidate("young-1", 58, 8.2, 7.1, sample.SexFemale),
		Candidate("young-2", 60, 8.8, 7.0, sample.SexFemale),
		Candidate("young-3", 59, 8.4, 7.3, sample.SexFemale),
		Candidate("young-4", 62, 9.1, 6.9, sample.SexFemale),
		Candidate("young-5", 61, 7.6, 6.9, sample.SexMale),
		Candidate("young-6", 58, 8.3, 7.0, sample.SexMale),
		Candidate("young-7", 60, 7.9, 7.2, sample.SexMale),
		Candidate("young-8", 62, 8.6, 6.7, sample.SexMale),
	}
}

// InMemoryCandidateRepository is a CandidateRepository backed by slices,
// applying the same filter semantics as the Postgres adapter.
type InMemoryCandidateRepository struct {
	Candidates []*sample.CandidateSample
}

// NewInMemoryCandidateRepository creates a repository over the given pool.
func NewInMemoryCandidateRepository(candidates []*sample.CandidateSample) *InMemoryCandidateRepository {
	return &InMemoryCandidateRepository{Candidates: candidates}
}

var _ ports.CandidateRepository = (*InMemoryCandidateRepository)(nil)

var controlPatterns = []string{"control", "normal", "no clinical diagnosis", "neurologically normal"}

// FindCaseCandidates filters by diagnosis substring plus the shared filters.
func (r *InMemoryCandidateRepository) FindCaseCandidates(ctx context.Context, filter ports.CandidateFilter) ([]*sample.CandidateSample, error) {
	var out []*sample.CandidateSample
	for _, c := range r.Candidates {
		if filter.Diagnosis != "" && !strings.Contains(strings.ToLower(c.Diagnosis), strings.ToLower(filter.Diagnosis)) {
			continue
		}
		if !matchesShared(c, filter) {
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// FindControlCandidates applies the control diagnosis heuristic.
func (r *InMemoryCandidateRepository) FindControlCandidates(ctx context.Context, filter ports.CandidateFilter, excludePathology bool) ([]*sample.CandidateSample, error) {
	var out []*sample.CandidateSample
	for _, c := range r.Candidates {
		if excludePathology && !isControlDiagnosis(c.Diagnosis) {
			continue
		}
		if !matchesShared(c, filter) {
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func isControlDiagnosis(diagnosis string) bool {
	lower := strings.ToLower(diagnosis)
	for _, p := range controlPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func matchesShared(c *sample.CandidateSample, filter ports.CandidateFilter) bool {
	if filter.AgeMin != nil && (c.Age == nil || *c.Age < *filter.AgeMin) {
		return false
	}
	if filter.AgeMax != nil && (c.Age == nil || *c.Age > *filter.AgeMax) {
		return false
	}
	if filter.Sex != "" && c.Sex != filter.Sex {
		return false
	}
	if filter.BrainRegion != "" && !strings.Contains(strings.ToLower(c.BrainRegion), strings.ToLower(filter.BrainRegion)) {
		return false
	}
	if filter.MinRINScore != nil && (c.RINScore == nil || *c.RINScore < *filter.MinRINScore) {
		return false
	}
	if filter.MaxPMIHours != nil && (c.PMIHours == nil || *c.PMIHours > *filter.MaxPMIHours) {
		return false
	}
	if filter.Source != "" && !strings.Contains(strings.ToLower(c.Source), strings.ToLower(filter.Source)) {
		return false
	}
	return true
}

// SeedDiagnoses stamps cohort diagnoses onto fixture candidates: cases get
// the named diagnosis, controls a recognized control label.
func SeedDiagnoses(cases, controls []*sample.CandidateSample, diagnosis string) {
	for i, c := range cases {
		c.Diagnosis = diagnosis
		c.Source = fmt.Sprintf("bank-%d", i%2+1)
	}
	for i, c := range controls {
		c.Diagnosis = "Neurologically normal"
		c.Source = fmt.Sprintf("bank-%d", i%2+1)
	}
}
