package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"neuromatch/domain/sample"
	"neuromatch/ports"
)

// controlDiagnosisPatterns is the case-insensitive diagnosis heuristic for
// control candidates: a record counts as a control when its diagnosis
// matches any of these substrings.
var controlDiagnosisPatterns = []string{
	"control",
	"normal",
	"no clinical diagnosis",
	"neurologically normal",
}

// candidateRepository implements ports.CandidateRepository on PostgreSQL
type candidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository creates a new candidate repository
func NewCandidateRepository(db *sqlx.DB) ports.CandidateRepository {
	return &candidateRepository{db: db}
}

// FindCaseCandidates returns candidates whose diagnosis contains the
// filter's diagnosis text.
func (r *candidateRepository) FindCaseCandidates(ctx context.Context, filter ports.CandidateFilter) ([]*sample.CandidateSample, error) {
	where, args := buildFilterClauses(filter)
	if filter.Diagnosis != "" {
		args = append(args, "%"+strings.ToLower(filter.Diagnosis)+"%")
		where = append(where, fmt.Sprintf("LOWER(diagnosis) LIKE $%d", len(args)))
	}
	return r.query(ctx, where, args, filter.Limit)
}

// FindControlCandidates returns control candidates. With excludePathology
// set, only records matching the control diagnosis heuristic qualify;
// otherwise any record passing the demographic filters is eligible.
func (r *candidateRepository) FindControlCandidates(ctx context.Context, filter ports.CandidateFilter, excludePathology bool) ([]*sample.CandidateSample, error) {
	where, args := buildFilterClauses(filter)
	if excludePathology {
		clauses := make([]string, len(controlDiagnosisPatterns))
		for i, pattern := range controlDiagnosisPatterns {
			args = append(args, "%"+pattern+"%")
			clauses[i] = fmt.Sprintf("LOWER(diagnosis) LIKE $%d", len(args))
		}
		where = append(where, "("+strings.Join(clauses, " OR ")+")")
	}
	return r.query(ctx, where, args, filter.Limit)
}

// buildFilterClauses translates the shared demographic filters into SQL.
func buildFilterClauses(filter ports.CandidateFilter) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.AgeMin != nil {
		add("age >= $%d", *filter.AgeMin)
	}
	if filter.AgeMax != nil {
		add("age <= $%d", *filter.AgeMax)
	}
	if filter.Sex != "" {
		add("sex = $%d", string(filter.Sex))
	}
	if filter.BrainRegion != "" {
		add("LOWER(brain_region) LIKE $%d", "%"+strings.ToLower(filter.BrainRegion)+"%")
	}
	if filter.MinRINScore != nil {
		add("rin_score >= $%d", *filter.MinRINScore)
	}
	if filter.MaxPMIHours != nil {
		add("pmi_hours <= $%d", *filter.MaxPMIHours)
	}
	if filter.Source != "" {
		add("LOWER(source) LIKE $%d", "%"+strings.ToLower(filter.Source)+"%")
	}

	return where, args
}

func (r *candidateRepository) query(ctx context.Context, where []string, args []interface{}, limit int) ([]*sample.CandidateSample, error) {
	query := `SELECT id, age, pmi_hours, rin_score, sex, diagnosis, source, brain_region, external_id
		FROM candidate_samples`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var candidates []*sample.CandidateSample
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}

	// Normalize sex labels at the boundary so the engine only ever sees
	// the closed enumeration.
	for _, c := range candidates {
		c.Sex = sample.NormalizeSex(string(c.Sex))
	}
	return candidates, nil
}
