package ports

import (
	"context"

	"neuromatch/domain/sample"
)

// CandidateFilter is the filter set accepted by the candidate-sourcing
// queries. Zero values mean "no constraint".
type CandidateFilter struct {
	Diagnosis   string
	AgeMin      *int
	AgeMax      *int
	Sex         sample.Sex
	BrainRegion string
	MinRINScore *float64
	MaxPMIHours *float64
	Source      string
	Limit       int
}

// CandidateRepository sources candidate samples for matching. The engine
// never performs I/O itself; implementations materialize complete lists
// before matching begins.
type CandidateRepository interface {
	// FindCaseCandidates returns candidates whose diagnosis matches the
	// filter's diagnosis substring.
	FindCaseCandidates(ctx context.Context, filter CandidateFilter) ([]*sample.CandidateSample, error)

	// FindControlCandidates returns candidates matching the filter. When
	// excludePathology is set, only records whose diagnosis matches a
	// recognized control-diagnosis pattern are returned.
	FindControlCandidates(ctx context.Context, filter CandidateFilter, excludePathology bool) ([]*sample.CandidateSample, error)
}
