package app

import (
	"context"
	"fmt"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
	"neuromatch/internal"
	"neuromatch/internal/matching"
	"neuromatch/ports"
)

// MatchingService is the top-level entry point for case-control matching.
// It validates the request, sources candidates through the repository
// port, and delegates selection and optimization to the matching engine.
// Every matching request is independent and stateless; the service holds
// no mutable state between calls.
type MatchingService struct {
	repo ports.CandidateRepository
	cfg  match.Config
}

// NewMatchingService creates a matching service with the given engine
// configuration.
func NewMatchingService(repo ports.CandidateRepository, cfg match.Config) *MatchingService {
	return &MatchingService{repo: repo, cfg: cfg}
}

// Config exposes the engine configuration in use.
func (s *MatchingService) Config() match.Config {
	return s.cfg
}

// FindMatchedSets runs a complete matching request: fetch both pools per
// the criteria, then match them. Infrastructure problems (repository
// failures, malformed criteria) come back as errors; every domain failure
// is carried inside the MatchResult.
func (s *MatchingService) FindMatchedSets(ctx context.Context, criteria sample.MatchingCriteria) (*match.MatchResult, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	caseFilter := ports.CandidateFilter{
		Diagnosis:   criteria.Diagnosis,
		AgeMin:      criteria.AgeMin,
		AgeMax:      criteria.AgeMax,
		BrainRegion: criteria.BrainRegion,
		MinRINScore: criteria.MinRINScore,
		MaxPMIHours: criteria.MaxPMIHours,
	}
	cases, err := s.repo.FindCaseCandidates(ctx, caseFilter)
	if err != nil {
		return nil, fmt.Errorf("case candidate query failed: %w", err)
	}

	var controls []*sample.CandidateSample
	if criteria.IncludeControls {
		controlFilter := caseFilter
		controlFilter.Diagnosis = ""
		controls, err = s.repo.FindControlCandidates(ctx, controlFilter, criteria.ExcludePathology)
		if err != nil {
			return nil, fmt.Errorf("control candidate query failed: %w", err)
		}
	}

	internal.DefaultLogger.Debug("matching %q: %d case candidates, %d control candidates",
		criteria.Diagnosis, len(cases), len(controls))

	return s.MatchPools(ctx, criteria, cases, controls)
}

// MatchPools matches two already-materialized candidate pools. This is the
// orchestrator's core sequencing: pool-size validation first, then the
// controls-not-requested short circuit, then delegation to the selector
// (which may hand off to the optimizer internally).
func (s *MatchingService) MatchPools(ctx context.Context, criteria sample.MatchingCriteria, cases, controls []*sample.CandidateSample) (*match.MatchResult, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	if len(cases) == 0 {
		return match.Failure(
			fmt.Sprintf("no case candidates found for diagnosis %q", criteria.Diagnosis),
			"Broaden the diagnosis text or relax demographic filters",
		), nil
	}
	if len(cases) < criteria.NPerGroup {
		return match.Failure(
			fmt.Sprintf("insufficient case candidates: requested %d, found %d", criteria.NPerGroup, len(cases)),
			fmt.Sprintf("Reduce the requested group size to %d or fewer", len(cases)),
			"Relax age, region, or quality filters to widen the case pool",
		), nil
	}

	if !criteria.IncludeControls {
		selected := sample.FilterValid(cases)
		if len(selected) > criteria.NPerGroup {
			selected = selected[:criteria.NPerGroup]
		}
		return &match.MatchResult{
			Cases:    selected,
			Controls: []*sample.CandidateSample{},
			Success:  true,
			Message:  fmt.Sprintf("selected %d cases; no control group requested", len(selected)),
		}, nil
	}

	if len(controls) == 0 {
		return match.Failure(
			"no control candidates found",
			"Disable pathology exclusion or relax control filters",
		), nil
	}

	result := matching.Select(cases, controls, criteria.NPerGroup, criteria.ControlRatio, criteria.ExactSexMatch, s.cfg)
	return result, nil
}
