package app

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"neuromatch/domain/match"
	"neuromatch/domain/sample"
)

// BatchRequest pairs matching criteria with pre-fetched candidate pools.
type BatchRequest struct {
	Criteria sample.MatchingCriteria
	Cases    []*sample.CandidateSample
	Controls []*sample.CandidateSample
}

// BatchOutcome is one request's result within a batch run.
type BatchOutcome struct {
	Result *match.MatchResult
	Err    error
}

// BatchMatchingService runs independent matching requests concurrently.
// Each request is stateless and touches no shared mutable data, so the
// only coordination needed is the admission semaphore bounding CPU use.
type BatchMatchingService struct {
	matcher *MatchingService
	sem     *semaphore.Weighted
}

// NewBatchMatchingService creates a batch runner admitting at most
// maxConcurrent requests at a time.
func NewBatchMatchingService(matcher *MatchingService, maxConcurrent int64) *BatchMatchingService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &BatchMatchingService{
		matcher: matcher,
		sem:     semaphore.NewWeighted(maxConcurrent),
	}
}

// Run executes all requests and returns outcomes in request order.
// A cancelled context aborts admission of not-yet-started requests; those
// outcomes carry the context error.
func (s *BatchMatchingService) Run(ctx context.Context, requests []BatchRequest) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = BatchOutcome{Err: err}
			continue
		}

		wg.Add(1)
		go func(idx int, req BatchRequest) {
			defer wg.Done()
			defer s.sem.Release(1)

			result, err := s.matcher.MatchPools(ctx, req.Criteria, req.Cases, req.Controls)
			outcomes[idx] = BatchOutcome{Result: result, Err: err}
		}(i, req)
	}
	wg.Wait()

	return outcomes
}
