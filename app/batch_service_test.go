package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuromatch/domain/sample"
	"neuromatch/internal/testkit"
)

func TestBatchRun_OutcomesInRequestOrder(t *testing.T) {
	svc := newTestService(nil)
	batch := NewBatchMatchingService(svc, 2)

	cases, controls := testkit.BalancedCohort()
	requests := []BatchRequest{
		{Criteria: sample.DefaultCriteria("schizophrenia", 4), Cases: cases, Controls: controls},
		{Criteria: sample.DefaultCriteria("bipolar", 4), Cases: nil, Controls: controls},
		{Criteria: sample.DefaultCriteria("mdd", 2), Cases: cases, Controls: controls},
	}

	outcomes := batch.Run(context.Background(), requests)

	require.Len(t, outcomes, 3)
	for i, out := range outcomes {
		require.NoError(t, out.Err, "request %d", i)
		require.NotNil(t, out.Result, "request %d", i)
	}
	assert.True(t, outcomes[0].Result.Success)
	assert.False(t, outcomes[1].Result.Success, "empty case pool must fail")
	assert.Contains(t, outcomes[1].Result.Message, "bipolar")
	assert.True(t, outcomes[2].Result.Success)
}

func TestBatchRun_InvalidRequestDoesNotPoisonBatch(t *testing.T) {
	svc := newTestService(nil)
	batch := NewBatchMatchingService(svc, 4)

	cases, controls := testkit.BalancedCohort()
	requests := []BatchRequest{
		{Criteria: sample.DefaultCriteria("schizophrenia", 0), Cases: cases, Controls: controls},
		{Criteria: sample.DefaultCriteria("schizophrenia", 4), Cases: cases, Controls: controls},
	}

	outcomes := batch.Run(context.Background(), requests)

	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	assert.True(t, outcomes[1].Result.Success)
}

func TestBatchRun_ManyRequestsUnderNarrowLimit(t *testing.T) {
	svc := newTestService(nil)
	batch := NewBatchMatchingService(svc, 1)

	cases, controls := testkit.BalancedCohort()
	var requests []BatchRequest
	for i := 0; i < 8; i++ {
		requests = append(requests, BatchRequest{
			Criteria: sample.DefaultCriteria(fmt.Sprintf("dx-%d", i), 4),
			Cases:    cases,
			Controls: controls,
		})
	}

	outcomes := batch.Run(context.Background(), requests)

	require.Len(t, outcomes, 8)
	for i, out := range outcomes {
		require.NoError(t, out.Err, "request %d", i)
		assert.True(t, out.Result.Success, "request %d", i)
	}
}

func TestBatchRun_CancelledContextAbortsAdmission(t *testing.T) {
	svc := newTestService(nil)
	batch := NewBatchMatchingService(svc, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cases, controls := testkit.BalancedCohort()
	outcomes := batch.Run(ctx, []BatchRequest{
		{Criteria: sample.DefaultCriteria("schizophrenia", 4), Cases: cases, Controls: controls},
	})

	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
	assert.Nil(t, outcomes[0].Result)
}

func TestNewBatchMatchingService_FloorsConcurrency(t *testing.T) {
	svc := newTestService(nil)
	batch := NewBatchMatchingService(svc, 0)

	cases, controls := testkit.BalancedCohort()
	outcomes := batch.Run(context.Background(), []BatchRequest{
		{Criteria: sample.DefaultCriteria("schizophrenia", 4), Cases: cases, Controls: controls},
	})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	assert.True(t, outcomes[0].Result.Success)
}

func TestBatchRun_FailureCarriesSuggestions(t *testing.T) {
	svc := newTestService(nil)
	batch := NewBatchMatchingService(svc, 2)

	_, controls := testkit.BalancedCohort()
	outcomes := batch.Run(context.Background(), []BatchRequest{
		{Criteria: sample.DefaultCriteria("pick disease", 4), Controls: controls},
	})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	result := outcomes[0].Result
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Suggestions)
}
