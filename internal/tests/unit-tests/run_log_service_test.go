package unit_tests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"airender/internal/apperr"
	"airender/internal/models"
	"airender/internal/services"
	"airender/internal/tests/mocks"
)

func TestRunLogService_Record_Success(t *testing.T) {
	var stored *models.GenerationRun
	mockRepo := &mocks.GenerationRunRepositoryMock{
		CreateFunc: func(ctx context.Context, run *models.GenerationRun) error {
			stored = run
			return nil
		},
	}
	service := services.NewRunLogService(mockRepo)

	run, err := service.Record(context.Background(), services.RunRecord{
		Provider:  "Gemini",
		Model:     "pro-model",
		Mode:      models.TierPro,
		Count:     2,
		SessionID: "abc123",
		Attempts:  []models.EndpointAttempt{{Endpoint: "gemini-api", Outcome: "success"}},
		Duration:  1500 * time.Millisecond,
	})
	assert.NoError(t, err)
	assert.Same(t, stored, run)
	assert.Equal(t, models.RunSucceeded, run.Outcome)
	assert.Equal(t, int64(1500), run.DurationMs)
	assert.NotEmpty(t, run.RunID)

	var attempts []models.EndpointAttempt
	assert.NoError(t, json.Unmarshal([]byte(run.AttemptsJSON), &attempts))
	assert.Len(t, attempts, 1)
}

func TestRunLogService_Record_Outcomes(t *testing.T) {
	service := services.NewRunLogService(&mocks.GenerationRunRepositoryMock{})

	run, err := service.Record(context.Background(), services.RunRecord{Provider: "Mock", Err: apperr.Cancelled(context.Canceled)})
	assert.NoError(t, err)
	assert.Equal(t, models.RunCancelled, run.Outcome)

	run, err = service.Record(context.Background(), services.RunRecord{Provider: "Gemini", Err: apperr.AllEndpointsFailed(2, assert.AnError)})
	assert.NoError(t, err)
	assert.Equal(t, models.RunFailed, run.Outcome)
	assert.Equal(t, string(apperr.CodeAllEndpointsFailed), run.ErrorCode)
	assert.Contains(t, run.ErrorMessage, "all 2 endpoint(s) failed")
}

func TestRunLogService_Record_Error(t *testing.T) {
	mockRepo := &mocks.GenerationRunRepositoryMock{
		CreateFunc: func(ctx context.Context, run *models.GenerationRun) error {
			return assert.AnError
		},
	}
	service := services.NewRunLogService(mockRepo)

	run, err := service.Record(context.Background(), services.RunRecord{Provider: "Mock"})
	assert.Error(t, err)
	assert.Nil(t, run)

	_, err = service.Record(context.Background(), services.RunRecord{})
	assert.Error(t, err)
}

func TestRunLogService_Recent_ClampsLimit(t *testing.T) {
	var got int
	mockRepo := &mocks.GenerationRunRepositoryMock{
		ListRecentFunc: func(ctx context.Context, limit int) ([]models.GenerationRun, error) {
			got = limit
			return nil, nil
		},
	}
	service := services.NewRunLogService(mockRepo)

	_, _ = service.Recent(context.Background(), 0)
	assert.Equal(t, 50, got)
	_, _ = service.Recent(context.Background(), 10)
	assert.Equal(t, 10, got)
}
