package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"airender/internal/apperr"
	"airender/internal/models"
	"airender/internal/repositories"
)

// RunRecord is what the dispatcher knows about a finished generate call.
type RunRecord struct {
	Provider  string
	Model     string
	Mode      models.Tier
	Count     int
	SessionID string
	Attempts  []models.EndpointAttempt
	Duration  time.Duration
	Err       error
}

type RunLogService interface {
	Record(ctx context.Context, rec RunRecord) (*models.GenerationRun, error)
	Recent(ctx context.Context, limit int) ([]models.GenerationRun, error)
	Summary(ctx context.Context) (map[string]int64, error)
}

type runLogService struct {
	repo repositories.GenerationRunRepository
}

func NewRunLogService(repo repositories.GenerationRunRepository) RunLogService {
	return &runLogService{repo: repo}
}

func (s *runLogService) Record(ctx context.Context, rec RunRecord) (*models.GenerationRun, error) {
	if strings.TrimSpace(rec.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}

	run := &models.GenerationRun{
		RunID:      uuid.NewString(),
		Provider:   rec.Provider,
		Model:      rec.Model,
		Mode:       string(rec.Mode),
		Count:      rec.Count,
		SessionID:  rec.SessionID,
		DurationMs: rec.Duration.Milliseconds(),
		Outcome:    models.RunSucceeded,
	}
	switch {
	case rec.Err == nil:
	case apperr.IsCancelled(rec.Err):
		run.Outcome = models.RunCancelled
		run.ErrorCode = string(apperr.CodeCancelled)
	default:
		run.Outcome = models.RunFailed
		run.ErrorCode = string(apperr.CodeOf(rec.Err))
		run.ErrorMessage = rec.Err.Error()
	}

	if len(rec.Attempts) > 0 {
		data, err := json.Marshal(rec.Attempts)
		if err != nil {
			return nil, fmt.Errorf("encode attempts: %w", err)
		}
		run.AttemptsJSON = string(data)
	}

	if err := s.repo.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *runLogService) Recent(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *runLogService) Summary(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByOutcome(ctx)
}
