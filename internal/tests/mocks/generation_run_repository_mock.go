package mocks

import (
	"context"

	"airender/internal/models"
)

type GenerationRunRepositoryMock struct {
	CreateFunc         func(ctx context.Context, run *models.GenerationRun) error
	ListRecentFunc     func(ctx context.Context, limit int) ([]models.GenerationRun, error)
	CountByOutcomeFunc func(ctx context.Context) (map[string]int64, error)
}

func (m *GenerationRunRepositoryMock) Create(ctx context.Context, run *models.GenerationRun) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, run)
	}
	return nil
}

func (m *GenerationRunRepositoryMock) ListRecent(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return []models.GenerationRun{}, nil
}

func (m *GenerationRunRepositoryMock) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	if m.CountByOutcomeFunc != nil {
		return m.CountByOutcomeFunc(ctx)
	}
	return map[string]int64{}, nil
}
