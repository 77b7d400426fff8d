package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"airender/internal/models"
)

type GenerationRunRepository interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	ListRecent(ctx context.Context, limit int) ([]models.GenerationRun, error)
	CountByOutcome(ctx context.Context) (map[string]int64, error)
}

type generationRunRepository struct {
	db *gorm.DB
}

func NewGenerationRunRepository(db *gorm.DB) GenerationRunRepository {
	return &generationRunRepository{db: db}
}

func (r *generationRunRepository) Create(ctx context.Context, run *models.GenerationRun) error {
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *generationRunRepository) ListRecent(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	var runs []models.GenerationRun
	res := r.db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(limit).Find(&runs)
	if res.Error != nil {
		return nil, res.Error
	}
	return runs, nil
}

func (r *generationRunRepository) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.GenerationRun{}).
		Select("outcome, count(*) as total").
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Outcome] = row.Total
	}
	return out, nil
}
