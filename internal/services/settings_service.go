package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"airender/internal/apperr"
	"airender/internal/logging"
	"airender/internal/models"
	"airender/internal/storage"
)

const settingsKey = "settings.json"

type SettingsService interface {
	Startup(ctx context.Context)
	// Load never fails: a missing or unreadable file yields defaults.
	Load() models.Settings
	Save(settings models.Settings) (models.Settings, error)
	Path() string
}

type settingsService struct {
	docs    *storage.DocStore
	log     *zap.Logger
	context context.Context
	mu      sync.Mutex
}

func NewSettingsService(docs *storage.DocStore, log *zap.Logger) SettingsService {
	return &settingsService{docs: docs, log: logging.OrNop(log).Named("settings")}
}

func (s *settingsService) Startup(ctx context.Context) {
	s.context = ctx
}

func (s *settingsService) Path() string {
	return s.docs.Path(settingsKey)
}

func (s *settingsService) Load() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := models.DefaultSettings()
	if err := s.docs.ReadJSON(settingsKey, &settings); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("settings unreadable, using defaults", zap.Error(err))
		}
		return models.DefaultSettings()
	}
	settings.Normalize()
	return settings
}

func (s *settingsService) Save(settings models.Settings) (models.Settings, error) {
	settings.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.docs.WriteJSON(settingsKey, settings); err != nil {
		return settings, apperr.Persistence("save settings", err)
	}
	s.log.Info("settings saved",
		zap.String("provider", settings.Provider),
		zap.String("outputMode", string(settings.OutputMode)),
		zap.Bool("gemini", settings.UseGeminiAPI),
		zap.Bool("vertex", settings.UseVertexAI))
	return settings, nil
}
