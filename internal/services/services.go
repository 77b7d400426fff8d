package services

import (
	"github.com/99designs/keyring"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"airender/internal/capture"
	"airender/internal/repositories"
	"airender/internal/storage"
)

// Deps are the collaborators the service container is built from. DB and
// Scene may be nil.
type Deps struct {
	ConfigRoot    string
	DB            *gorm.DB
	Ring          keyring.Keyring
	Scene         capture.SceneLocator
	HistoryLimit  int
	ThumbnailSize int
	Logger        *zap.Logger
}

// Services aggregates the engine's stores. RunLog is nil without a database.
type Services struct {
	Settings  SettingsService
	Favorites FavoritesService
	History   HistoryService
	Keyring   *KeyringService
	RunLog    RunLogService
	Watcher   *HistoryWatcher
}

// NewServices constructs the service container. Settings and favorites live
// as JSON documents under ConfigRoot.
func NewServices(d Deps) *Services {
	docs := storage.NewDocStore(d.ConfigRoot)
	ring := d.Ring
	if ring == nil {
		ring = OpenKeyring(d.Logger)
	}

	s := &Services{
		Settings:  NewSettingsService(docs, d.Logger),
		Favorites: NewFavoritesService(docs, d.Logger),
		Keyring:   NewKeyringService(ring),
		Watcher:   NewHistoryWatcher(d.Logger, 0),
	}
	s.History = NewHistoryService(HistoryOptions{
		ConfigRoot:    d.ConfigRoot,
		Limit:         d.HistoryLimit,
		ThumbnailSize: d.ThumbnailSize,
		Settings:      s.Settings,
		Scene:         d.Scene,
		Favorites:     s.Favorites,
		Logger:        d.Logger,
	})
	if d.DB != nil {
		s.RunLog = NewRunLogService(repositories.NewGenerationRunRepository(d.DB))
	}
	return s
}
