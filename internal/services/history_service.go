package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	filepathx "github.com/yargevad/filepathx"
	"go.uber.org/zap"

	"airender/internal/apperr"
	"airender/internal/capture"
	"airender/internal/logging"
	"airender/internal/models"
	"airender/internal/utils"
)

const (
	sessionDirLayout   = "2006-01-02_15-04-05"
	renderDirName      = "_AI_Renders"
	metadataFile       = "metadata.json"
	screenshotFile     = "screenshot.png"
	sessionIDLen       = 12
	sessionIDAttempts  = 3
	defaultHistorySize = 50
	defaultThumbSize   = 128
)

type HistoryService interface {
	// OutputDirectory is where new sessions go under the current settings.
	OutputDirectory(ctx context.Context) string
	Save(ctx context.Context, images [][]byte, capture []byte, meta models.SessionMeta) (*models.SessionRecord, error)
	// List returns up to the configured limit, newest first. Broken records
	// are skipped.
	List(ctx context.Context) []models.HistoryItem
	// LoadImages base64-encodes the readable images among paths and the
	// optional screenshot.
	LoadImages(paths []string, screenshotPath string) ([]string, string)
}

type HistoryOptions struct {
	ConfigRoot    string
	Limit         int
	ThumbnailSize int
	Settings      SettingsService
	Scene         capture.SceneLocator
	Favorites     FavoritesService
	Logger        *zap.Logger
	Now           func() time.Time
}

type historyService struct {
	opts HistoryOptions
	log  *zap.Logger
}

func NewHistoryService(opts HistoryOptions) HistoryService {
	if opts.Limit <= 0 {
		opts.Limit = defaultHistorySize
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = defaultThumbSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &historyService{opts: opts, log: logging.OrNop(opts.Logger).Named("history")}
}

// OutputDirectory resolves: fixed folder, then <scene dir>/_AI_Renders, then
// <config root>/_AI_Renders.
func (s *historyService) OutputDirectory(ctx context.Context) string {
	settings := models.DefaultSettings()
	if s.opts.Settings != nil {
		settings = s.opts.Settings.Load()
	}

	if settings.OutputMode == models.OutputFixed && strings.TrimSpace(settings.OutputFolder) != "" {
		folder, err := homedir.Expand(strings.TrimSpace(settings.OutputFolder))
		if err == nil {
			return folder
		}
		s.log.Warn("cannot expand output folder", zap.String("folder", settings.OutputFolder), zap.Error(err))
	}

	if s.opts.Scene != nil {
		if scene, err := s.opts.Scene.ActiveScenePath(ctx); err == nil && scene != "" {
			return filepath.Join(filepath.Dir(scene), renderDirName)
		}
	}
	return filepath.Join(s.opts.ConfigRoot, renderDirName)
}

func newSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:sessionIDLen]
}

func outputFileName(i, count int) string {
	if count == 1 {
		return "output.png"
	}
	return fmt.Sprintf("output_%d.png", i+1)
}

func (s *historyService) Save(ctx context.Context, images [][]byte, captured []byte, meta models.SessionMeta) (*models.SessionRecord, error) {
	if len(images) == 0 {
		return nil, apperr.Validation("no images to save")
	}

	root, err := filepath.Abs(s.OutputDirectory(ctx))
	if err != nil {
		return nil, apperr.Persistence("resolve output directory", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperr.Persistence("create output directory", err)
	}

	now := s.opts.Now()
	var id, dir string
	for attempt := 0; ; attempt++ {
		id = newSessionID()
		dir = filepath.Join(root, now.Format(sessionDirLayout)+"_"+id)
		err = os.Mkdir(dir, 0o755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || attempt+1 >= sessionIDAttempts {
			return nil, apperr.Persistence("create session directory", err)
		}
	}

	record := &models.SessionRecord{
		ID:        id,
		Timestamp: now,
		Prompt:    meta.Prompt,
		Source:    meta.Source,
		NamedView: meta.NamedView,
		Width:     meta.Width,
		Height:    meta.Height,
		Provider:  meta.Provider,
		Model:     meta.Model,
		Mode:      meta.Mode,
		Dir:       dir,
	}

	if err := s.writeSession(record, images, captured); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.log.Warn("cannot remove partial session", zap.String("dir", dir), zap.Error(rmErr))
		}
		return nil, apperr.Persistence("save session", err)
	}

	s.log.Info("session saved", zap.String("id", id), zap.String("dir", dir), zap.Int("images", len(images)))
	return record, nil
}

func (s *historyService) writeSession(record *models.SessionRecord, images [][]byte, captured []byte) error {
	for i, img := range images {
		path := filepath.Join(record.Dir, outputFileName(i, len(images)))
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return err
		}
		record.OutputPaths = append(record.OutputPaths, path)
	}

	if len(captured) > 0 {
		path := filepath.Join(record.Dir, screenshotFile)
		if err := os.WriteFile(path, captured, 0o644); err != nil {
			return err
		}
		record.ScreenshotPath = path
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(filepath.Join(record.Dir, metadataFile), data, 0o644)
}

func (s *historyService) List(ctx context.Context) []models.HistoryItem {
	root := s.OutputDirectory(ctx)
	if !utils.DirectoryExists(root) {
		return []models.HistoryItem{}
	}

	matches, err := filepathx.Glob(filepath.Join(root, "*", metadataFile))
	if err != nil {
		s.log.Warn("cannot scan history", zap.String("root", root), zap.Error(err))
		return []models.HistoryItem{}
	}

	records := make([]models.SessionRecord, 0, len(matches))
	for _, path := range matches {
		rec, err := readRecord(path)
		if err != nil {
			s.log.Debug("skipping history record", zap.String("path", path), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].Dir > records[j].Dir
	})
	if len(records) > s.opts.Limit {
		records = records[:s.opts.Limit]
	}

	items := make([]models.HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, s.toItem(rec))
	}
	return items
}

func readRecord(path string) (models.SessionRecord, error) {
	var rec models.SessionRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	if rec.ID == "" || rec.Timestamp.IsZero() {
		return rec, errors.New("metadata missing id or timestamp")
	}
	rec.Dir = filepath.Dir(path)
	return rec, nil
}

func (s *historyService) toItem(rec models.SessionRecord) models.HistoryItem {
	thumbs := make([]string, 0, len(rec.OutputPaths))
	for _, p := range rec.OutputPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		thumb, err := utils.ThumbnailJPEG(data, s.opts.ThumbnailSize)
		if err != nil {
			s.log.Debug("thumbnail failed", zap.String("path", p), zap.Error(err))
			continue
		}
		thumbs = append(thumbs, thumb)
	}

	paths := rec.OutputPaths
	if paths == nil {
		paths = []string{}
	}
	item := models.HistoryItem{
		ID:             rec.ID,
		Timestamp:      rec.Timestamp,
		Prompt:         rec.Prompt,
		Source:         rec.Source,
		NamedView:      rec.NamedView,
		Width:          rec.Width,
		Height:         rec.Height,
		Thumbnails:     thumbs,
		Paths:          paths,
		Provider:       rec.Provider,
		Model:          rec.Model,
		Mode:           rec.Mode,
		ScreenshotPath: rec.ScreenshotPath,
	}
	if s.opts.Favorites != nil {
		item.IsFavorite = s.opts.Favorites.IsFavorite(rec.ID)
	}
	return item
}

func (s *historyService) LoadImages(paths []string, screenshotPath string) ([]string, string) {
	images := make([]string, 0, len(paths))
	for _, p := range paths {
		if b64, ok := readImageBase64(p); ok {
			images = append(images, b64)
		}
	}
	screenshot := ""
	if screenshotPath != "" {
		screenshot, _ = readImageBase64(screenshotPath)
	}
	return images, screenshot
}

func readImageBase64(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
	default:
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return base64.StdEncoding.EncodeToString(data), true
}
