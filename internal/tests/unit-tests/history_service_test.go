package unit_tests

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"airender/internal/apperr"
	"airender/internal/models"
	"airender/internal/services"
	"airender/internal/storage"
	"airender/internal/tests/mocks"
	"airender/internal/utils"
)

func png(t testing.TB) []byte {
	data, err := utils.EncodePNG(image.NewNRGBA(image.Rect(0, 0, 300, 150)))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newHistory(root string, limit int, now func() time.Time, scene string) (services.HistoryService, services.FavoritesService) {
	docs := storage.NewDocStore(filepath.Join(root, "config"))
	favorites := services.NewFavoritesService(docs, nil)
	return services.NewHistoryService(services.HistoryOptions{
		ConfigRoot: filepath.Join(root, "config"),
		Limit:      limit,
		Settings:   services.NewSettingsService(docs, nil),
		Scene: &mocks.SceneLocatorMock{ActiveScenePathFunc: func(context.Context) (string, error) {
			return scene, nil
		}},
		Favorites: favorites,
		Now:       now,
	}), favorites
}

func TestHistoryService_SaveLayout(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	history, favorites := newHistory(root, 0, func() time.Time { return at }, filepath.Join(root, "scenes", "house.3dm"))

	rec, err := history.Save(context.Background(), [][]byte{png(t), png(t)}, png(t), models.SessionMeta{Prompt: "p", Source: "active", Width: 300, Height: 150, Provider: "Mock"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "scenes", "_AI_Renders"), filepath.Dir(rec.Dir))
	assert.Regexp(t, regexp.MustCompile(`^2025-03-04_05-06-07_[0-9a-f]{12}$`), filepath.Base(rec.Dir))
	assert.Equal(t, []string{filepath.Join(rec.Dir, "output_1.png"), filepath.Join(rec.Dir, "output_2.png")}, rec.OutputPaths)
	assert.FileExists(t, filepath.Join(rec.Dir, "screenshot.png"))
	assert.FileExists(t, filepath.Join(rec.Dir, "metadata.json"))

	_, err = favorites.Toggle(rec.ID)
	require.NoError(t, err)
	items := history.List(context.Background())
	require.Len(t, items, 1)
	assert.True(t, items[0].IsFavorite)
	assert.Len(t, items[0].Thumbnails, 2)
	assert.Equal(t, rec.OutputPaths, items[0].Paths)
}

func TestHistoryService_SaveNothing(t *testing.T) {
	history, _ := newHistory(t.TempDir(), 0, nil, "")
	_, err := history.Save(context.Background(), nil, nil, models.SessionMeta{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestHistoryService_SaveFailureIsPersistenceError(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "scenes")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0o644))
	history, _ := newHistory(root, 0, nil, filepath.Join(blocker, "house.3dm"))

	_, err := history.Save(context.Background(), [][]byte{png(t)}, nil, models.SessionMeta{Provider: "Mock"})
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func TestHistoryService_SkipsBrokenRecords(t *testing.T) {
	root := t.TempDir()
	history, _ := newHistory(root, 0, nil, "")
	_, err := history.Save(context.Background(), [][]byte{png(t)}, nil, models.SessionMeta{Prompt: "ok", Provider: "Mock"})
	require.NoError(t, err)

	bad := filepath.Join(root, "config", "_AI_Renders", "broken")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "metadata.json"), []byte("{nope"), 0o644))

	items := history.List(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "ok", items[0].Prompt)
}

func TestHistoryService_ListOrderedAndCapped(t *testing.T) {
	img := png(t)
	rapid.Check(t, func(rt *rapid.T) {
		root, err := os.MkdirTemp(t.TempDir(), "h")
		if err != nil {
			rt.Fatal(err)
		}
		limit := rapid.IntRange(1, 6).Draw(rt, "limit")
		offsets := rapid.SliceOfN(rapid.IntRange(0, 10_000), 0, 9).Draw(rt, "offsets")

		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var next time.Time
		history, _ := newHistory(root, limit, func() time.Time { return next }, "")
		for i, off := range offsets {
			next = base.Add(time.Duration(off) * time.Second)
			if _, err := history.Save(context.Background(), [][]byte{img}, nil, models.SessionMeta{Prompt: fmt.Sprint(i), Provider: "Mock"}); err != nil {
				rt.Fatal(err)
			}
		}

		items := history.List(context.Background())
		if len(items) > limit || len(items) != min(limit, len(offsets)) {
			rt.Fatalf("got %d items, limit %d, saved %d", len(items), limit, len(offsets))
		}
		for i := 1; i < len(items); i++ {
			if items[i-1].Timestamp.Before(items[i].Timestamp) {
				rt.Fatalf("items not newest first at %d", i)
			}
		}
	})
}

func TestHistoryService_LoadImages(t *testing.T) {
	root := t.TempDir()
	history, _ := newHistory(root, 0, nil, "")
	rec, err := history.Save(context.Background(), [][]byte{png(t)}, png(t), models.SessionMeta{Provider: "Mock"})
	require.NoError(t, err)

	images, screenshot := history.LoadImages(append(rec.OutputPaths, filepath.Join(root, "missing.png"), filepath.Join(rec.Dir, "metadata.json")), rec.ScreenshotPath)
	assert.Len(t, images, 1)
	assert.NotEmpty(t, screenshot)
}

func TestHistoryService_FixedOutputFolder(t *testing.T) {
	root := t.TempDir()
	docs := storage.NewDocStore(filepath.Join(root, "config"))
	settings := services.NewSettingsService(docs, nil)
	_, err := settings.Save(models.Settings{OutputMode: models.OutputFixed, OutputFolder: filepath.Join(root, "out")})
	require.NoError(t, err)

	history := services.NewHistoryService(services.HistoryOptions{ConfigRoot: filepath.Join(root, "config"), Settings: settings})
	assert.Equal(t, filepath.Join(root, "out"), history.OutputDirectory(context.Background()))
}
