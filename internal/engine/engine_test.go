package engine

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airender/internal/bridge"
	"airender/internal/capture"
	"airender/internal/config"
	"airender/internal/models"
	"airender/internal/utils"
)

func TestEngine_GenerateIsLogged(t *testing.T) {
	root := t.TempDir()
	ref := filepath.Join(root, "ref.png")
	data, err := utils.EncodePNG(image.NewNRGBA(image.Rect(0, 0, 20, 20)))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(ref, data, 0o644))

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.App.ConfigRoot = root
	cfg.Database.Path = filepath.Join(root, "runs.db")

	e, err := New(Options{Config: cfg, Host: &capture.FileHost{ReferencePath: ref}, Ring: keyring.NewArrayKeyring(nil)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	require.NotNil(t, e.Services.RunLog)

	var mu sync.Mutex
	var types []string
	e.Bridge.Attach(context.Background(), bridge.TransportFunc(func(_ context.Context, m bridge.Message) error {
		mu.Lock()
		types = append(types, m.Type)
		mu.Unlock()
		return nil
	}))

	raw, _ := json.Marshal(map[string]any{"prompt": "test"})
	e.Handle(context.Background(), bridge.Envelope{Type: bridge.CmdGenerate, Data: raw})
	e.Dispatcher.Wait()

	mu.Lock()
	assert.Empty(t, types, "messages must wait for the ready signal")
	mu.Unlock()

	e.Bridge.MarkReady()
	mu.Lock()
	assert.Contains(t, types, bridge.MsgGenerateResult)
	mu.Unlock()

	runs, err := e.Services.RunLog.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunSucceeded, runs[0].Outcome)
	assert.Equal(t, "Mock", runs[0].Provider)
}

func TestEngine_WatcherPushesHistory(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.App.ConfigRoot = root

	e, err := New(Options{Config: cfg, Ring: keyring.NewArrayKeyring(nil), NoDatabase: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	updates := make(chan struct{}, 8)
	e.Bridge.Attach(context.Background(), bridge.TransportFunc(func(_ context.Context, m bridge.Message) error {
		if m.Type == bridge.MsgHistoryUpdate {
			updates <- struct{}{}
		}
		return nil
	}))
	e.Bridge.MarkReady()
	e.Start(context.Background())

	require.NoError(t, os.Mkdir(filepath.Join(root, "_AI_Renders", "external"), 0o755))
	select {
	case <-updates:
	case <-time.After(5 * time.Second):
		t.Fatal("no history update after external change")
	}
}

func TestEngine_RequiresConfig(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
