package commands

import (
	"bytes"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airender/internal/models"
	"airender/internal/utils"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateHistoryFavorite(t *testing.T) {
	root := t.TempDir()
	img := filepath.Join(root, "ref.png")
	data, err := utils.EncodePNG(image.NewNRGBA(image.Rect(0, 0, 40, 30)))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(img, data, 0o644))

	common := []string{"--config-root", root, "--no-db", "--memory-keyring", "--log-level", "error"}

	out, err := run(t, append([]string{"generate", "--image", img, "--prompt", "loft", "--long-edge", "64"}, common...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "[capture]")
	assert.Contains(t, out, "done: 1 image(s) from Mock")

	out, err = run(t, append([]string{"history", "--json"}, common...)...)
	require.NoError(t, err)
	var items []models.HistoryItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "loft", items[0].Prompt)
	assert.Equal(t, 64, items[0].Width)
	assert.True(t, strings.HasPrefix(items[0].Paths[0], filepath.Join(root, "_AI_Renders")))

	out, err = run(t, append([]string{"favorite", items[0].ID}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "marked as favorite")

	out, err = run(t, append([]string{"history"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, items[0].ID)
	assert.Contains(t, out, "*")
}

func TestGenerateRequiresPromptAndImage(t *testing.T) {
	_, err := run(t, "generate", "--image", "x.png", "--no-db", "--memory-keyring")
	assert.ErrorContains(t, err, "requires a prompt")

	_, err = run(t, "generate", "--prompt", "x", "--no-db", "--memory-keyring")
	assert.ErrorContains(t, err, "requires --image")
}

func TestGenerateOptionsRequest(t *testing.T) {
	o := &GenerateOptions{Prompt: "p", Count: 2, Mode: "FLASH", Contrast: -40}
	req := o.request(true)
	assert.Equal(t, models.TierFlash, req.Mode)
	require.NotNil(t, req.ContrastAdjust)
	assert.Equal(t, -40, *req.ContrastAdjust)
	assert.Nil(t, o.request(false).ContrastAdjust)
}
