package capture

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airender/internal/models"
	"airender/internal/utils"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.NRGBA{A: 255})
	data, err := utils.EncodePNG(img)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newHost(t *testing.T) *FileHost {
	t.Helper()
	dir := t.TempDir()
	ref := filepath.Join(dir, "viewport.png")
	writePNG(t, ref, 160, 90)
	writePNG(t, filepath.Join(dir, "views", "Front.png"), 40, 40)
	writePNG(t, filepath.Join(dir, "views", "interior", "Kitchen.png"), 40, 40)
	return &FileHost{ReferencePath: ref, ViewsDir: filepath.Join(dir, "views")}
}

func TestFileHost_CaptureActiveResizes(t *testing.T) {
	h := newHost(t)

	data, err := h.CaptureActive(context.Background(), 64, 32, false)
	require.NoError(t, err)

	img, err := utils.DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestFileHost_NamedViews(t *testing.T) {
	h := newHost(t)

	names, err := h.NamedViews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Front", "interior/Kitchen"}, names)

	_, err = h.CaptureNamed(context.Background(), "interior/Kitchen", 10, 10, true)
	assert.NoError(t, err)

	_, err = h.CaptureNamed(context.Background(), "Back", 10, 10, true)
	assert.ErrorContains(t, err, "named view not found")
}

func TestFileHost_CancelledContext(t *testing.T) {
	h := newHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.CaptureActive(ctx, 10, 10, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileHost_Reveal(t *testing.T) {
	var got string
	h := &FileHost{Open: func(_ context.Context, url string) { got = url }}
	dir := t.TempDir()

	require.NoError(t, h.Reveal(context.Background(), dir))
	assert.Equal(t, "file://"+filepath.ToSlash(dir), got)

	assert.NoError(t, (&FileHost{}).Reveal(context.Background(), dir))
}

func TestResolveSize(t *testing.T) {
	ctx := context.Background()
	h := newHost(t) // viewport 160x90

	cases := []struct {
		name string
		req  SizeRequest
		w, h int
	}{
		{"plain", SizeRequest{Width: 800, Height: 600}, 800, 600},
		{"defaults", SizeRequest{}, 1024, 1024},
		{"long edge with ratio", SizeRequest{LongEdge: 1920, AspectRatio: "16:9"}, 1920, 1080},
		{"portrait ratio", SizeRequest{LongEdge: 1600, AspectRatio: "3:4"}, 1200, 1600},
		{"long edge from viewport", SizeRequest{LongEdge: 320}, 320, 180},
		{"viewport", SizeRequest{CaptureMode: models.CaptureViewport, Width: 5, Height: 5}, 160, 90},
		{"viewport scaled", SizeRequest{CaptureMode: models.CaptureViewport, LongEdge: 1600, AspectRatio: "1:1"}, 1600, 900},
		{"oversized width", SizeRequest{Width: 100000, Height: 4096}, models.MaxDimension, 336},
		{"oversized square", SizeRequest{Width: 100000, Height: 100000}, models.MaxDimension, models.MaxDimension},
		{"oversized long edge", SizeRequest{LongEdge: 50000, AspectRatio: "16:9"}, models.MaxDimension, 4608},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, hh := ResolveSize(ctx, tc.req, h)
			assert.Equal(t, tc.w, w)
			assert.Equal(t, tc.h, hh)
		})
	}

	w, hh := ResolveSize(ctx, SizeRequest{LongEdge: 500}, nil)
	assert.Equal(t, 500, w)
	assert.Equal(t, 500, hh)
}
