package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"

	filepathx "github.com/yargevad/filepathx"
	"golang.org/x/image/draw"

	"airender/internal/utils"
)

// FileHost serves captures from image files: ReferencePath plays the active
// viewport and every PNG under ViewsDir is a named view keyed by its path
// relative to ViewsDir, without extension.
type FileHost struct {
	ReferencePath string
	ViewsDir      string
	ScenePath     string
	// Open receives a file:// URL for Reveal. nil makes Reveal a no-op.
	Open func(ctx context.Context, url string)
}

var _ Host = (*FileHost)(nil)

func (h *FileHost) CaptureActive(ctx context.Context, w, hgt int, transparent bool) ([]byte, error) {
	if h.ReferencePath == "" {
		return nil, fmt.Errorf("no reference image configured")
	}
	return h.render(ctx, h.ReferencePath, w, hgt, transparent)
}

func (h *FileHost) CaptureNamed(ctx context.Context, name string, w, hgt int, transparent bool) ([]byte, error) {
	views, err := h.viewFiles()
	if err != nil {
		return nil, err
	}
	path, ok := views[name]
	if !ok {
		return nil, fmt.Errorf("named view not found: %s", name)
	}
	return h.render(ctx, path, w, hgt, transparent)
}

func (h *FileHost) ViewportSize(ctx context.Context) (int, int, error) {
	f, err := os.Open(h.ReferencePath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("read viewport size: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func (h *FileHost) NamedViews(ctx context.Context) ([]string, error) {
	views, err := h.viewFiles()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (h *FileHost) ActiveScenePath(ctx context.Context) (string, error) {
	return h.ScenePath, nil
}

func (h *FileHost) Reveal(ctx context.Context, path string) error {
	if h.Open == nil {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	h.Open(ctx, "file://"+filepath.ToSlash(abs))
	return nil
}

func (h *FileHost) viewFiles() (map[string]string, error) {
	views := make(map[string]string)
	if h.ViewsDir == "" {
		return views, nil
	}
	matches, err := filepathx.Glob(filepath.Join(h.ViewsDir, "**", "*.png"))
	if err != nil {
		return nil, fmt.Errorf("list named views: %w", err)
	}
	for _, m := range matches {
		rel, err := filepath.Rel(h.ViewsDir, m)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		views[name] = m
	}
	return views, nil
}

func (h *FileHost) render(ctx context.Context, path string, w, hgt int, transparent bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src, err := utils.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	if w <= 0 || hgt <= 0 {
		w, hgt = src.Bounds().Dx(), src.Bounds().Dy()
	}

	out := utils.Resize(src, w, hgt)
	if !transparent {
		flat := image.NewNRGBA(out.Bounds())
		draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), out, image.Point{}, draw.Over)
		out = flat
	}
	return utils.EncodePNG(out)
}
