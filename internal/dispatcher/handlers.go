package dispatcher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"airender/internal/apperr"
	"airender/internal/bridge"
	"airender/internal/capture"
	"airender/internal/models"
)

func (d *Dispatcher) listNamedViews(ctx context.Context, _ json.RawMessage) error {
	items, err := d.opts.Host.NamedViews(ctx)
	if err != nil || items == nil {
		items = []string{}
	}
	d.send(bridge.Message{Type: bridge.MsgNamedViews, Data: bridge.NamedViewsPayload{Items: items}})
	if err != nil {
		d.send(bridge.Error("Could not list named views", err.Error()))
	}
	return nil
}

func (d *Dispatcher) capturePreview(ctx context.Context, data json.RawMessage) error {
	var req bridge.CapturePreviewData
	if err := decode(data, &req); err != nil {
		return err
	}
	w, h := capture.ResolveSize(ctx, capture.SizeRequest{
		Width:       req.Width,
		Height:      req.Height,
		LongEdge:    req.LongEdge,
		AspectRatio: req.AspectRatio,
		CaptureMode: req.CaptureMode,
	}, d.opts.Host)

	img, err := d.captureSource(ctx, req.Source, strings.TrimSpace(req.NamedView), w, h, req.Transparent)
	if err != nil {
		return err
	}
	d.send(bridge.Message{Type: bridge.MsgPreviewImage, Data: bridge.PreviewImagePayload{
		Base64: base64.StdEncoding.EncodeToString(img),
		Width:  w,
		Height: h,
	}})
	return nil
}

func (d *Dispatcher) getSettings(context.Context, json.RawMessage) error {
	d.send(bridge.Message{Type: bridge.MsgSettings, Data: d.opts.Settings.Load()})
	return nil
}

func (d *Dispatcher) setSettings(ctx context.Context, data json.RawMessage) error {
	settings := d.opts.Settings.Load()
	if err := decode(data, &settings); err != nil {
		return err
	}
	saved, err := d.opts.Settings.Save(settings)
	if err != nil {
		return err
	}
	d.opts.Providers.RefreshTransport()
	d.WatchHistory(ctx)
	d.send(bridge.Message{Type: bridge.MsgSettings, Data: saved})
	return nil
}

// WatchHistory (re)arms the history watcher on the current output root.
func (d *Dispatcher) WatchHistory(ctx context.Context) {
	if d.opts.Watcher == nil {
		return
	}
	root := d.opts.History.OutputDirectory(ctx)
	err := d.opts.Watcher.Watch(d.baseCtx, root, func() { d.sendHistory(d.baseCtx) })
	if err != nil {
		d.log.Warn("cannot watch history", zap.String("root", root), zap.Error(err))
	}
}

func (d *Dispatcher) openFolder(ctx context.Context, data json.RawMessage) error {
	var req bridge.OpenFolderData
	if err := decode(data, &req); err != nil {
		return err
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		d.log.Debug("open folder: path missing", zap.String("path", path))
		return nil
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}
	return d.opts.Host.Reveal(ctx, path)
}

func (d *Dispatcher) getHistory(ctx context.Context, _ json.RawMessage) error {
	d.sendHistory(ctx)
	return nil
}

func (d *Dispatcher) sendHistory(ctx context.Context) {
	items := d.opts.History.List(ctx)
	if items == nil {
		items = []models.HistoryItem{}
	}
	d.send(bridge.Message{Type: bridge.MsgHistoryUpdate, Data: bridge.HistoryUpdatePayload{
		Items:       items,
		FavoriteIDs: d.opts.Favorites.IDs(),
	}})
}

func (d *Dispatcher) loadHistoryImages(_ context.Context, data json.RawMessage) error {
	var req bridge.LoadHistoryImagesData
	if err := decode(data, &req); err != nil {
		return err
	}
	images, screenshot := d.opts.History.LoadImages(req.Paths, req.ScreenshotPath)
	d.send(bridge.Message{Type: bridge.MsgHistoryImages, Data: bridge.HistoryImagesPayload{
		Images:     images,
		Screenshot: screenshot,
	}})
	return nil
}

func (d *Dispatcher) toggleFavorite(ctx context.Context, data json.RawMessage) error {
	var req bridge.ToggleFavoriteData
	if err := decode(data, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.HistoryID) == "" {
		return apperr.Validation("historyId is required")
	}
	state, err := d.opts.Favorites.Toggle(req.HistoryID)
	if err != nil {
		return err
	}
	d.send(bridge.Message{Type: bridge.MsgFavoriteStatus, Data: bridge.FavoriteStatusPayload{
		HistoryID:  req.HistoryID,
		IsFavorite: state,
	}})
	d.sendHistory(ctx)
	return nil
}
