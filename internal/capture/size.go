package capture

import (
	"context"

	"airender/internal/models"
	"airender/internal/utils"
)

// SizeRequest carries the sizing fields shared by capturePreview and generate.
type SizeRequest struct {
	Width       int
	Height      int
	LongEdge    int
	AspectRatio string
	CaptureMode string
}

// ResolveSize picks the capture dimensions, never larger than
// models.MaxDimension on either side.
//
// viewport mode uses the viewport size, rescaled to LongEdge when set. Otherwise
// a positive LongEdge wins, taking its ratio from AspectRatio, then the
// viewport, then 1:1. Plain Width/Height is the last resort.
func ResolveSize(ctx context.Context, r SizeRequest, vp ViewportCapturer) (int, int) {
	w, h := resolveSize(ctx, r, vp)
	return utils.FitWithin(w, h, models.MaxDimension)
}

func resolveSize(ctx context.Context, r SizeRequest, vp ViewportCapturer) (int, int) {
	viewW, viewH := 0, 0
	if vp != nil {
		if w, h, err := vp.ViewportSize(ctx); err == nil && w > 0 && h > 0 {
			viewW, viewH = w, h
		}
	}

	if r.CaptureMode == models.CaptureViewport && viewW > 0 {
		if r.LongEdge > 0 {
			return utils.ScaleToLongEdge(viewW, viewH, r.LongEdge)
		}
		return viewW, viewH
	}

	if r.LongEdge > 0 {
		if rw, rh, ok := utils.ParseAspectRatio(r.AspectRatio); ok {
			return utils.ScaleToLongEdge(rw, rh, r.LongEdge)
		}
		if viewW > 0 {
			return utils.ScaleToLongEdge(viewW, viewH, r.LongEdge)
		}
		return r.LongEdge, r.LongEdge
	}

	w, h := r.Width, r.Height
	if w <= 0 {
		w = models.DefaultDimension
	}
	if h <= 0 {
		h = models.DefaultDimension
	}
	return w, h
}
