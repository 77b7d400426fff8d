package dispatcher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"airender/internal/apperr"
	"airender/internal/bridge"
	"airender/internal/capture"
	"airender/internal/models"
	"airender/internal/providers"
	"airender/internal/services"
)

const (
	percentCapture  = 10
	percentGenerate = 30
	percentSave     = 80
)

func (d *Dispatcher) generate(_ context.Context, data json.RawMessage) error {
	var req models.GenerateRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if !req.Normalize(d.opts.MaxCount) {
		return apperr.Validation("Prompt is required")
	}

	ctx, seq := d.beginGeneration()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.endGeneration(seq)
		d.guard(bridge.CmdGenerate, func() error {
			return d.runGeneration(ctx, req)
		})
	}()
	return nil
}

// beginGeneration cancels the previous generation and registers a new one.
func (d *Dispatcher) beginGeneration() (context.Context, uint64) {
	d.genMu.Lock()
	defer d.genMu.Unlock()
	if d.genCancel != nil {
		d.genCancel()
	}
	ctx, cancel := context.WithCancel(d.baseCtx)
	d.genSeq++
	d.genCancel = cancel
	return ctx, d.genSeq
}

func (d *Dispatcher) endGeneration(seq uint64) {
	d.genMu.Lock()
	defer d.genMu.Unlock()
	if d.genSeq == seq && d.genCancel != nil {
		d.genCancel()
		d.genCancel = nil
	}
}

func (d *Dispatcher) cancel(context.Context, json.RawMessage) error {
	d.genMu.Lock()
	cancel := d.genCancel
	d.genMu.Unlock()
	if cancel != nil {
		d.log.Info("cancelling generation")
		cancel()
	}
	return nil
}

func (d *Dispatcher) runGeneration(ctx context.Context, req models.GenerateRequest) error {
	start := time.Now()
	run := services.RunRecord{Mode: req.Mode, Count: req.Count}

	err := d.generateAndSave(ctx, req, &run)
	run.Duration = time.Since(start)
	run.Err = err
	d.recordRun(run)

	if apperr.IsCancelled(err) {
		d.send(bridge.Progress(bridge.StageCancelled, "Generation cancelled", 0))
		return nil
	}
	return err
}

func (d *Dispatcher) generateAndSave(ctx context.Context, req models.GenerateRequest, run *services.RunRecord) error {
	provider := d.opts.Providers.Active()
	run.Provider = provider.Name()

	d.send(bridge.Progress(bridge.StageCapture, "Capturing viewport...", percentCapture))
	w, h := capture.ResolveSize(ctx, capture.SizeRequest{
		Width:       req.Width,
		Height:      req.Height,
		LongEdge:    req.LongEdge,
		AspectRatio: req.AspectRatio,
		CaptureMode: req.CaptureMode,
	}, d.opts.Host)
	reference, err := d.captureSource(ctx, req.Source, req.NamedView, w, h, false)
	if err != nil {
		if ctx.Err() != nil {
			return apperr.Cancelled(ctx.Err())
		}
		return fmt.Errorf("capture failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return apperr.Cancelled(err)
	}
	d.send(bridge.Progress(bridge.StageGenerate, fmt.Sprintf("Generating %d image(s) with %s...", req.Count, provider.Name()), percentGenerate))

	result, err := provider.Generate(ctx, providers.RequestFrom(req, reference, w, h))
	if result != nil {
		run.Model = result.Model
		run.Attempts = result.Attempts
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.Cancelled(err)
	}

	// Past this point the run is committed; a late cancel does not undo it.
	saveCtx := context.WithoutCancel(ctx)
	d.send(bridge.Progress(bridge.StageSave, "Saving results...", percentSave))
	rec, err := d.opts.History.Save(saveCtx, result.Images, reference, models.SessionMeta{
		Prompt:    req.Prompt,
		Source:    req.Source,
		NamedView: req.NamedView,
		Width:     w,
		Height:    h,
		Provider:  result.Provider,
		Model:     result.Model,
		Mode:      req.Mode,
	})
	if err != nil {
		return err
	}
	run.SessionID = rec.ID

	images := make([]string, len(result.Images))
	for i, img := range result.Images {
		images[i] = base64.StdEncoding.EncodeToString(img)
	}
	d.send(bridge.Message{Type: bridge.MsgGenerateResult, Data: bridge.GenerateResultPayload{
		Images: images,
		Paths:  rec.OutputPaths,
		Meta: bridge.ResultMeta{
			Provider:  result.Provider,
			Model:     result.Model,
			RequestID: result.RequestID,
			Timestamp: rec.Timestamp.Format(time.RFC3339),
		},
	}})
	d.sendHistory(saveCtx)
	return nil
}

func (d *Dispatcher) captureSource(ctx context.Context, source, named string, w, h int, transparent bool) ([]byte, error) {
	if d.opts.Host == nil {
		return nil, fmt.Errorf("no host available")
	}
	if source == models.SourceNamed && named != "" {
		return d.opts.Host.CaptureNamed(ctx, named, w, h, transparent)
	}
	return d.opts.Host.CaptureActive(ctx, w, h, transparent)
}

func (d *Dispatcher) recordRun(run services.RunRecord) {
	outcome := models.RunSucceeded
	switch {
	case run.Err == nil:
	case apperr.IsCancelled(run.Err):
		outcome = models.RunCancelled
	default:
		outcome = models.RunFailed
	}
	d.opts.Metrics.RecordGeneration(run.Provider, outcome, run.Duration)

	if d.opts.RunLog == nil || run.Provider == "" {
		return
	}
	// Logged with a fresh context so cancelled runs are still recorded.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := d.opts.RunLog.Record(ctx, run); err != nil {
		d.log.Warn("cannot record generation run", zap.Error(err))
	}
}
