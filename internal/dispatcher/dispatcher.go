// Package dispatcher routes UI commands to the engine and reports back
// through outbound messages.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"airender/internal/apperr"
	"airender/internal/bridge"
	"airender/internal/capture"
	"airender/internal/logging"
	"airender/internal/metrics"
	"airender/internal/providers"
	"airender/internal/services"
)

// Sender is the outbound side of the bridge.
type Sender interface {
	Send(m bridge.Message)
}

// ProviderSource resolves the provider selected by settings.
type ProviderSource interface {
	Active() providers.Provider
	RefreshTransport()
}

type Options struct {
	Host      capture.Host
	Providers ProviderSource
	Settings  services.SettingsService
	History   services.HistoryService
	Favorites services.FavoritesService
	// RunLog and Watcher are optional.
	RunLog   services.RunLogService
	Watcher  *services.HistoryWatcher
	Metrics  *metrics.Collector
	Out      Sender
	MaxCount int
	Logger   *zap.Logger
	Now      func() time.Time
}

type handlerFunc func(ctx context.Context, data json.RawMessage) error

// Dispatcher handles one UI session. At most one generate runs at a time; a
// new generate cancels the one in flight.
type Dispatcher struct {
	opts     Options
	log      *zap.Logger
	handlers map[string]handlerFunc

	genMu     sync.Mutex
	genSeq    uint64
	genCancel context.CancelFunc
	wg        sync.WaitGroup

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

func New(opts Options) *Dispatcher {
	if opts.MaxCount <= 0 {
		opts.MaxCount = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := &Dispatcher{opts: opts, log: logging.OrNop(opts.Logger).Named("dispatcher")}
	d.baseCtx, d.baseCancel = context.WithCancel(context.Background())
	d.handlers = map[string]handlerFunc{
		bridge.CmdListNamedViews:    d.listNamedViews,
		bridge.CmdCapturePreview:    d.capturePreview,
		bridge.CmdGenerate:          d.generate,
		bridge.CmdCancel:            d.cancel,
		bridge.CmdGetSettings:       d.getSettings,
		bridge.CmdSetSettings:       d.setSettings,
		bridge.CmdOpenFolder:        d.openFolder,
		bridge.CmdGetHistory:        d.getHistory,
		bridge.CmdLoadHistoryImages: d.loadHistoryImages,
		bridge.CmdToggleFavorite:    d.toggleFavorite,
	}
	return d
}

// Handle runs the handler for env. generate returns immediately and continues
// in the background; everything else completes before Handle returns.
func (d *Dispatcher) Handle(ctx context.Context, env bridge.Envelope) {
	h, ok := d.handlers[env.Type]
	if !ok {
		d.log.Warn("unknown command ignored", zap.String("type", env.Type))
		return
	}
	if ctx == nil {
		ctx = d.baseCtx
	}
	d.guard(env.Type, func() error { return h(ctx, env.Data) })
}

// guard turns handler errors and panics into error messages.
func (d *Dispatcher) guard(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("command panicked", zap.String("type", name), zap.Any("panic", r), zap.Stack("stack"))
			d.send(bridge.Error("Internal error", fmt.Sprint(r)))
		}
	}()
	if err := fn(); err != nil {
		d.log.Warn("command failed", zap.String("type", name), zap.Error(err))
		msg, details := describe(err)
		d.send(bridge.Error(msg, details))
	}
}

func (d *Dispatcher) send(m bridge.Message) {
	if d.opts.Out != nil {
		d.opts.Out.Send(m)
	}
}

// Wait blocks until background generations finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels any in-flight generation and waits for it.
func (d *Dispatcher) Close() {
	d.baseCancel()
	d.wg.Wait()
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Validation("malformed command data: %v", err)
	}
	return nil
}

// describe maps an error to a short user message and details.
func describe(err error) (string, string) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return err.Error(), ""
	}
	details := ""
	if ae.Cause != nil {
		details = ae.Cause.Error()
	}
	switch ae.Code {
	case apperr.CodeValidation:
		return ae.Message, details
	case apperr.CodeMissingCredential:
		return "API key not configured", ae.Message
	case apperr.CodeAllEndpointsFailed:
		return "Generation failed", details
	case apperr.CodePersistence:
		return "Could not save results", ae.Message + ": " + details
	}
	return ae.Error(), details
}
