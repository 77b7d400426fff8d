package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Wails event names shared with the web view.
const (
	EventOutbound = "airender:message"
	EventInbound  = "airender:command"
	EventReady    = "airender:ready"
)

// WailsTransport emits outbound messages as Wails runtime events.
type WailsTransport struct {
	emit func(ctx context.Context, name string, data ...interface{})
	on   func(ctx context.Context, name string, cb func(data ...interface{})) func()
}

func NewWailsTransport() *WailsTransport {
	return &WailsTransport{emit: runtime.EventsEmit, on: runtime.EventsOn}
}

// SetCustomEmitter replaces the runtime calls, used outside a Wails runtime.
func (w *WailsTransport) SetCustomEmitter(
	emit func(ctx context.Context, name string, data ...interface{}),
	on func(ctx context.Context, name string, cb func(data ...interface{})) func(),
) {
	w.emit, w.on = emit, on
}

func (w *WailsTransport) Send(ctx context.Context, m Message) error {
	if ctx == nil {
		return errors.New("wails transport: no runtime context")
	}
	w.emit(ctx, EventOutbound, m)
	return nil
}

// Listen subscribes handle to inbound command events and onReady to the
// web view's ready signal. The returned func unsubscribes both.
func (w *WailsTransport) Listen(ctx context.Context, handle func(Envelope), onReady func(), onBadCommand func(error)) func() {
	offCmd := w.on(ctx, EventInbound, func(data ...interface{}) {
		if len(data) == 0 {
			return
		}
		env, err := DecodeEnvelope(data[0])
		if err != nil {
			if onBadCommand != nil {
				onBadCommand(err)
			}
			return
		}
		handle(env)
	})
	offReady := w.on(ctx, EventReady, func(...interface{}) {
		if onReady != nil {
			onReady()
		}
	})
	return func() {
		offCmd()
		offReady()
	}
}

// DecodeEnvelope accepts a JSON string, raw bytes or an already decoded map.
func DecodeEnvelope(v any) (Envelope, error) {
	var raw []byte
	switch t := v.(type) {
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	case json.RawMessage:
		raw = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode command: %w", err)
		}
		raw = b
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode command: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, errors.New("decode command: missing type")
	}
	return env, nil
}
