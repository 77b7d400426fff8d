package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type recorder struct {
	mu   sync.Mutex
	msgs []Message
	fail bool
}

func (r *recorder) Send(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("down")
	}
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Type
	}
	return out
}

type dropCount struct{ n int }

func (d *dropCount) RecordOutboxDrop() { d.n++ }

func TestBridge_QueuesUntilReady(t *testing.T) {
	rec := &recorder{}
	b := New(8, nil, nil)
	b.Attach(context.Background(), rec)

	b.Send(Message{Type: "a"})
	b.Send(Message{Type: "b"})
	assert.Empty(t, rec.types())

	b.MarkReady()
	assert.Equal(t, []string{"a", "b"}, rec.types())

	b.Send(Message{Type: "c"})
	assert.Equal(t, []string{"a", "b", "c"}, rec.types())
}

func TestBridge_DropsOldestWhenFull(t *testing.T) {
	rec := &recorder{}
	drops := &dropCount{}
	b := New(2, drops, nil)
	b.Attach(context.Background(), rec)

	for _, typ := range []string{"a", "b", "c"} {
		b.Send(Message{Type: typ})
	}
	b.MarkReady()
	assert.Equal(t, []string{"b", "c"}, rec.types())
	assert.Equal(t, 1, drops.n)
}

func TestBridge_FailedDeliveryRequeues(t *testing.T) {
	rec := &recorder{}
	b := New(8, nil, nil)
	b.Attach(context.Background(), rec)
	b.MarkReady()

	rec.fail = true
	b.Send(Message{Type: "lost?"})
	assert.False(t, b.Ready())

	rec.fail = false
	b.MarkReady()
	assert.Equal(t, []string{"lost?"}, rec.types())
}

func TestBridge_ReadyWithoutTransport(t *testing.T) {
	b := New(1, nil, nil)
	b.MarkReady()
	assert.False(t, b.Ready())
}

func TestOutbox_FIFOAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 16).Draw(t, "limit")
		n := rapid.IntRange(0, 48).Draw(t, "n")
		o := NewOutbox(limit)

		dropped := 0
		for i := range n {
			if o.Push(Message{Type: "m", Data: i}) {
				dropped++
			}
		}
		got := o.Drain()
		if len(got) > limit {
			t.Fatalf("outbox holds %d > %d", len(got), limit)
		}
		if len(got)+dropped != n {
			t.Fatalf("lost messages: kept %d dropped %d of %d", len(got), dropped, n)
		}
		for i, m := range got {
			if m.Data.(int) != dropped+i {
				t.Fatalf("order broken at %d", i)
			}
		}
		if o.Len() != 0 {
			t.Fatalf("drain left items")
		}
	})
}

func TestOutbox_Requeue(t *testing.T) {
	o := NewOutbox(3)
	o.Push(Message{Type: "new"})
	dropped := o.Requeue([]Message{{Type: "x"}, {Type: "y"}, {Type: "z"}})
	assert.Equal(t, 1, dropped)

	got := o.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, "y", got[0].Type)
	assert.Equal(t, "new", got[2].Type)
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope(`{"type":"generate","data":{"prompt":"x"}}`)
	require.NoError(t, err)
	assert.Equal(t, CmdGenerate, env.Type)
	assert.JSONEq(t, `{"prompt":"x"}`, string(env.Data))

	env, err = DecodeEnvelope(map[string]any{"type": "cancel"})
	require.NoError(t, err)
	assert.Equal(t, CmdCancel, env.Type)

	_, err = DecodeEnvelope(`{"data":{}}`)
	assert.Error(t, err)
	_, err = DecodeEnvelope(`{`)
	assert.Error(t, err)
}

func TestWailsTransport_Listen(t *testing.T) {
	handlers := map[string]func(...interface{}){}
	var emitted []interface{}
	w := NewWailsTransport()
	w.SetCustomEmitter(
		func(_ context.Context, name string, data ...interface{}) {
			assert.Equal(t, EventOutbound, name)
			emitted = append(emitted, data...)
		},
		func(_ context.Context, name string, cb func(...interface{})) func() {
			handlers[name] = cb
			return func() { delete(handlers, name) }
		},
	)

	var got []Envelope
	var bad []error
	ready := false
	off := w.Listen(context.Background(), func(e Envelope) { got = append(got, e) }, func() { ready = true }, func(err error) { bad = append(bad, err) })

	handlers[EventInbound](`{"type":"getHistory"}`)
	handlers[EventInbound]("garbage")
	handlers[EventReady]()

	require.Len(t, got, 1)
	assert.Equal(t, CmdGetHistory, got[0].Type)
	assert.Len(t, bad, 1)
	assert.True(t, ready)

	require.NoError(t, w.Send(context.Background(), Message{Type: MsgSettings}))
	assert.Len(t, emitted, 1)

	off()
	assert.Empty(t, handlers)
}
