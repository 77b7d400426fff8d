package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"airender/internal/logging"
)

// Transport delivers outbound messages to the UI surface.
type Transport interface {
	Send(ctx context.Context, m Message) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, m Message) error

func (f TransportFunc) Send(ctx context.Context, m Message) error { return f(ctx, m) }

// DropCounter is told about every message the outbox discards.
type DropCounter interface {
	RecordOutboxDrop()
}

// Bridge queues outbound messages until the UI surface signals it is ready,
// then delivers in order.
type Bridge struct {
	outbox *Outbox
	drops  DropCounter
	log    *zap.Logger

	mu        sync.Mutex
	transport Transport
	ready     bool
	ctx       context.Context
}

type noDrops struct{}

func (noDrops) RecordOutboxDrop() {}

func New(outboxSize int, drops DropCounter, log *zap.Logger) *Bridge {
	if drops == nil {
		drops = noDrops{}
	}
	return &Bridge{
		outbox: NewOutbox(outboxSize),
		drops:  drops,
		log:    logging.OrNop(log).Named("bridge"),
		ctx:    context.Background(),
	}
}

// Attach installs the transport. Messages stay queued until MarkReady.
func (b *Bridge) Attach(ctx context.Context, t Transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transport = t
	if ctx != nil {
		b.ctx = ctx
	}
}

// MarkReady flushes the queue and switches to direct delivery.
func (b *Bridge) MarkReady() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.transport == nil {
		b.log.Warn("ready signalled without a transport")
		return
	}
	b.ready = true
	b.flushLocked()
}

// MarkUnready returns to queueing, e.g. after a client disconnects.
func (b *Bridge) MarkUnready() {
	b.mu.Lock()
	b.ready = false
	b.mu.Unlock()
}

func (b *Bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Send delivers m now when ready, otherwise queues it.
func (b *Bridge) Send(m Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		b.enqueueLocked(m)
		return
	}
	if err := b.transport.Send(b.ctx, m); err != nil {
		b.log.Warn("delivery failed, queueing", zap.String("type", m.Type), zap.Error(err))
		b.ready = false
		b.enqueueLocked(m)
	}
}

func (b *Bridge) enqueueLocked(m Message) {
	if b.outbox.Push(m) {
		b.drops.RecordOutboxDrop()
		b.log.Debug("outbox full, dropped oldest message")
	}
}

func (b *Bridge) flushLocked() {
	pending := b.outbox.Drain()
	for i, m := range pending {
		if err := b.transport.Send(b.ctx, m); err != nil {
			b.log.Warn("flush interrupted", zap.String("type", m.Type), zap.Error(err))
			b.ready = false
			for range b.outbox.Requeue(pending[i:]) {
				b.drops.RecordOutboxDrop()
			}
			return
		}
	}
	if len(pending) > 0 {
		b.log.Debug("outbox flushed", zap.Int("messages", len(pending)))
	}
}
