package bridge

import "sync"

const DefaultOutboxSize = 256

// Outbox is a bounded FIFO of undelivered messages. When full the oldest
// message is dropped.
type Outbox struct {
	mu    sync.Mutex
	items []Message
	limit int
}

func NewOutbox(limit int) *Outbox {
	if limit <= 0 {
		limit = DefaultOutboxSize
	}
	return &Outbox{limit: limit}
}

// Push appends m and reports whether an older message was dropped.
func (o *Outbox) Push(m Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	dropped := false
	if len(o.items) >= o.limit {
		o.items = o.items[1:]
		dropped = true
	}
	o.items = append(o.items, m)
	return dropped
}

// Drain removes and returns every queued message in order.
func (o *Outbox) Drain() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.items
	o.items = nil
	return out
}

// Requeue puts undelivered messages back in front of anything queued since.
func (o *Outbox) Requeue(msgs []Message) int {
	if len(msgs) == 0 {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	merged := append(append([]Message(nil), msgs...), o.items...)
	dropped := 0
	if len(merged) > o.limit {
		dropped = len(merged) - o.limit
		merged = merged[dropped:]
	}
	o.items = merged
	return dropped
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}
