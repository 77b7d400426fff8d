package bridge

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"airender/internal/logging"
)

var ErrNoClient = errors.New("no websocket client connected")

// WSTransport serves one UI client over a WebSocket. A new connection
// replaces the previous one.
type WSTransport struct {
	bridge   *Bridge
	handle   func(Envelope)
	log      *zap.Logger
	patterns []string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSTransport(b *Bridge, handle func(Envelope), originPatterns []string, log *zap.Logger) *WSTransport {
	return &WSTransport{
		bridge:   b,
		handle:   handle,
		patterns: originPatterns,
		log:      logging.OrNop(log).Named("ws"),
	}
}

func (t *WSTransport) Send(ctx context.Context, m Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrNoClient
	}
	return wsjson.Write(ctx, t.conn, m)
}

func (t *WSTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: t.patterns})
	if err != nil {
		t.log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(64 << 20)

	t.mu.Lock()
	prev := t.conn
	t.conn = conn
	t.mu.Unlock()
	if prev != nil {
		_ = prev.Close(websocket.StatusPolicyViolation, "replaced by a new client")
	}

	t.log.Info("client connected", zap.String("remote", r.RemoteAddr))
	t.bridge.Attach(r.Context(), t)
	t.bridge.MarkReady()

	t.readLoop(r.Context(), conn)

	t.mu.Lock()
	current := t.conn == conn
	if current {
		t.conn = nil
	}
	t.mu.Unlock()
	if current {
		t.bridge.MarkUnready()
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
	t.log.Info("client disconnected", zap.String("remote", r.RemoteAddr))
}

func (t *WSTransport) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				t.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		env, err := DecodeEnvelope(data)
		if err != nil {
			t.log.Warn("malformed command", zap.Error(err))
			t.bridge.Send(Error("Malformed command", err.Error()))
			continue
		}
		t.handle(env)
	}
}
