package bridge

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSTransport_FlushesOnConnectAndRoutesCommands(t *testing.T) {
	b := New(8, nil, nil)
	commands := make(chan Envelope, 4)
	ws := NewWSTransport(b, func(e Envelope) { commands <- e }, nil, nil)

	srv := httptest.NewServer(ws)
	t.Cleanup(srv.Close)

	b.Send(Message{Type: MsgSettings, Data: map[string]any{"provider": "mock"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var first map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	assert.Equal(t, MsgSettings, first["type"])

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"type": CmdGetHistory}))
	select {
	case env := <-commands:
		assert.Equal(t, CmdGetHistory, env.Type)
	case <-ctx.Done():
		t.Fatal("command not routed")
	}

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("nope")))
	var errMsg map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &errMsg))
	assert.Equal(t, MsgError, errMsg["type"])
}

func TestWSTransport_SendWithoutClient(t *testing.T) {
	ws := NewWSTransport(New(1, nil, nil), func(Envelope) {}, nil, nil)
	assert.ErrorIs(t, ws.Send(context.Background(), Message{Type: "x"}), ErrNoClient)
}
