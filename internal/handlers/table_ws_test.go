package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTable(t *testing.T, ts *httptest.Server, subprotocols ...string) (*websocket.Conn, *http.Response) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/table/ws"
	c, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: subprotocols})
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c, resp
}

func readEvent(t *testing.T, c *websocket.Conn) TableEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var ev TableEvent
	require.NoError(t, wsjson.Read(ctx, c, &ev))
	return ev
}

func send(t *testing.T, c *websocket.Conn, msg interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, c, msg))
}

func TestTableWebSocketRound(t *testing.T) {
	// player 11 doubles into 21 against dealer 17
	srv, _ := newTestServer(t, "5♠", "10♣", "6♦", "7♥", "K♠")
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	c, resp := dialTable(t, ts, Subprotocol)
	assert.NotEmpty(t, resp.Header.Get("Set-Cookie"), "guest session is issued on the handshake")

	ev := readEvent(t, c)
	require.Equal(t, "state", ev.Type)
	assert.Equal(t, game.StatusBetting, ev.State.Status)

	send(t, c, TableMessage{Type: "ping"})
	assert.Equal(t, "pong", readEvent(t, c).Type)

	send(t, c, TableMessage{Type: "start", Bet: 100})
	ev = readEvent(t, c)
	require.Equal(t, "state", ev.Type, ev.Error)
	assert.Equal(t, game.StatusPlaying, ev.State.Status)
	assert.Equal(t, 1, ev.State.HiddenCards)

	send(t, c, TableMessage{Type: "double"})
	ev = readEvent(t, c)
	require.Equal(t, "state", ev.Type, ev.Error)
	assert.Equal(t, game.StatusComplete, ev.State.Status)
	assert.Equal(t, int64(1200), *ev.State.Balance)

	send(t, c, TableMessage{Type: "hit"})
	ev = readEvent(t, c)
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, http.StatusConflict, ev.Status)

	send(t, c, TableMessage{Type: "shuffle"})
	ev = readEvent(t, c)
	assert.Equal(t, http.StatusUnprocessableEntity, ev.Status)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("{not json")))
	ev = readEvent(t, c)
	assert.Equal(t, http.StatusBadRequest, ev.Status)

	send(t, c, TableMessage{Type: "leave"})
	ev = readEvent(t, c)
	require.Equal(t, "state", ev.Type, ev.Error)
	assert.Equal(t, game.StatusBetting, ev.State.Status)

	require.NoError(t, c.Close(websocket.StatusNormalClosure, ""))
}

func TestTableWebSocketRequiresSubprotocol(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	c, _ := dialTable(t, ts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, _, err := c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusCode(BadSubprotocolError), websocket.CloseStatus(err))
}
