package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusWithoutListenerDrops(t *testing.T) {
	b := NewBus()
	b.NotifyOpen()

	var n atomic.Int32
	cancel := b.OnOpenRequested(func() { n.Add(1) })
	defer cancel()

	assert.Equal(t, int32(0), n.Load(), "earlier signal must not be replayed")
	b.NotifyOpen()
	assert.Equal(t, int32(1), n.Load())
}

func TestBusCancel(t *testing.T) {
	b := NewBus()
	var n atomic.Int32
	cancel := b.OnOpenRequested(func() { n.Add(1) })

	b.NotifyOpen()
	cancel()
	b.NotifyOpen()

	assert.Equal(t, int32(1), n.Load())
	assert.Equal(t, 0, b.Listeners())
}

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, srv
}

func dial(t *testing.T, h *Hub, srv *httptest.Server, want int) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/panel"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return h.Clients() == want }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestHubNotifyOpenReachesClientsAndListeners(t *testing.T) {
	h, srv := newHubServer(t)
	conn := dial(t, h, srv, 1)

	var local atomic.Int32
	cancel := h.OnOpenRequested(func() { local.Add(1) })
	defer cancel()

	h.NotifyOpen()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, OpenMessageType, msg.Type)
	assert.Equal(t, int32(1), local.Load())
}

func TestHubClientOpenTriggersLocalListeners(t *testing.T) {
	h, srv := newHubServer(t)
	conn := dial(t, h, srv, 1)

	opened := make(chan struct{}, 1)
	cancel := h.OnOpenRequested(func() { opened <- struct{}{} })
	defer cancel()

	require.NoError(t, conn.WriteJSON(Message{Type: OpenMessageType}))

	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("listener not called")
	}
}

func TestHubIgnoresUnknownMessages(t *testing.T) {
	h, srv := newHubServer(t)
	conn := dial(t, h, srv, 1)

	opened := make(chan struct{}, 4)
	cancel := h.OnOpenRequested(func() { opened <- struct{}{} })
	defer cancel()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(Message{Type: "somethingElse"}))
	require.NoError(t, conn.WriteJSON(Message{Type: OpenMessageType}))

	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("listener not called")
	}
	assert.Len(t, opened, 0, "only the open message triggers listeners")
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	h, srv := newHubServer(t)
	a := dial(t, h, srv, 1)
	b := dial(t, h, srv, 2)

	h.Publish(Message{Type: ResolvedMessageType, Token: 7, URL: "https://viewer/x"})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, uint64(7), msg.Token)
		assert.Equal(t, "https://viewer/x", msg.URL)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	h, srv := newHubServer(t)
	conn := dial(t, h, srv, 1)

	conn.Close()
	require.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	h, srv := newHubServer(t)
	conn := dial(t, h, srv, 1)

	h.Close()
	assert.Equal(t, 0, h.Clients())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
