package clients

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/logx"
)

// pair returns a server-side Client and the dialled device connection.
func pair(t *testing.T, queue int) (*Client, *websocket.Conn) {
	t.Helper()
	ch := make(chan *Client, 1)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ch <- New(conn, r.RemoteAddr, queue, logx.Discard())
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	select {
	case c := <-ch:
		t.Cleanup(c.Close)
		return c, ws
	case <-time.After(2 * time.Second):
		t.Fatal("no server connection")
		return nil, nil
	}
}

func TestTrySendQueueFullAndClosed(t *testing.T) {
	c, _ := pair(t, 2)

	require.NoError(t, c.TrySend([]byte("a")))
	require.NoError(t, c.TrySend([]byte("b")))
	assert.ErrorIs(t, c.TrySend([]byte("c")), ErrQueueFull)

	c.Close()
	c.Close()
	assert.ErrorIs(t, c.TrySend([]byte("d")), ErrClosed)
}

func TestWritePumpDelivers(t *testing.T) {
	c, ws := pair(t, 4)
	go c.WritePump()

	require.NoError(t, c.TrySend([]byte(`{"type":"screenshot"}`)))
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.Equal(t, `{"type":"screenshot"}`, string(data))
}

func TestManager(t *testing.T) {
	m := NewManager()
	a, _ := pair(t, 1)
	b, _ := pair(t, 1)
	assert.NotEqual(t, a.ID, b.ID)

	m.Add(a)
	m.Add(b)
	assert.Equal(t, 2, m.Len())

	seen := 0
	m.ForEach(func(*Client) { seen++ })
	assert.Equal(t, 2, seen)

	assert.True(t, m.Remove(a))
	assert.False(t, m.Remove(a))
	assert.Equal(t, 1, m.Len())

	m.CloseAll()
	select {
	case <-b.Done():
	default:
		t.Fatal("CloseAll left client open")
	}
}
