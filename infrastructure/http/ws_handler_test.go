package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"chat-desk/domain"
	"chat-desk/domain/event"
)

type wireEvent struct {
	Event   event.Name      `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{"Authorization": {"Bearer " + tokenFor(t, userID, testSecret)}}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt wireEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func TestWS_Delivers_Message_To_Connected_Receiver(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialWS(t, server, "bob")
	// Registration happens server side just after the handshake; give the
	// handler a beat before sending.
	time.Sleep(50 * time.Millisecond)

	// Alice posts over REST while bob listens on his socket
	recorder := do(t, router, "alice", http.MethodPost, "/messages", map[string]string{
		"receiverId": "bob",
		"body":       "are you online?",
	})
	req.Equal(http.StatusCreated, recorder.Code)

	first := readEvent(t, conn)
	req.Equal(event.NewNotification, first.Event)

	second := readEvent(t, conn)
	req.Equal(event.NewMessage, second.Event)

	var msg domain.Message
	req.NoError(json.Unmarshal(second.Payload, &msg))
	req.Equal("alice", msg.SenderID)
	req.Equal("are you online?", msg.Body)
}

func TestWS_Reconnect_Supersedes_Earlier_Socket(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	stale := dialWS(t, server, "bob")
	time.Sleep(50 * time.Millisecond)
	fresh := dialWS(t, server, "bob")
	time.Sleep(50 * time.Millisecond)

	recorder := do(t, router, "alice", http.MethodPost, "/messages", map[string]string{
		"receiverId": "bob",
		"body":       "ping",
	})
	req.Equal(http.StatusCreated, recorder.Code)

	// The fresh socket gets the events
	evt := readEvent(t, fresh)
	req.Equal(event.NewNotification, evt.Event)

	// The stale socket stays silent
	req.NoError(stale.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err := stale.ReadMessage()
	req.Error(err)
}

func TestWS_Rejects_Anonymous_Upgrade(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, response, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, response.StatusCode)
}
