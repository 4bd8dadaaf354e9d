package controller

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	connInmemory "github.com/datenight/server/internal/repository/connection/inmemory"
	stateInmemory "github.com/datenight/server/internal/repository/state/inmemory"
	"github.com/datenight/server/internal/service/channel"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	channelService := channel.NewService(connInmemory.NewRepo(), stateInmemory.NewRepo(), logger, &channel.Config{})
	c := NewController(channelService, logger, &Config{})

	server := httptest.NewServer(c.GetMux())
	t.Cleanup(server.Close)

	return server
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

// next reads frames until one of the given type arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == typ {
			return f.Payload
		}
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestPublishAndSubscribe(t *testing.T) {
	server := newTestServer(t)

	pub := dial(t, server, "/api/v1/ws/movie/publish?nick=Alice")
	next(t, pub, "nick change")

	sub := dial(t, server, "/api/v1/ws/movie/subscribe?nick=Bob")
	var nc struct {
		New string `json:"new"`
	}
	require.NoError(t, json.Unmarshal(next(t, sub, "nick change"), &nc))
	assert.Equal(t, "Bob", nc.New)
	next(t, sub, "update publishers")

	send(t, pub, "update state", map[string]any{
		"title":    "Film",
		"position": 30,
		"length":   "180",
		"status":   "Playing",
		"show":     true,
	})

	var update struct {
		Update string `json:"update"`
		State  struct {
			Title    string `json:"title"`
			Position string `json:"position"`
			Status   string `json:"status"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(next(t, sub, "update publishers"), &update))
	assert.Equal(t, "Alice", update.Update)
	assert.Equal(t, "Film", update.State.Title)
	assert.Equal(t, "30", update.State.Position)
	assert.Equal(t, "Playing", update.State.Status)

	send(t, sub, "broadcast message", map[string]any{"data": "/pause"})
	var req struct {
		Nick string `json:"nick"`
	}
	require.NoError(t, json.Unmarshal(next(t, pub, "pause"), &req))
	assert.Equal(t, "Bob", req.Nick)

	send(t, sub, "latency_ping", map[string]any{"token": "xyz"})
	assert.JSONEq(t, `{"token":"xyz"}`, string(next(t, sub, "latency_pong")))
}

func TestMalformedMessage(t *testing.T) {
	server := newTestServer(t)

	sub := dial(t, server, "/api/v1/ws/subscribe")
	next(t, sub, "nick change")

	send(t, sub, "seek", map[string]any{})
	var msg struct {
		Data string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(next(t, sub, "log_message"), &msg))
	assert.Equal(t, "obey the API!", msg.Data)

	require.NoError(t, sub.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, json.Unmarshal(next(t, sub, "log_message"), &msg))
	assert.Equal(t, "obey the API!", msg.Data)
}

func TestSubscriberStateUpdateDroppedSilently(t *testing.T) {
	server := newTestServer(t)

	sub := dial(t, server, "/api/v1/ws/subscribe")
	next(t, sub, "nick change")

	send(t, sub, "update state", map[string]any{"status": "Rewinding"})
	send(t, sub, "update state", "garbage")
	send(t, sub, "latency_ping", map[string]any{"token": "after"})

	require.NoError(t, sub.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, sub.ReadJSON(&f))
		require.NotEqual(t, "log_message", f.Type, "unexpected %s", f.Payload)
		if f.Type == "latency_pong" {
			assert.JSONEq(t, `{"token":"after"}`, string(f.Payload))
			break
		}
	}
}

func TestSecondPublisherRejected(t *testing.T) {
	server := newTestServer(t)

	pub := dial(t, server, "/api/v1/ws/publish")
	next(t, pub, "nick change")

	second := dial(t, server, "/api/v1/ws/publish")
	var msg struct {
		Fatal bool `json:"fatal"`
	}
	require.NoError(t, json.Unmarshal(next(t, second, "log_message"), &msg))
	assert.True(t, msg.Fatal)

	_, _, err := second.ReadMessage()
	assert.Error(t, err)
}

func TestDisconnectRequest(t *testing.T) {
	server := newTestServer(t)

	watcher := dial(t, server, "/api/v1/ws/subscribe?nick=Watcher")
	next(t, watcher, "nick change")

	leaver := dial(t, server, "/api/v1/ws/subscribe?nick=Leaver")
	next(t, leaver, "nick change")

	send(t, leaver, "disconnect request", nil)

	var update struct {
		Old string `json:"old"`
	}
	for update.Old == "" {
		require.NoError(t, json.Unmarshal(next(t, watcher, "update subscriptions"), &update))
	}
	assert.Equal(t, "Leaver", update.Old)

	require.NoError(t, leaver.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := leaver.ReadMessage(); err != nil {
			break
		}
	}

	resp, err := http.Get(server.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats channel.StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Channels)
}
