package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessions "github.com/GriffinCanCode/shellgate/internal/domain/terminal"
	"github.com/GriffinCanCode/shellgate/internal/providers/terminal"
	"github.com/GriffinCanCode/shellgate/internal/testutil/harness"
)

// wireMessage mirrors ServerMessage with the event left raw
type wireMessage struct {
	Type         string          `json:"type"`
	ConnectionID string          `json:"connection_id"`
	RequestID    string          `json:"request_id"`
	Event        json.RawMessage `json:"event"`
	Result       json.RawMessage `json:"result"`
	Message      string          `json:"message"`
}

type wireEvent struct {
	Kind       string `json:"kind"`
	TerminalID string `json:"terminal_id"`
	Data       string `json:"data"`
	Title      string `json:"title"`
}

func setupStream(t *testing.T, origins []string) (*harness.Harness, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := harness.New(t)
	router := gin.New()
	router.GET("/stream", NewHandler(h.Registry, h.Provider, origins, nil).WithMetrics(h.Metrics).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := read(t, conn)
	require.Equal(t, "system", hello.Type)
	require.NotEmpty(t, hello.ConnectionID)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readEvent skips messages until an event of kind arrives
func readEvent(t *testing.T, conn *websocket.Conn, kind sessions.EventKind) wireEvent {
	t.Helper()
	for {
		msg := read(t, conn)
		if msg.Type != "event" {
			continue
		}
		var e wireEvent
		require.NoError(t, json.Unmarshal(msg.Event, &e))
		if e.Kind == string(kind) {
			return e
		}
	}
}

// readReply skips events until a reply to requestID arrives
func readReply(t *testing.T, conn *websocket.Conn, requestID string) wireMessage {
	t.Helper()
	for {
		msg := read(t, conn)
		if msg.RequestID == requestID {
			return msg
		}
	}
}

func waitSubscribers(t *testing.T, h *harness.Harness, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.Registry.Events().Subscribers() == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamCarriesOutput(t *testing.T) {
	h, srv := setupStream(t, nil)
	conn := dial(t, srv, "")
	waitSubscribers(t, h, 1)

	res, err := h.Registry.Create(context.Background(), sessions.LaunchRequest{})
	require.NoError(t, err)

	created := readEvent(t, conn, sessions.EventCreated)
	assert.Equal(t, res.Terminal.ID.String(), created.TerminalID)

	h.Process(0).Emit("hello\r\n")
	output := readEvent(t, conn, sessions.EventOutput)
	data, err := base64.StdEncoding.DecodeString(output.Data)
	require.NoError(t, err)
	assert.Equal(t, "hello\r\n", string(data))

	h.Process(0).Exit(0)
	readEvent(t, conn, sessions.EventExit)

	assert.Equal(t, 1.0, prom.ToFloat64(h.Metrics.WSConnections))
}

func TestStreamClientMessages(t *testing.T) {
	h, srv := setupStream(t, nil)
	conn := dial(t, srv, "")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping", RequestID: "p1"}))
	assert.Equal(t, "pong", readReply(t, conn, "p1").Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "command", RequestID: "c1", Command: string(terminal.KindCreate)}))
	reply := readReply(t, conn, "c1")
	require.Equal(t, "result", reply.Type, reply.Message)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "input", RequestID: "i1", Data: "uptime\r"}))
	assert.Equal(t, "result", readReply(t, conn, "i1").Type)
	assert.Equal(t, "uptime\r", h.Process(0).Input())

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "resize", RequestID: "r1", Cols: 132, Rows: 43}))
	assert.Equal(t, "result", readReply(t, conn, "r1").Type)
	cols, rows := h.Process(0).Size()
	assert.Equal(t, 132, cols)
	assert.Equal(t, 43, rows)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "input", RequestID: "i2", TerminalID: "term_missing", Data: "x"}))
	failed := readReply(t, conn, "i2")
	assert.Equal(t, "error", failed.Type)
	assert.Contains(t, failed.Message, "not found")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "teleport", RequestID: "t1"}))
	assert.Equal(t, "error", readReply(t, conn, "t1").Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	for {
		msg := read(t, conn)
		if msg.Type == "error" {
			assert.Equal(t, "malformed message", msg.Message)
			break
		}
	}
}

func TestStreamCreateSharesSpawnLimit(t *testing.T) {
	h, srv := setupStream(t, nil)
	h.Provider.WithSpawnLimit(1, 1)
	conn := dial(t, srv, "")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "command", RequestID: "c1", Command: string(terminal.KindCreate)}))
	require.Equal(t, "result", readReply(t, conn, "c1").Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "command", RequestID: "c2", Command: string(terminal.KindCreate)}))
	limited := readReply(t, conn, "c2")
	assert.Equal(t, "error", limited.Type)
	assert.Contains(t, limited.Message, "rate limit")
	assert.Equal(t, 1, h.Spawner.Count())
}

func TestStreamFilter(t *testing.T) {
	h, srv := setupStream(t, nil)

	a, err := h.Registry.Create(context.Background(), sessions.LaunchRequest{})
	require.NoError(t, err)
	_, err = h.Registry.Create(context.Background(), sessions.LaunchRequest{})
	require.NoError(t, err)

	conn := dial(t, srv, "?terminal_id="+a.Terminal.ID.String())
	waitSubscribers(t, h, 1)

	h.Process(1).Emit("from b\n")
	h.Process(0).Emit("from a\n")

	output := readEvent(t, conn, sessions.EventOutput)
	assert.Equal(t, a.Terminal.ID.String(), output.TerminalID)
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	_, srv := setupStream(t, []string{"http://localhost:5173"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:5173")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}
