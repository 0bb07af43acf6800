package ws

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	sessions "github.com/GriffinCanCode/shellgate/internal/domain/terminal"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/shellgate/internal/providers/terminal"
	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20

	// DefaultBuffer is the per-connection event backlog before events drop
	DefaultBuffer = 1024
)

// ClientMessage is sent by the UI
type ClientMessage struct {
	Type       string                 `json:"type"`
	RequestID  string                 `json:"request_id,omitempty"`
	TerminalID string                 `json:"terminal_id,omitempty"`
	Data       string                 `json:"data,omitempty"`
	Cols       int                    `json:"cols,omitempty"`
	Rows       int                    `json:"rows,omitempty"`
	Command    string                 `json:"command,omitempty"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

// ServerMessage is sent to the UI
type ServerMessage struct {
	Type         string           `json:"type"`
	ConnectionID id.ConnectionID  `json:"connection_id,omitempty"`
	RequestID    string           `json:"request_id,omitempty"`
	Event        *sessions.Event  `json:"event,omitempty"`
	Result       *terminal.Result `json:"result,omitempty"`
	Message      string           `json:"message,omitempty"`
	Timestamp    int64            `json:"timestamp"`
}

// Handler streams terminal events over WebSocket connections
type Handler struct {
	registry *sessions.Registry
	provider *terminal.Provider
	upgrader websocket.Upgrader
	buffer   int
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler. Browser connections must come
// from one of origins; clients that send no Origin header are accepted.
func NewHandler(registry *sessions.Registry, provider *terminal.Provider, origins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := slices.Clone(origins)

	return &Handler{
		registry: registry,
		provider: provider,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowed, origin)
			},
		},
		buffer: DefaultBuffer,
		logger: logger,
	}
}

// WithMetrics counts connections and messages
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection upgrades the request and streams events until either side
// closes. ?terminal_id= limits the stream to one terminal.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := id.NewConnectionID()
	logger := h.logger.With(zap.String("connection_id", connID.String()))
	filter := c.Query("terminal_id")

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	events, unsubscribe := h.registry.Events().Subscribe(h.buffer)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	replies := make(chan ServerMessage, 64)
	go h.readLoop(ctx, cancel, conn, replies, logger)

	logger.Debug("Stream connected", zap.String("terminal_filter", filter))
	if err := h.send(conn, ServerMessage{Type: "system", ConnectionID: connID, Message: "connected"}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Stream closed")
			return

		case e, open := <-events:
			if !open {
				return
			}
			if filter != "" && e.TerminalID.String() != filter {
				continue
			}
			if err := h.send(conn, ServerMessage{Type: "event", Event: &e}); err != nil {
				logger.Debug("Stream write failed", zap.Error(err))
				return
			}

		case msg := <-replies:
			if err := h.send(conn, msg); err != nil {
				logger.Debug("Stream write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop decodes client messages and queues their replies. It cancels the
// connection when the client goes away.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, replies chan<- ServerMessage, logger *zap.Logger) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Stream read error", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		var reply ServerMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			reply = errorMessage("", "malformed message")
		} else {
			h.recordMessage("in", msg.Type)
			reply = h.handle(ctx, msg)
		}

		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) handle(ctx context.Context, msg ClientMessage) ServerMessage {
	var (
		kind   terminal.Kind
		params map[string]interface{}
	)

	switch msg.Type {
	case "ping":
		return ServerMessage{Type: "pong", RequestID: msg.RequestID}
	case "input":
		kind = terminal.KindWrite
		params = map[string]interface{}{"data": msg.Data}
	case "resize":
		kind = terminal.KindResize
		params = map[string]interface{}{"cols": msg.Cols, "rows": msg.Rows}
	case "command":
		kind = terminal.Kind(msg.Command)
		params = msg.Params
		if params == nil {
			params = map[string]interface{}{}
		}
	default:
		return errorMessage(msg.RequestID, "unknown message type")
	}

	if msg.TerminalID != "" {
		params["terminal_id"] = msg.TerminalID
	}

	result, err := h.provider.Execute(ctx, kind, params)
	if err != nil {
		return errorMessage(msg.RequestID, err.Error())
	}
	return ServerMessage{Type: "result", RequestID: msg.RequestID, Result: result}
}

func (h *Handler) send(conn *websocket.Conn, msg ServerMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	h.recordMessage("out", msg.Type)
	return nil
}

func (h *Handler) recordMessage(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

func errorMessage(requestID, message string) ServerMessage {
	return ServerMessage{Type: "error", RequestID: requestID, Message: message}
}
