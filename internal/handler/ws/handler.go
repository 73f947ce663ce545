package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	chathandler "github.com/zhouzirui/persona-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/service/ai"
	"github.com/zhouzirui/persona-chat/backend/pkg/logging"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler carries chat and clear requests over a websocket. Each inbound
// frame produces exactly one outbound frame; replies are never streamed.
type Handler struct {
	chatSvc  chathandler.Service
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// New creates the websocket handler. checkOrigin may be nil to allow any origin.
func New(chatSvc chathandler.Service, logger *logging.Logger, checkOrigin func(r *http.Request) bool) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// Frame types.
const (
	TypeChat      = "chat"
	TypeClear     = "clear"
	TypeConnected = "connected"
	TypeReply     = "reply"
	TypeCleared   = "cleared"
	TypeError     = "error"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection serializes writes; gorilla allows one concurrent writer.
type connection struct {
	id        string
	conn      *websocket.Conn
	sessionID string
	writeMu   sync.Mutex
}

func (c *connection) send(msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *connection) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = chat.DefaultSessionID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &connection{id: uuid.NewString(), conn: conn, sessionID: sessionID}
	h.logger.Info("websocket connected", "connection", c.id, "session", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, c)

	if err := c.send(outgoingMessage{Type: TypeConnected, SessionID: sessionID}); err != nil {
		return
	}

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "connection", c.id, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := c.send(h.handleMessage(ctx, c, msg)); err != nil {
			h.logger.Warn("websocket write failed", "connection", c.id, "error", err)
			return
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *connection, msg inboundMessage) outgoingMessage {
	switch msg.Type {
	case TypeChat:
		return h.handleChat(ctx, c, msg.Data)
	case TypeClear:
		return h.handleClear(ctx, c, msg.Data)
	default:
		return errorMessage(c.sessionID, http.StatusBadRequest, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleChat(ctx context.Context, c *connection, raw json.RawMessage) outgoingMessage {
	var payload chathandler.ChatPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errorMessage(c.sessionID, http.StatusBadRequest, "invalid chat payload")
		}
	}
	if payload.SessionID == "" {
		payload.SessionID = c.sessionID
	}

	result, err := h.chatSvc.Chat(ctx, ai.ChatRequest{
		Message:   payload.Message,
		PersonaID: payload.Persona,
		SessionID: payload.SessionID,
	})
	if err != nil {
		status, message := chathandler.StatusFor(err)
		return errorMessage(payload.SessionID, status, message)
	}

	return outgoingMessage{Type: TypeReply, SessionID: payload.SessionID, Data: result}
}

func (h *Handler) handleClear(ctx context.Context, c *connection, raw json.RawMessage) outgoingMessage {
	var payload chathandler.ClearPayload
	if len(raw) > 0 {
		// Malformed clear payloads fall back to the connection session.
		_ = json.Unmarshal(raw, &payload)
	}
	if payload.SessionID == "" {
		payload.SessionID = c.sessionID
	}

	if err := h.chatSvc.Clear(ctx, payload.SessionID); err != nil {
		return errorMessage(payload.SessionID, http.StatusInternalServerError, err.Error())
	}
	return outgoingMessage{
		Type:      TypeCleared,
		SessionID: payload.SessionID,
		Data:      map[string]string{"status": "success"},
	}
}

func errorMessage(sessionID string, status int, message string) outgoingMessage {
	return outgoingMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Data:      map[string]interface{}{"error": message, "status": status},
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
