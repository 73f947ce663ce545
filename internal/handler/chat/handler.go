package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persona-chat/backend/internal/service/ai"
	"github.com/zhouzirui/persona-chat/backend/pkg/logging"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// Service runs chat exchanges and clears sessions.
type Service interface {
	Chat(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error)
	Clear(ctx context.Context, sessionID string) error
}

// Handler serves the chat and clear endpoints.
type Handler struct {
	chatSvc Service
	logger  *logging.Logger
}

// New creates the chat handler.
func New(chatSvc Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
	}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/clear", h.handleClear)
}

// ChatPayload is the body of POST /api/chat.
type ChatPayload struct {
	Message   string `json:"message"`
	Persona   string `json:"persona"`
	SessionID string `json:"session_id"`
}

// ClearPayload is the body of POST /api/clear.
type ClearPayload struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload ChatPayload
	if err := utils.DecodeJSONBody(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chatSvc.Chat(r.Context(), ai.ChatRequest{
		Message:   payload.Message,
		PersonaID: payload.Persona,
		SessionID: payload.SessionID,
	})
	if err != nil {
		status, message := StatusFor(err)
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	var payload ClearPayload
	if err := utils.DecodeJSONBody(r, &payload); err != nil {
		h.logger.Warn("ignoring malformed clear body", "error", err)
		payload = ClearPayload{}
	}

	if err := h.chatSvc.Clear(r.Context(), payload.SessionID); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// StatusFor maps a chat error to an HTTP status and client-facing message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ai.ErrMessageRequired):
		return http.StatusBadRequest, "No message provided"
	case errors.Is(err, ai.ErrInvalidPersona):
		return http.StatusBadRequest, "Invalid persona"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
