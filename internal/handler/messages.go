package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/treegpt/treegpt/internal/llm"
	"github.com/treegpt/treegpt/internal/middleware"
	"github.com/treegpt/treegpt/internal/model"
	"github.com/treegpt/treegpt/internal/service"
	"github.com/treegpt/treegpt/pkg/logger"
)

// MessageHandler handles message and branch endpoints.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/conversations/:id/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.List(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to list messages")
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/conversations/:id/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ParentID != "" {
		if err := middleware.ValidateMessageID(req.ParentID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.service.Send(ctx, userID, conversationID, &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, resp)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, service.ErrInvalidParent):
		writeError(w, http.StatusBadRequest, "parent must be an assistant message in this conversation")
	case errors.Is(err, llm.ErrGenerationFailed):
		// The user message is already persisted. Return it so the client
		// can retry or branch from elsewhere without losing the prompt.
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": "generation failed",
			"user":  resp.User,
		})
	default:
		h.logger.Error("failed to send message")
		writeError(w, http.StatusInternalServerError, "failed to send message")
	}
}

// Rename handles PUT /api/v1/conversations/:id/messages/:messageID
func (h *MessageHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")
	messageID := chi.URLParam(r, "messageID")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.RenameMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.Rename(ctx, userID, conversationID, messageID, req.Content)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, msg)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, service.ErrNotUserMessage):
		writeError(w, http.StatusBadRequest, "only user messages can be renamed")
	default:
		h.logger.Error("failed to rename message")
		writeError(w, http.StatusInternalServerError, "failed to rename message")
	}
}

// Delete handles DELETE /api/v1/conversations/:id/messages/:messageID
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")
	messageID := chi.URLParam(r, "messageID")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := h.service.DeleteBranch(ctx, userID, conversationID, messageID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]int{"messages_removed": removed})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, service.ErrRootDelete):
		writeError(w, http.StatusConflict, "the root message cannot be deleted")
	case errors.Is(err, service.ErrNotUserMessage):
		writeError(w, http.StatusBadRequest, "only user messages can be deleted")
	default:
		h.logger.Error("failed to delete branch")
		writeError(w, http.StatusInternalServerError, "failed to delete branch")
	}
}
