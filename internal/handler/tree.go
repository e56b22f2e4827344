package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/treegpt/treegpt/internal/diff"
	"github.com/treegpt/treegpt/internal/middleware"
	"github.com/treegpt/treegpt/internal/model"
	"github.com/treegpt/treegpt/internal/service"
	"github.com/treegpt/treegpt/internal/tree"
	"github.com/treegpt/treegpt/pkg/logger"
)

// TreeHandler handles tree visualization and branch compare endpoints.
type TreeHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(svc *service.MessageService, log *logger.Logger) *TreeHandler {
	return &TreeHandler{
		service: svc,
		logger:  log,
	}
}

// ComparedNode is one side of a compare result. Prompt and Response carry
// the node's texts split into words, each marked changed when it differs
// from the same position on the other side.
type ComparedNode struct {
	ID       string         `json:"id"`
	Prompt   []diff.Segment `json:"prompt"`
	Response []diff.Segment `json:"response"`
}

// CompareResponse is the word-diff of two branches.
type CompareResponse struct {
	Left  ComparedNode `json:"left"`
	Right ComparedNode `json:"right"`
}

// Tree handles GET /api/v1/conversations/:id/tree
func (h *TreeHandler) Tree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	geometry := tree.DefaultGeometry
	resp, err := h.service.Tree(ctx, userID, conversationID, &geometry)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, tree.ErrIntegrity):
		h.logger.Error("conversation has inconsistent message records")
		writeError(w, http.StatusUnprocessableEntity, "conversation messages are inconsistent")
	default:
		h.logger.Error("failed to build tree")
		writeError(w, http.StatusInternalServerError, "failed to build tree")
	}
}

// Compare handles POST /api/v1/conversations/:id/compare
func (h *TreeHandler) Compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LeftID == "" || req.RightID == "" {
		writeError(w, http.StatusBadRequest, "left_id and right_id are required")
		return
	}
	if req.LeftID == req.RightID {
		writeError(w, http.StatusBadRequest, "cannot compare a branch with itself")
		return
	}

	left, right, err := h.service.Compare(ctx, userID, conversationID, &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, &CompareResponse{
			Left: ComparedNode{
				ID:       left.ID,
				Prompt:   diff.Words(right.Prompt, left.Prompt),
				Response: diff.Words(right.Response, left.Response),
			},
			Right: ComparedNode{
				ID:       right.ID,
				Prompt:   diff.Words(left.Prompt, right.Prompt),
				Response: diff.Words(left.Response, right.Response),
			},
		})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "branch not found")
	case errors.Is(err, tree.ErrIntegrity):
		writeError(w, http.StatusUnprocessableEntity, "conversation messages are inconsistent")
	default:
		h.logger.Error("failed to compare branches")
		writeError(w, http.StatusInternalServerError, "failed to compare branches")
	}
}
