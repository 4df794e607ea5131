package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tripshare/internal/httputil"
	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/service"
	"tripshare/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
	log            zerolog.Logger
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		log:            logger.For("CommentHandler"),
	}
}

// Create handles POST /experiences/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Add(r.Context(), chi.URLParam(r, "id"), userID, req.Content)
	if err != nil {
		writeServiceError(w, h.log, "Create comment", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// List handles GET /experiences/{id}/comments
// Comments come back in the order they were written.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, "List comments", err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}

	httputil.WriteJSON(w, http.StatusOK, model.CommentListResponse{Comments: comments, Count: len(comments)})
}
