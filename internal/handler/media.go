package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"tripshare/internal/httputil"
	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/service"
	"tripshare/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
	log          zerolog.Logger
}

// NewMediaHandler accepts a nil service; uploads then answer 503.
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, log: logger.For("MediaHandler")}
}

// UploadImage handles POST /media/images
// Stores an experience photo and returns its public URL.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if h.mediaService == nil {
		writeServiceError(w, h.log, "UploadImage", model.ErrMediaDisabled)
		return
	}

	file, header, ok := formFile(w, r, model.MaxImageSizeBytes)
	if !ok {
		return
	}
	defer file.Close()

	res, err := h.mediaService.UploadImage(r.Context(), file, header)
	if err != nil {
		writeServiceError(w, h.log, "UploadImage", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, res)
}
