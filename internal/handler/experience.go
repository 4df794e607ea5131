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

type ExperienceHandler struct {
	experienceService *service.ExperienceService
	log               zerolog.Logger
}

func NewExperienceHandler(experienceService *service.ExperienceService) *ExperienceHandler {
	return &ExperienceHandler{
		experienceService: experienceService,
		log:               logger.For("ExperienceHandler"),
	}
}

// Create handles POST /experiences
func (h *ExperienceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateExperienceInput
	if !decodeJSON(w, r, &req) {
		return
	}

	exp, err := h.experienceService.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.log, "Create", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, exp)
}

// Get handles GET /experiences/{id}
func (h *ExperienceHandler) Get(w http.ResponseWriter, r *http.Request) {
	exp, err := h.experienceService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, "Get", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, exp)
}

// Delete handles DELETE /experiences/{id}
// Only the creator may delete; comments go with it.
func (h *ExperienceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.experienceService.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeServiceError(w, h.log, "Delete", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
