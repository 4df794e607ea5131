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

type UserHandler struct {
	userService  *service.UserService
	feedService  *service.FeedService
	mediaService *service.MediaService
	log          zerolog.Logger
}

func NewUserHandler(userService *service.UserService, feedService *service.FeedService, mediaService *service.MediaService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		feedService:  feedService,
		mediaService: mediaService,
		log:          logger.For("UserHandler"),
	}
}

// GetProfile handles GET /users/{id}
// Returns the user with experience count, comment count and average rating.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, "GetProfile", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// ListExperiences handles GET /users/{id}/experiences
func (h *UserHandler) ListExperiences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if _, err := h.userService.GetByID(r.Context(), userID); err != nil {
		writeServiceError(w, h.log, "ListExperiences", err)
		return
	}

	exps, err := h.feedService.ByCreator(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, "ListExperiences", err)
		return
	}
	if exps == nil {
		exps = []model.Experience{}
	}

	httputil.WriteJSON(w, http.StatusOK, model.FeedResponse{Experiences: exps, Count: len(exps)})
}

// Update handles PATCH /users/{id}
// Only the profile owner may edit.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actorID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, h.log, "Update", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UploadAvatar handles POST /users/me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if h.mediaService == nil {
		writeServiceError(w, h.log, "UploadAvatar", model.ErrMediaDisabled)
		return
	}

	file, header, ok := formFile(w, r, model.MaxAvatarSizeBytes)
	if !ok {
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		writeServiceError(w, h.log, "UploadAvatar", err)
		return
	}

	user, err := h.userService.SetProfileImage(r.Context(), userID, upload.URL)
	if err != nil {
		// the object is orphaned otherwise
		if delErr := h.mediaService.DeleteObject(r.Context(), upload.Key); delErr != nil {
			h.log.Warn().Err(delErr).Str("key", upload.Key).Msg("UploadAvatar: cleanup FAILED")
		}
		writeServiceError(w, h.log, "UploadAvatar", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
