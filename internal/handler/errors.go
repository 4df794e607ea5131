package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"tripshare/internal/httputil"
	"tripshare/internal/model"
)

const maxJSONBodyBytes = 1 << 20

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// domainErrors maps sentinel errors to HTTP responses. Anything not listed
// is a 500 whose detail is only logged.
var domainErrors = []errorMapping{
	{model.ErrMissingCredentials, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Username and password are required"},
	{model.ErrMissingFields, http.StatusBadRequest, httputil.ErrCodeBadRequest, "All fields are required"},
	{model.ErrPasswordTooLong, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Password must be at most 72 bytes"},
	{model.ErrInvalidCategory, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Unknown experience type"},
	{model.ErrInvalidRating, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Rating must be between 1 and 5"},
	{model.ErrNoImages, http.StatusBadRequest, httputil.ErrCodeBadRequest, "At least one image is required"},
	{model.ErrTooManyImages, http.StatusBadRequest, httputil.ErrCodeBadRequest, "At most 10 images are allowed"},
	{model.ErrFeaturedImageNotInImages, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Featured image must be one of the images"},
	{model.ErrInvalidCoordinates, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Invalid coordinates"},
	{model.ErrContentRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Comment content is required"},
	{model.ErrContentTooLong, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Comment exceeds 2200 characters"},
	{model.ErrFileTooLarge, http.StatusBadRequest, model.CodeFileTooLarge, "Image exceeds size limit"},
	{model.ErrInvalidImageType, http.StatusBadRequest, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp"},
	{model.ErrInvalidCredentials, http.StatusUnauthorized, httputil.ErrCodeUnauthorized, "Invalid username or password"},
	{model.ErrForbidden, http.StatusForbidden, httputil.ErrCodeForbidden, "Not allowed"},
	{model.ErrNotExperienceOwner, http.StatusForbidden, httputil.ErrCodeForbidden, "Only the creator can do that"},
	{model.ErrUserNotFound, http.StatusNotFound, httputil.ErrCodeNotFound, "User not found"},
	{model.ErrExperienceNotFound, http.StatusNotFound, httputil.ErrCodeNotFound, "Experience not found"},
	{model.ErrUsernameTaken, http.StatusConflict, httputil.ErrCodeConflict, "Username already taken"},
	{model.ErrEmailTaken, http.StatusConflict, httputil.ErrCodeConflict, "Email already taken"},
	{model.ErrMediaDisabled, http.StatusServiceUnavailable, model.CodeMediaDisabled, "Image uploads are not configured"},
}

// writeServiceError writes the response for err returned by a service call.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, op string, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			httputil.WriteError(w, m.status, m.code, m.message)
			return
		}
	}
	log.Error().Err(err).Msg(op + " FAILED")
	httputil.WriteInternalError(w, "Internal server error")
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}
