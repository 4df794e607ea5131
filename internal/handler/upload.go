package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"tripshare/internal/httputil"
	"tripshare/internal/model"
)

// formFile parses a multipart upload bounded by maxSize and returns the
// "file" part. It writes the error response itself and returns ok=false.
func formFile(w http.ResponseWriter, r *http.Request, maxSize int64) (multipart.File, *multipart.FileHeader, bool) {
	maxFormSize := maxSize + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return nil, nil, false
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusBadRequest, model.CodeFileTooLarge, "Image exceeds size limit")
			return nil, nil, false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "file is required")
		return nil, nil, false
	}
	return file, header, true
}
