package handlers

import (
	"context"
	"net/http"

	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/services"
)

type PhotoHandler struct {
	photos    *services.PhotoService
	maxSizeMB int64
}

func NewPhotoHandler(photos *services.PhotoService, maxSizeMB int64) *PhotoHandler {
	return &PhotoHandler{
		photos:    photos,
		maxSizeMB: maxSizeMB,
	}
}

// UploadProfilePhoto accepts a multipart "photo" field. The photo only becomes the
// profile photo after it passes moderation.
func (h *PhotoHandler) UploadProfilePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.photos == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Photo uploads are not configured"))
		return
	}

	// Limit request body size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No photo file provided"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !services.AllowedPhotoType(contentType) {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image type. Allowed: JPEG, PNG, GIF, WebP"))
		return
	}

	// SafeSearch plus the copy take longer than a document write.
	ctx, cancel := context.WithTimeout(r.Context(), 3*requestTimeout)
	defer cancel()

	res := h.photos.UploadProfilePhoto(ctx, userID, contentType, file)
	if !res.Success {
		writeResult(w, http.StatusCreated, res)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(models.PhotoUploadResponse{URL: res.Data}))
}
