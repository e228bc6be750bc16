package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetPrivate returns the caller's own private record. Other users get 403.
func (h *ProfileHandler) GetPrivate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID := chi.URLParam(r, "userId")
	if callerID != targetID {
		writeJSON(w, http.StatusForbidden, models.APIResponse{
			Error:     "You can only view your own profile",
			ErrorType: models.ErrorPermission,
		})
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.profiles.LoadPrivateUserData(ctx, targetID))
}

func (h *ProfileHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.profiles.LoadPublicUserData(ctx, chi.URLParam(r, "userId")))
}

// GetPublicProfile is the cached view shown on other users' screens.
func (h *ProfileHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.profiles.GetPublicProfile(ctx, chi.URLParam(r, "userId")))
}

func (h *ProfileHandler) CreatePrivate(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusCreated, h.profiles.CreatePrivateUserData)
}

func (h *ProfileHandler) CreatePublic(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusCreated, h.profiles.CreatePublicUserData)
}

func (h *ProfileHandler) SavePrivate(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, h.profiles.SavePrivateUserData)
}

func (h *ProfileHandler) SavePublic(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, h.profiles.SavePublicUserData)
}

// SaveUpdates takes one flat map and routes each field to the private and/or public record.
func (h *ProfileHandler) SaveUpdates(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, h.profiles.SaveUserUpdates)
}

type profileWrite func(ctx context.Context, callerID, userID string, data map[string]any) models.Result[models.Empty]

func (h *ProfileHandler) write(w http.ResponseWriter, r *http.Request, okStatus int, fn profileWrite) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body map[string]any
	if !decodeJSON(w, r, &body) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, okStatus, fn(ctx, callerID, chi.URLParam(r, "userId"), body))
}
