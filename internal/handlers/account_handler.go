package handlers

import (
	"net/http"

	"github.com/pairup/backend/internal/middleware"
	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/services"
)

type AccountHandler struct {
	auth *services.AuthService
}

func NewAccountHandler(auth *services.AuthService) *AccountHandler {
	return &AccountHandler{auth: auth}
}

// DeleteAccount deletes the user's events, chat history, invite codes and profiles,
// then the auth user. The ID token must come from a sign-in within the last few minutes.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok || id.UserID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	if err := h.auth.DeleteAccount(ctx, id); err != nil {
		writeAuthError(w, r, "DeleteAccount", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(nil))
}
