package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/services"
)

type InviteHandler struct {
	invites *services.InviteService
}

func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// Get reports whether a code can still be redeemed. Unknown, expired and used
// codes all answer 404 with the same message.
func (h *InviteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	h.writeInvite(w, h.invites.ValidateInviteCode(ctx, chi.URLParam(r, "code")))
}

func (h *InviteHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	h.writeInvite(w, h.invites.RedeemInviteCode(ctx, chi.URLParam(r, "code"), userID))
}

type sendInviteRequest struct {
	To          string `json:"to"`
	InviterName string `json:"inviterName"`
}

func (h *InviteHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req sendInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.invites.SendInviteEmail(ctx, userID, req.InviterName, chi.URLParam(r, "code"), req.To))
}

func (h *InviteHandler) writeInvite(w http.ResponseWriter, res models.Result[*models.InviteCode]) {
	if res.Success && res.Data == nil {
		writeJSON(w, http.StatusNotFound, models.APIResponse{
			Error:     "Invite code is invalid or expired",
			ErrorType: models.ErrorNotFound,
		})
		return
	}
	writeResult(w, http.StatusOK, res)
}
