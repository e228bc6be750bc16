package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/services"
	"github.com/pairup/backend/internal/validation"
)

type EventHandler struct {
	events  *services.EventService
	invites *services.InviteService
}

func NewEventHandler(events *services.EventService, invites *services.InviteService) *EventHandler {
	return &EventHandler{events: events, invites: invites}
}

func (h *EventHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	res := h.events.CreateDraftEvent(ctx, userID)
	if !res.Success {
		writeResult(w, http.StatusCreated, res)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(map[string]string{"id": res.Data}))
}

// GetDraft returns the oldest open draft; 404 when there is none.
func (h *EventHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.events.LoadDraftEvent(ctx, userID))
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.events.LoadAllEvents(ctx, userID))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var upd models.DraftEventUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.events.UpdateDraftEvent(ctx, userID, chi.URLParam(r, "eventId"), upd))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.events.DeleteDraftEvent(ctx, userID, chi.URLParam(r, "eventId")))
}

// ApplyPreview copies an assistant-proposed event onto the draft. Incomplete
// previews are rejected before anything is written.
func (h *EventHandler) ApplyPreview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var preview models.EventPreview
	if !decodeJSON(w, r, &preview) {
		return
	}
	if !validation.ValidateEventData(&preview) {
		writeJSON(w, http.StatusBadRequest, models.APIResponse{
			Error:     "Event preview needs a title, an activity and well-formed date and time",
			ErrorType: models.ErrorValidation,
		})
		return
	}
	upd, err := services.MapEventPreviewToDraft(&preview)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.APIResponse{Error: err.Error(), ErrorType: models.ErrorValidation})
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.events.UpdateDraftEvent(ctx, userID, chi.URLParam(r, "eventId"), upd))
}

func (h *EventHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusOK, h.events.LoadChatHistory(ctx, userID, chi.URLParam(r, "eventId")))
}

func (h *EventHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var msg models.ChatMessage
	if !decodeJSON(w, r, &msg) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	res := h.events.SaveChatMessage(ctx, userID, chi.URLParam(r, "eventId"), &msg)
	if !res.Success {
		writeResult(w, http.StatusCreated, res)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(map[string]string{"id": res.Data}))
}

type createInviteRequest struct {
	Length        int `json:"length,omitempty"`
	ExpiresInDays int `json:"expiresInDays,omitempty"`
}

func (h *EventHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req createInviteRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	if req.Length != 0 && (req.Length < 6 || req.Length > 32) {
		writeJSON(w, http.StatusBadRequest, models.APIResponse{Error: "length must be between 6 and 32", ErrorType: models.ErrorValidation})
		return
	}
	opts := services.InviteOptions{
		Length:    req.Length,
		ExpiresIn: time.Duration(req.ExpiresInDays) * 24 * time.Hour,
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	writeResult(w, http.StatusCreated, h.invites.GenerateInviteCode(ctx, userID, chi.URLParam(r, "eventId"), opts))
}
