package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/services"
)

// Eventarc delivers CloudEvents; for GCS finalized events the body carries the object.
type gcsFinalizeEvent struct {
	Bucket   string            `json:"bucket"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// cloudEventEnvelope handles structured content mode, where the GCS payload is
// nested under "data".
type cloudEventEnvelope struct {
	Data gcsFinalizeEvent `json:"data"`
}

type pendingModerator interface {
	ModeratePending(ctx context.Context, userID, pendingName string) models.Result[string]
}

type finalizeHandler struct {
	photos  pendingModerator
	bucket  string
	timeout time.Duration
}

func parseFinalizeEvent(body []byte) (gcsFinalizeEvent, error) {
	var ev gcsFinalizeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, err
	}
	if ev.Bucket == "" || ev.Name == "" {
		var envelope cloudEventEnvelope
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data.Name != "" {
			ev = envelope.Data
		}
	}
	return ev, nil
}

// ServeHTTP answers 2xx for everything Eventarc should not redeliver and 500 when
// moderation hit a transient failure.
func (h *finalizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).With(
		zap.String("ce_type", r.Header.Get("Ce-Type")),
		zap.String("ce_subject", r.Header.Get("Ce-Subject")))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ev, err := parseFinalizeEvent(body)
	if err != nil {
		log.Warn("Undecodable storage event", zap.Error(err), zap.Int("bytes", len(body)))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	log = log.With(zap.String("bucket", ev.Bucket), zap.String("object", ev.Name))

	switch {
	case ev.Name == "":
		log.Info("Skipping event without object name")
		w.WriteHeader(http.StatusNoContent)
		return
	case h.bucket != "" && ev.Bucket != h.bucket:
		log.Info("Skipping object from another bucket")
		w.WriteHeader(http.StatusNoContent)
		return
	case !strings.HasPrefix(ev.Name, "pending/"):
		w.WriteHeader(http.StatusNoContent)
		return
	case ev.Metadata["moderation"] == services.ModerationInline:
		log.Debug("Skipping object moderated by the API")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	userID, ok := services.PendingPhotoOwner(ev.Name)
	if !ok {
		log.Warn("Pending object outside profiles/{uid}/; ignoring")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res := h.photos.ModeratePending(ctx, userID, ev.Name)
	switch {
	case res.Success:
		log.Info("Profile photo approved", zap.String("user_id", userID))
		w.WriteHeader(http.StatusOK)
	case res.ErrorType == models.ErrorNetwork:
		log.Error("Moderation failed; Eventarc will retry", zap.String("error", res.Error))
		http.Error(w, "moderation failed", http.StatusInternalServerError)
	default:
		// Rejections and missing profiles are final.
		log.Info("Profile photo not published",
			zap.String("user_id", userID),
			zap.String("error_type", string(res.ErrorType)),
			zap.String("error", res.Error))
		w.WriteHeader(http.StatusOK)
	}
}
