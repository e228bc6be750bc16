package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pairup/backend/internal/middleware"
	"github.com/pairup/backend/internal/models"
)

const requestTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func contextWithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, requestTimeout)
}

// statusFor maps a failed Result onto an HTTP status.
func statusFor(t models.ErrorType) int {
	switch t {
	case models.ErrorNotFound:
		return http.StatusNotFound
	case models.ErrorValidation:
		return http.StatusBadRequest
	case models.ErrorPermission:
		return http.StatusForbidden
	case models.ErrorNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeResult[T any](w http.ResponseWriter, okStatus int, res models.Result[T]) {
	if !res.Success {
		writeJSON(w, statusFor(res.ErrorType), models.APIResponse{
			Success:   false,
			Error:     res.Error,
			ErrorType: res.ErrorType,
		})
		return
	}
	writeJSON(w, okStatus, models.NewSuccessResponse(res.Data))
}

// requireUser writes 401 and returns false when the route was reached without an identity.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return false
	}
	return true
}
