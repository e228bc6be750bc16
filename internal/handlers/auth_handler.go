package handlers

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	session, err := h.auth.SignUp(ctx, &req, clientIP(r))
	if err != nil {
		writeAuthError(w, r, "SignUp", err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(session))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	session, err := h.auth.SignIn(ctx, &req)
	if err != nil {
		writeAuthError(w, r, "SignIn", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(session))
}

// PasswordReset always answers 200 for unknown emails so the endpoint can't be used
// to probe which addresses have accounts.
func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	err := h.auth.SendPasswordReset(ctx, req.Email)
	if err != nil && services.TranslateAuthError(err).Code != "user-not-found" {
		writeAuthError(w, r, "PasswordReset", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(nil))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	if err := h.auth.SignOut(ctx, userID); err != nil {
		writeAuthError(w, r, "SignOut", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(nil))
}

func authStatus(ae *services.AuthError) int {
	switch ae.Category {
	case services.AuthErrorAuth:
		switch ae.Code {
		case "user-not-found", "wrong-password", "invalid-credential", "user-disabled", "requires-recent-login":
			return http.StatusUnauthorized
		case "email-already-in-use":
			return http.StatusConflict
		case "too-many-requests":
			return http.StatusTooManyRequests
		}
		return http.StatusBadRequest
	case services.AuthErrorNetwork:
		return http.StatusBadGateway
	case services.AuthErrorConfig:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeAuthError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ae := services.TranslateAuthError(err)
	status := authStatus(ae)
	if status >= 500 {
		logger.FromContext(r.Context()).Error("Auth request failed",
			zap.String("op", op), zap.String("code", ae.Code), zap.Error(err))
	}
	writeJSON(w, status, models.APIResponse{
		Success: false,
		Error:   ae.Message,
		Errors:  ae,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
