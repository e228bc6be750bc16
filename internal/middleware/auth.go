package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuth verifies the bearer ID token and stores the caller's Identity in the context.
func FirebaseAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Authentication is not configured"))
				return
			}
			tokenString, ok := bearerToken(w, r)
			if !ok {
				return
			}

			tok, err := verifier.VerifyIDToken(r.Context(), tokenString)
			if err != nil {
				logger.FromContext(r.Context()).Info("ID token rejected", zap.Error(err))
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			email, _ := tok.Claims["email"].(string)
			id := models.Identity{UserID: tok.UID, Email: email}
			if tok.AuthTime > 0 {
				id.AuthTime = time.Unix(tok.AuthTime, 0).UTC()
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// JWTAuth accepts HS256 tokens signed with jwtSecret. It is used for local runs
// without a Firebase project.
func JWTAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(w, r)
			if !ok {
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid token claims"))
				return
			}

			userID, _ := claims["user_id"].(string)
			if userID == "" {
				userID, _ = claims.GetSubject()
			}
			if userID == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid user ID in token"))
				return
			}

			id := models.Identity{UserID: userID}
			id.Email, _ = claims["email"].(string)
			if at, ok := claims["auth_time"].(float64); ok {
				id.AuthTime = time.Unix(int64(at), 0).UTC()
			} else if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
				id.AuthTime = iat.UTC()
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
		return "", false
	}
	return parts[1], true
}

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the verified caller, or ok=false on unauthenticated routes.
func GetIdentity(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	id, _ := GetIdentity(ctx)
	return id.UserID
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
