package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/models"
)

// RequestLogger logs one line per request and carries chi's request id into the
// context so logger.FromContext tags every entry. Mount it after chimw.RequestID.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimw.GetReqID(r.Context())
		ctx := logger.WithRequestID(r.Context(), requestID)
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_ip", r.RemoteAddr),
		}
		if uid := GetUserID(ctx); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}

		log := logger.FromContext(ctx)
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	})
}

// Recovery turns a handler panic into a 500 and logs the stack.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context()).Error("Panic in handler",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
