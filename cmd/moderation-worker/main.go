package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/bootstrap"
	"github.com/pairup/backend/internal/config"
	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/metrics"
	appMiddleware "github.com/pairup/backend/internal/middleware"
	"github.com/pairup/backend/internal/services"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		logger.InitDefault()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New("pairup-moderation-worker", reg)

	var app *firebase.App
	if cfg.StoreBackend == "firestore" {
		a, err := appMiddleware.NewFirebaseApp(ctx, bootstrap.FirebaseConfig(cfg))
		if err != nil {
			logger.Fatal("Firebase init failed", zap.Error(err))
		}
		app = a
	}

	st, err := bootstrap.OpenStore(ctx, cfg, app, m)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer st.Close()

	profiles := services.NewProfileService(st, nil, m)
	photos, err := bootstrap.NewPhotoPipeline(ctx, cfg, st, profiles)
	if err != nil {
		logger.Fatal("Photo pipeline init failed", zap.Error(err))
	}
	if photos == nil {
		logger.Fatal("FIREBASE_STORAGE_BUCKET is required by the moderation worker")
	}
	defer photos.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger)
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Prometheus(m))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Method(http.MethodPost, "/events", &finalizeHandler{
		photos:  photos.Service,
		bucket:  cfg.FirebaseStorageBucket,
		timeout: 60 * time.Second,
	})

	server := &http.Server{Addr: cfg.ServerAddress, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("Moderation worker listening", zap.String("addr", cfg.ServerAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Worker server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Worker shutdown failed", zap.Error(err))
	}
}
