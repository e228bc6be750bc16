// Package bootstrap builds the backing clients shared by the API server and the photo worker.
package bootstrap

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/config"
	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/metrics"
	"github.com/pairup/backend/internal/middleware"
	"github.com/pairup/backend/internal/services"
	"github.com/pairup/backend/internal/store"
)

func FirebaseConfig(cfg *config.Config) middleware.FirebaseAuthConfig {
	return middleware.FirebaseAuthConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsJSON: cfg.FirebaseCredentialsJSON,
		StorageBucket:   cfg.FirebaseStorageBucket,
	}
}

// OpenStore connects the configured document store and wraps it with metrics and,
// when enabled, the circuit breaker. app may be nil unless the backend is firestore.
func OpenStore(ctx context.Context, cfg *config.Config, app *firebase.App, m *metrics.Metrics) (store.Store, error) {
	var st store.Store
	switch cfg.StoreBackend {
	case "firestore":
		if app == nil {
			return nil, fmt.Errorf("firestore backend needs a Firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		st = store.NewFirestoreStore(client)
	case "mongo":
		ms, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		st = ms
	case "memory":
		logger.Warn("Using the in-memory store; data is lost on restart")
		st = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	logger.Info("Document store ready",
		zap.String("backend", cfg.StoreBackend),
		zap.Bool("breaker", cfg.StoreBreakerEnabled))
	return store.NewInstrumented(st, m, cfg.StoreBreakerEnabled), nil
}

// PhotoPipeline is the photo service plus the storage client it owns.
type PhotoPipeline struct {
	Service *services.PhotoService
	gcs     *gcs.Client
}

func (p *PhotoPipeline) Close() error {
	return p.gcs.Close()
}

// NewPhotoPipeline returns nil without error when no storage bucket is configured.
func NewPhotoPipeline(ctx context.Context, cfg *config.Config, st store.Store, profiles *services.ProfileService) (*PhotoPipeline, error) {
	if cfg.FirebaseStorageBucket == "" {
		logger.Warn("FIREBASE_STORAGE_BUCKET not set; photo uploads disabled")
		return nil, nil
	}
	opts := FirebaseConfig(cfg).ClientOptions()
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	vision, err := services.NewVisionSafeSearch(ctx, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	objects := services.NewGCSObjects(client, cfg.FirebaseStorageBucket)
	return &PhotoPipeline{
		Service: services.NewPhotoService(objects, vision, profiles, services.NewModerationFlags(st)),
		gcs:     client,
	}, nil
}
