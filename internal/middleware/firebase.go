package middleware

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/pairup/backend/internal/logger"
)

type FirebaseAuthConfig struct {
	ProjectID string
	// CredentialsJSON is the service account key. Empty means Application Default Credentials.
	CredentialsJSON string
	StorageBucket   string
}

// ClientOptions are shared by every Google client the server builds.
func (c FirebaseAuthConfig) ClientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if strings.TrimSpace(c.CredentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(c.CredentialsJSON)))
	}
	return opts
}

func NewFirebaseApp(ctx context.Context, cfg FirebaseAuthConfig) (*firebase.App, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, cfg.ClientOptions()...)
	if err != nil {
		logger.Error("Failed to initialize Firebase app",
			zap.Error(err),
			zap.String("project_id", cfg.ProjectID))
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// NewFirebaseAuthClient is the client used both for ID-token verification and user admin.
func NewFirebaseAuthClient(ctx context.Context, app *firebase.App) (*auth.Client, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return client, nil
}
