package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
)

// ModerationInline marks objects the API moderates itself; the storage-event worker
// skips them.
const ModerationInline = "inline"

// ObjectStore holds uploaded photos while and after they are moderated.
type ObjectStore interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) error
	// Promote copies from to to, stamps the download token and removes from.
	Promote(ctx context.Context, from, to, token string) error
	Delete(ctx context.Context, name string) error
	Bucket() string
}

// GCSObjects stores photos in the Firebase Storage bucket.
type GCSObjects struct {
	gcs    *storage.Client
	bucket string
}

func NewGCSObjects(client *storage.Client, bucket string) *GCSObjects {
	return &GCSObjects{gcs: client, bucket: bucket}
}

func (g *GCSObjects) Bucket() string { return g.bucket }

func (g *GCSObjects) Put(ctx context.Context, name, contentType string, r io.Reader) error {
	w := g.gcs.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"moderation": ModerationInline}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return w.Close()
}

func (g *GCSObjects) Promote(ctx context.Context, from, to, token string) error {
	b := g.gcs.Bucket(g.bucket)
	src := b.Object(from)
	dst := b.Object(to)

	// A freshly written object can briefly report not-found.
	var attrs *storage.ObjectAttrs
	var err error
	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		attrs, err = src.Attrs(ctx)
		if err == nil {
			break
		}
		if errors.Is(err, storage.ErrObjectNotExist) && attempt < maxRetries-1 {
			backoff := time.Duration(attempt+1) * 500 * time.Millisecond
			logger.FromContext(ctx).Warn("Pending photo not visible yet, retrying",
				zap.String("object", from), zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		return fmt.Errorf("source attrs: %w", err)
	}

	md := map[string]string{}
	for k, v := range attrs.Metadata {
		md[k] = v
	}
	md["moderation"] = "approved"
	md["firebaseStorageDownloadTokens"] = token

	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if _, err := dst.Update(ctx, storage.ObjectAttrsToUpdate{Metadata: md}); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return src.Delete(ctx)
}

func (g *GCSObjects) Delete(ctx context.Context, name string) error {
	err := g.gcs.Bucket(g.bucket).Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func firebaseDownloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket,
		url.PathEscape(objectName),
		url.QueryEscape(token),
	)
}
