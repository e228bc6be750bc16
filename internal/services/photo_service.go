package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/models"
)

const msgPhotoRejected = "Photo rejected: violates community guidelines"

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AllowedPhotoType reports whether contentType is an accepted profile photo format.
func AllowedPhotoType(contentType string) bool {
	_, ok := photoExtensions[strings.ToLower(contentType)]
	return ok
}

// PhotoService moderates profile photos before they become visible. Uploads land under
// pending/, are rated by SafeSearch and only then copied to their public path.
type PhotoService struct {
	objects    ObjectStore
	classifier ImageClassifier
	profiles   *ProfileService
	flags      *ModerationFlags
}

// NewPhotoService wires the pipeline. flags may be nil, in which case rejections
// are not counted against the uploader.
func NewPhotoService(objects ObjectStore, classifier ImageClassifier, profiles *ProfileService, flags *ModerationFlags) *PhotoService {
	return &PhotoService{objects: objects, classifier: classifier, profiles: profiles, flags: flags}
}

// UploadProfilePhoto stores, moderates and publishes a photo, then writes its download
// URL to both profile documents. The returned Data is that URL.
func (s *PhotoService) UploadProfilePhoto(ctx context.Context, userID, contentType string, r io.Reader) models.Result[string] {
	ext, ok := photoExtensions[strings.ToLower(contentType)]
	if !ok {
		return models.Fail[string](models.ErrorValidation, "Invalid image type. Allowed: JPEG, PNG, GIF, WebP")
	}
	pendingName := path.Join("pending", "profiles", userID, uuid.NewString()+ext)

	if err := s.objects.Put(ctx, pendingName, contentType, r); err != nil {
		logger.FromContext(ctx).Error("Photo upload failed",
			zap.String("user_id", userID), zap.String("object", pendingName), zap.Error(err))
		return models.Fail[string](models.ErrorNetwork, "Failed to upload photo")
	}

	res := s.ModeratePending(ctx, userID, pendingName)
	if res.ErrorType == models.ErrorNetwork {
		s.discard(ctx, pendingName)
	}
	return res
}

// ModeratePending rates an object already under pending/ and publishes it as the
// user's photo when it passes. Rejected objects are deleted; on classifier or storage
// errors the object is left in place so the caller can retry.
func (s *PhotoService) ModeratePending(ctx context.Context, userID, pendingName string) models.Result[string] {
	finalName, ok := strings.CutPrefix(pendingName, "pending/")
	if !ok {
		return models.Fail[string](models.ErrorValidation, "object is not pending moderation")
	}
	log := logger.FromContext(ctx).With(zap.String("user_id", userID), zap.String("object", pendingName))

	gcsURI := fmt.Sprintf("gs://%s/%s", s.objects.Bucket(), pendingName)
	ss, err := s.classifier.DetectSafeSearch(ctx, gcsURI)
	if err != nil {
		log.Error("SafeSearch failed", zap.Error(err))
		return models.Fail[string](models.ErrorNetwork, "Failed to check photo")
	}
	if ss.IsUnsafe() {
		log.Info("Photo rejected by SafeSearch",
			zap.String("adult", ss.Adult), zap.String("violence", ss.Violence), zap.String("racy", ss.Racy))
		s.discard(ctx, pendingName)
		s.strike(ctx, userID)
		return models.Fail[string](models.ErrorValidation, msgPhotoRejected)
	}

	token := uuid.NewString()
	if err := s.objects.Promote(ctx, pendingName, finalName, token); err != nil {
		log.Error("Photo promote failed", zap.Error(err))
		return models.Fail[string](models.ErrorNetwork, "Failed to publish photo")
	}
	photoURL := firebaseDownloadURL(s.objects.Bucket(), finalName, token)

	if res := s.profiles.setPhotoURL(ctx, userID, photoURL); !res.Success {
		return models.Fail[string](res.ErrorType, res.Error)
	}
	return models.Ok(photoURL)
}

// PendingPhotoOwner extracts the user id from pending/profiles/{uid}/{file}.
func PendingPhotoOwner(name string) (string, bool) {
	parts := strings.Split(name, "/")
	if len(parts) != 4 || parts[0] != "pending" || parts[1] != "profiles" || parts[2] == "" || parts[3] == "" {
		return "", false
	}
	return parts[2], true
}

func (s *PhotoService) strike(ctx context.Context, userID string) {
	if s.flags == nil {
		return
	}
	res := s.flags.AddStrike(ctx, userID)
	if !res.Success {
		logger.FromContext(ctx).Warn("Failed to record strike", zap.String("user_id", userID), zap.String("error", res.Error))
		return
	}
	logger.FromContext(ctx).Info("Strike recorded", zap.String("user_id", userID), zap.Int("strikes", res.Data.Strikes))
}

func (s *PhotoService) discard(ctx context.Context, name string) {
	if err := s.objects.Delete(ctx, name); err != nil {
		logger.FromContext(ctx).Warn("Pending photo delete failed", zap.String("object", name), zap.Error(err))
	}
}
