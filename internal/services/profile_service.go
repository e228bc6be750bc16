package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/metrics"
	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/store"
	"github.com/pairup/backend/internal/validation"
)

var now = time.Now

// ProfileCache is a read-through cache for public profiles. A miss is (nil, nil).
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*models.PublicUserData, error)
	Set(ctx context.Context, userID string, p *models.PublicUserData) error
	Invalidate(ctx context.Context, userID string) error
}

// ProfileService reads and writes the two profile documents of a user:
// users/{id} (private) and publicProfiles/{id} (public).
type ProfileService struct {
	store   store.Store
	cache   ProfileCache
	metrics *metrics.Metrics
}

// NewProfileService builds the service. cache may be nil.
func NewProfileService(st store.Store, cache ProfileCache, m *metrics.Metrics) *ProfileService {
	return &ProfileService{store: st, cache: cache, metrics: m}
}

func privatePath(userID string) string { return store.Path("users", userID) }
func publicPath(userID string) string  { return store.Path("publicProfiles", userID) }

func (s *ProfileService) LoadPrivateUserData(ctx context.Context, userID string) models.Result[*models.PrivateUserData] {
	doc, err := s.store.Get(ctx, privatePath(userID))
	if err != nil {
		return storeFailure[*models.PrivateUserData](err, "User profile not found")
	}
	var d models.PrivateUserData
	if err := doc.DataTo(&d); err != nil {
		return models.Fail[*models.PrivateUserData](models.ErrorValidation, err.Error())
	}
	if err := validation.ValidatePrivateData(&d); err != nil {
		return models.Fail[*models.PrivateUserData](models.ErrorValidation, err.Error())
	}
	return models.Ok(&d)
}

func (s *ProfileService) LoadPublicUserData(ctx context.Context, userID string) models.Result[*models.PublicUserData] {
	doc, err := s.store.Get(ctx, publicPath(userID))
	if err != nil {
		return storeFailure[*models.PublicUserData](err, "Public profile not found")
	}
	var d models.PublicUserData
	if err := doc.DataTo(&d); err != nil {
		return models.Fail[*models.PublicUserData](models.ErrorValidation, err.Error())
	}
	if err := validation.ValidatePublicData(&d); err != nil {
		return models.Fail[*models.PublicUserData](models.ErrorValidation, err.Error())
	}
	return models.Ok(&d)
}

// CreatePrivateUserData writes the private document once, at registration. createdAt
// defaults to now. A second create fails and leaves the stored document alone.
func (s *ProfileService) CreatePrivateUserData(ctx context.Context, callerID, userID string, data map[string]any) models.Result[models.Empty] {
	if r, denied := guardOwner(callerID, userID, "create"); denied {
		return r
	}
	if err := checkClientKeys(data, false); err != nil {
		return models.Fail[models.Empty](models.ErrorValidation, err.Error())
	}
	patch, err := validation.PreparePrivatePatch(data)
	if err != nil {
		return models.Fail[models.Empty](models.ErrorValidation, err.Error())
	}
	if _, ok := patch["createdAt"]; !ok {
		patch["createdAt"] = now()
	}
	if err := s.store.Create(ctx, privatePath(userID), patch); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return models.Fail[models.Empty](models.ErrorValidation, "User profile already exists")
		}
		return storeFailure[models.Empty](err, "User profile not found")
	}
	return models.Ok(models.Empty{})
}

// CreatePublicUserData writes the public document once. The private document must
// exist: age is derived from its birthDate, and overlapping fields must agree with it.
func (s *ProfileService) CreatePublicUserData(ctx context.Context, callerID, userID string, data map[string]any) models.Result[models.Empty] {
	if r, denied := guardOwner(callerID, userID, "create"); denied {
		return r
	}
	if err := checkClientKeys(data, true); err != nil {
		return models.Fail[models.Empty](models.ErrorValidation, err.Error())
	}
	doc, err := s.store.Get(ctx, privatePath(userID))
	if err != nil {
		return storeFailure[models.Empty](err, "Create the private profile first")
	}
	birth, ok := doc.Data["birthDate"].(time.Time)
	if !ok {
		return models.Fail[models.Empty](models.ErrorValidation, "birthDate: is required")
	}

	fields := make(map[string]any, len(data)+1)
	var errs validation.ValidationErrors
	for k, v := range data {
		if stored, ok := doc.Data[k]; ok && v != nil && fmt.Sprint(stored) != fmt.Sprint(v) {
			errs = append(errs, k+": must match the private profile")
			continue
		}
		fields[k] = v
	}
	for k, route := range FieldRoutes {
		if stored, ok := doc.Data[k]; ok && route.Visibility == Public {
			fields[k] = stored
		}
	}
	if len(errs) > 0 {
		return models.Fail[models.Empty](models.ErrorValidation, errs.Error())
	}
	fields["age"] = validation.CalculateAge(birth)

	patch, err := validation.PreparePublicPatch(fields)
	if err != nil {
		return models.Fail[models.Empty](models.ErrorValidation, err.Error())
	}
	if err := s.store.Create(ctx, publicPath(userID), patch); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return models.Fail[models.Empty](models.ErrorValidation, "Public profile already exists")
		}
		return storeFailure[models.Empty](err, "Public profile not found")
	}
	s.invalidate(ctx, userID)
	return models.Ok(models.Empty{})
}

// SavePrivateUserData merges updates into the private document. Immutable fields are
// dropped; public fields are mirrored so both documents stay in step.
func (s *ProfileService) SavePrivateUserData(ctx context.Context, callerID, userID string, updates map[string]any) models.Result[models.Empty] {
	return s.SaveUserUpdates(ctx, callerID, userID, updates)
}

// SavePublicUserData accepts public fields only and writes them to both documents.
func (s *ProfileService) SavePublicUserData(ctx context.Context, callerID, userID string, updates map[string]any) models.Result[models.Empty] {
	if r, denied := guardOwner(callerID, userID, "update"); denied {
		return r
	}
	if err := checkClientKeys(updates, true); err != nil {
		return models.Fail[models.Empty](models.ErrorValidation, err.Error())
	}
	return s.applyUpdates(ctx, userID, updates)
}

// SaveUserUpdates applies one flat profile update to both documents. When birthDate
// changes, the public age is recomputed in the same call.
func (s *ProfileService) SaveUserUpdates(ctx context.Context, callerID, userID string, updates map[string]any) models.Result[models.Empty] {
	if r, denied := guardOwner(callerID, userID, "update"); denied {
		return r
	}
	if err := checkClientKeys(updates, false); err != nil {
		return models.Fail[models.Empty](models.ErrorValidation, err.Error())
	}
	return s.applyUpdates(ctx, userID, updates)
}

// setPhotoURL publishes an approved photo on both documents.
func (s *ProfileService) setPhotoURL(ctx context.Context, userID, photoURL string) models.Result[models.Empty] {
	return s.applyUpdates(ctx, userID, map[string]any{"photoURL": photoURL})
}

func (s *ProfileService) applyUpdates(ctx context.Context, userID string, updates map[string]any) models.Result[models.Empty] {
	private, public := SplitUserUpdates(updates)

	var errs validation.ValidationErrors
	privatePatch, err := validation.PreparePrivatePatch(private)
	if err != nil {
		errs = appendValidation(errs, err)
	}
	if birth, ok := privatePatch["birthDate"].(time.Time); ok {
		public["age"] = validation.CalculateAge(birth)
	}
	publicPatch, err := validation.PreparePublicPatch(public)
	if err != nil {
		errs = appendValidation(errs, err)
	}
	if len(errs) > 0 {
		return models.Fail[models.Empty](models.ErrorValidation, errs.Error())
	}

	if len(privatePatch) > 0 {
		if err := s.store.Set(ctx, privatePath(userID), privatePatch, true); err != nil {
			return storeFailure[models.Empty](err, "User profile not found")
		}
	}
	if len(publicPatch) > 0 {
		if err := s.store.Set(ctx, publicPath(userID), publicPatch, true); err != nil {
			return storeFailure[models.Empty](err, "Public profile not found")
		}
		s.invalidate(ctx, userID)
	}
	return models.Ok(models.Empty{})
}

// GetPublicProfile is the view other users get. Cache failures fall back to the store.
func (s *ProfileService) GetPublicProfile(ctx context.Context, userID string) models.Result[*models.PublicUserData] {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			logger.FromContext(ctx).Warn("Public profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		s.metrics.RecordCacheLookup(cached != nil)
		if cached != nil {
			return models.Ok(cached)
		}
	}

	res := s.LoadPublicUserData(ctx, userID)
	if res.Success && s.cache != nil {
		if err := s.cache.Set(ctx, userID, res.Data); err != nil {
			logger.FromContext(ctx).Warn("Public profile cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return res
}

// DeleteProfiles removes both profile documents. Used by account deletion only.
func (s *ProfileService) DeleteProfiles(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, publicPath(userID)); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return s.store.Delete(ctx, privatePath(userID))
}

func (s *ProfileService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.FromContext(ctx).Warn("Public profile cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func guardOwner(callerID, userID, action string) (models.Result[models.Empty], bool) {
	if callerID == "" || callerID != userID {
		return models.Fail[models.Empty](models.ErrorPermission, "You can only "+action+" your own profile"), true
	}
	return models.Result[models.Empty]{}, false
}

func appendValidation(errs validation.ValidationErrors, err error) validation.ValidationErrors {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return append(errs, verrs...)
	}
	return append(errs, err.Error())
}

// storeFailure translates a store error into the result taxonomy.
func storeFailure[T any](err error, notFoundMsg string) models.Result[T] {
	switch {
	case errors.Is(err, store.ErrPermissionDenied):
		return models.Fail[T](models.ErrorPermission, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return models.Fail[T](models.ErrorNotFound, notFoundMsg)
	case errors.Is(err, store.ErrInvalidPath):
		return models.Fail[T](models.ErrorValidation, err.Error())
	}
	return models.Fail[T](models.ErrorNetwork, err.Error())
}
