package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/store"
)

func birthYearsAgo(n int) time.Time {
	d := time.Now().AddDate(-n, 0, 0)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func privateInput() map[string]any {
	return map[string]any{
		"email":     "ana@example.com",
		"firstName": "Ana",
		"lastName":  "Souza",
		"birthDate": birthYearsAgo(30).Format("2006-01-02"),
		"gender":    "female",
		"funFact":   "juggles",
		"preferences": map[string]any{
			"ageRange": map[string]any{"min": 25, "max": 40},
			"genders":  []any{"male"},
		},
	}
}

func TestProfileService_CreateAndLoadPrivate(t *testing.T) {
	ctx := context.Background()
	s := NewProfileService(store.NewMemoryStore(), nil, nil)

	res := s.CreatePrivateUserData(ctx, "u1", "u1", privateInput())
	require.True(t, res.Success, res.Error)

	loaded := s.LoadPrivateUserData(ctx, "u1")
	require.True(t, loaded.Success, loaded.Error)
	d := loaded.Data
	assert.Equal(t, "ana@example.com", d.Email)
	assert.Equal(t, "Souza", d.LastName)
	assert.Equal(t, models.GenderFemale, d.Gender)
	assert.True(t, d.BirthDate.Equal(birthYearsAgo(30)))
	assert.False(t, d.CreatedAt.IsZero())
	require.NotNil(t, d.Preferences)
	assert.Equal(t, &models.AgeRange{Min: 25, Max: 40}, d.Preferences.AgeRange)
}

func TestProfileService_RoundTripKeepsTimestamps(t *testing.T) {
	ctx := context.Background()
	s := NewProfileService(store.NewMemoryStore(), nil, nil)
	created := time.Date(2024, 3, 1, 9, 30, 15, 123000000, time.UTC)

	in := privateInput()
	in["createdAt"] = created
	require.True(t, s.CreatePrivateUserData(ctx, "u1", "u1", in).Success)

	loaded := s.LoadPrivateUserData(ctx, "u1")
	require.True(t, loaded.Success, loaded.Error)
	assert.True(t, loaded.Data.CreatedAt.Equal(created))
}

func TestProfileService_PermissionGuard(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewProfileService(st, nil, nil)

	res := s.CreatePrivateUserData(ctx, "intruder", "u1", privateInput())
	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorPermission, res.ErrorType)

	res = s.SaveUserUpdates(ctx, "", "u1", map[string]any{"bio": "x"})
	assert.Equal(t, models.ErrorPermission, res.ErrorType)

	_, err := st.Get(ctx, "users/u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfileService_LoadNotFound(t *testing.T) {
	s := NewProfileService(store.NewMemoryStore(), nil, nil)
	res := s.LoadPrivateUserData(context.Background(), "ghost")
	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorNotFound, res.ErrorType)
}

func TestProfileService_LoadInvalidStoredRecord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, "users/u1", map[string]any{
		"email":     "broken",
		"firstName": "A",
		"birthDate": birthYearsAgo(30),
		"gender":    "female",
		"createdAt": time.Now(),
	}, false))

	res := NewProfileService(st, nil, nil).LoadPrivateUserData(ctx, "u1")
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Contains(t, res.Error, "email: must be a valid email address")
	assert.Contains(t, res.Error, "firstName: must be at least 2 characters")
}

func TestProfileService_CreateValidation(t *testing.T) {
	s := NewProfileService(store.NewMemoryStore(), nil, nil)
	in := privateInput()
	in["birthDate"] = birthYearsAgo(16).Format("2006-01-02")
	in["firstName"] = "R2D2"

	res := s.CreatePrivateUserData(context.Background(), "u1", "u1", in)
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Contains(t, res.Error, "birthDate")
	assert.Contains(t, res.Error, "firstName")
}

func TestProfileService_SavePrivateMergesAndKeepsImmutable(t *testing.T) {
	ctx := context.Background()
	s := NewProfileService(store.NewMemoryStore(), nil, nil)
	require.True(t, s.CreatePrivateUserData(ctx, "u1", "u1", privateInput()).Success)

	res := s.SavePrivateUserData(ctx, "u1", "u1", map[string]any{"hobbies": "climbing", "email": "other@example.com"})
	require.True(t, res.Success, res.Error)

	loaded := s.LoadPrivateUserData(ctx, "u1")
	require.True(t, loaded.Success, loaded.Error)
	assert.Equal(t, "climbing", loaded.Data.Hobbies)
	assert.Equal(t, "juggles", loaded.Data.FunFact)
	assert.Equal(t, "ana@example.com", loaded.Data.Email)
}

func TestProfileService_SaveUserUpdatesSplitsDocuments(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewProfileService(st, nil, nil)
	require.True(t, s.CreatePrivateUserData(ctx, "u1", "u1", privateInput()).Success)
	require.True(t, s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{
		"firstName": "Ana", "gender": "female",
	}).Success)

	res := s.SaveUserUpdates(ctx, "u1", "u1", map[string]any{
		"firstName": "Anna",
		"city":      "Lisbon",
		"likes":     "jazz",
		"email":     "changed@example.com",
		"birthDate": birthYearsAgo(41).Format("2006-01-02"),
	})
	require.True(t, res.Success, res.Error)

	priv := s.LoadPrivateUserData(ctx, "u1")
	require.True(t, priv.Success, priv.Error)
	assert.Equal(t, "Anna", priv.Data.FirstName)
	assert.Equal(t, "jazz", priv.Data.Likes)
	assert.Equal(t, "ana@example.com", priv.Data.Email)

	pub := s.LoadPublicUserData(ctx, "u1")
	require.True(t, pub.Success, pub.Error)
	assert.Equal(t, "Anna", pub.Data.FirstName)
	assert.Equal(t, "Lisbon", pub.Data.City)
	assert.Equal(t, 41, pub.Data.Age)

	doc, err := st.Get(ctx, "publicProfiles/u1")
	require.NoError(t, err)
	assert.NotContains(t, doc.Data, "likes")
	assert.NotContains(t, doc.Data, "birthDate")
}

func TestProfileService_SaveUserUpdatesRejectsBothHalves(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewProfileService(st, nil, nil)

	res := s.SaveUserUpdates(ctx, "u1", "u1", map[string]any{
		"firstName": "X",
		"hobbies":   string(make([]byte, 1001)),
	})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Contains(t, res.Error, "hobbies")
	assert.Contains(t, res.Error, "firstName")

	_, err := st.Get(ctx, "users/u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfileService_CreateIsOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewProfileService(st, nil, nil)
	require.True(t, s.CreatePrivateUserData(ctx, "u1", "u1", privateInput()).Success)
	require.True(t, s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{"firstName": "Ana", "gender": "female"}).Success)

	again := privateInput()
	again["email"] = "attacker@evil.example"
	again["createdAt"] = "1999-01-01"
	res := s.CreatePrivateUserData(ctx, "u1", "u1", again)
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Equal(t, "User profile already exists", res.Error)

	res = s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{"firstName": "Ana", "gender": "female", "bio": "new"})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)

	priv := s.LoadPrivateUserData(ctx, "u1")
	require.True(t, priv.Success, priv.Error)
	assert.Equal(t, "ana@example.com", priv.Data.Email)
	assert.NotEqual(t, 1999, priv.Data.CreatedAt.Year())

	pub := s.LoadPublicUserData(ctx, "u1")
	require.True(t, pub.Success, pub.Error)
	assert.Empty(t, pub.Data.Bio)
}

func TestProfileService_CreatePublicDerivesFromPrivate(t *testing.T) {
	ctx := context.Background()
	s := NewProfileService(store.NewMemoryStore(), nil, nil)

	res := s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{"firstName": "Ana", "gender": "female"})
	assert.Equal(t, models.ErrorNotFound, res.ErrorType)

	require.True(t, s.CreatePrivateUserData(ctx, "u1", "u1", privateInput()).Success)

	res = s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{"firstName": "Ana", "gender": "female", "age": 99})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Contains(t, res.Error, "age")

	res = s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{"firstName": "Zed", "gender": "female"})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Contains(t, res.Error, "firstName")

	require.True(t, s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{"city": "Porto"}).Success)
	pub := s.LoadPublicUserData(ctx, "u1")
	require.True(t, pub.Success, pub.Error)
	assert.Equal(t, 30, pub.Data.Age)
	assert.Equal(t, "Ana", pub.Data.FirstName)
	assert.Equal(t, models.GenderFemale, pub.Data.Gender)
	assert.Equal(t, "Porto", pub.Data.City)
}

func TestProfileService_SavePublicKeepsDocumentsInStep(t *testing.T) {
	ctx := context.Background()
	s := NewProfileService(store.NewMemoryStore(), nil, nil)
	require.True(t, s.CreatePrivateUserData(ctx, "u1", "u1", privateInput()).Success)
	require.True(t, s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{"firstName": "Ana", "gender": "female"}).Success)

	res := s.SavePublicUserData(ctx, "u1", "u1", map[string]any{"age": 99, "firstName": "Zed"})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Contains(t, res.Error, "age: is derived from birthDate")

	res = s.SavePublicUserData(ctx, "u1", "u1", map[string]any{"likes": "jazz"})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Contains(t, res.Error, "likes: is not a public profile field")

	require.True(t, s.SavePublicUserData(ctx, "u1", "u1", map[string]any{"firstName": "Zed"}).Success)
	priv := s.LoadPrivateUserData(ctx, "u1")
	require.True(t, priv.Success, priv.Error)
	assert.Equal(t, "Zed", priv.Data.FirstName)
	pub := s.LoadPublicUserData(ctx, "u1")
	require.True(t, pub.Success, pub.Error)
	assert.Equal(t, "Zed", pub.Data.FirstName)
	assert.Equal(t, 30, pub.Data.Age)

	require.True(t, s.SavePrivateUserData(ctx, "u1", "u1", map[string]any{"lastName": "Lima"}).Success)
	pub = s.LoadPublicUserData(ctx, "u1")
	require.True(t, pub.Success, pub.Error)
	assert.Equal(t, "Lima", pub.Data.LastName)
}

func TestProfileService_RejectsUnknownAndServerFields(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewProfileService(st, nil, nil)
	require.True(t, s.CreatePrivateUserData(ctx, "u1", "u1", privateInput()).Success)

	res := s.SaveUserUpdates(ctx, "u1", "u1", map[string]any{"isAdmin": true, "age": 5, "blob": map[string]any{"x": 1}})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Equal(t, "age: is derived from birthDate, blob: is not a profile field, isAdmin: is not a profile field", res.Error)

	res = s.SavePrivateUserData(ctx, "u1", "u1", map[string]any{"photoURL": "https://evil.example/x.jpg"})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)
	assert.Contains(t, res.Error, "photoURL: is set by photo upload")

	in := privateInput()
	in["isAdmin"] = true
	res = s.CreatePrivateUserData(ctx, "u2", "u2", in)
	assert.Equal(t, models.ErrorValidation, res.ErrorType)

	doc, err := st.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.NotContains(t, doc.Data, "isAdmin")
	assert.NotContains(t, doc.Data, "blob")
	assert.NotContains(t, doc.Data, "photoURL")
	_, err = st.Get(ctx, "users/u2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.True(t, s.setPhotoURL(ctx, "u1", "https://cdn.example/u1.jpg").Success)
	priv := s.LoadPrivateUserData(ctx, "u1")
	require.True(t, priv.Success, priv.Error)
	assert.Equal(t, "https://cdn.example/u1.jpg", priv.Data.PhotoURL)
}

func TestProfileService_GetPublicProfileUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := new(MockProfileCache)
	s := NewProfileService(store.NewMemoryStore(), cache, nil)

	cached := &models.PublicUserData{FirstName: "Ana", Gender: models.GenderFemale, Age: 30}
	cache.On("Get", mock.Anything, "u1").Return(cached, nil).Once()

	res := s.GetPublicProfile(ctx, "u1")
	require.True(t, res.Success)
	assert.Same(t, cached, res.Data)
	cache.AssertExpectations(t)
}

func TestProfileService_GetPublicProfileFillsCacheOnMiss(t *testing.T) {
	ctx := context.Background()
	cache := new(MockProfileCache)
	s := NewProfileService(store.NewMemoryStore(), cache, nil)

	cache.On("Invalidate", mock.Anything, "u1").Return(nil)
	require.True(t, s.CreatePrivateUserData(ctx, "u1", "u1", privateInput()).Success)
	require.True(t, s.CreatePublicUserData(ctx, "u1", "u1", map[string]any{
		"firstName": "Ana", "gender": "female",
	}).Success)

	cache.On("Get", mock.Anything, "u1").Return(nil, errors.New("redis down")).Once()
	cache.On("Set", mock.Anything, "u1", mock.AnythingOfType("*models.PublicUserData")).Return(nil).Once()

	res := s.GetPublicProfile(ctx, "u1")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Ana", res.Data.FirstName)
	cache.AssertExpectations(t)
}

func TestProfileService_SaveInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	cache := new(MockProfileCache)
	s := NewProfileService(store.NewMemoryStore(), cache, nil)
	cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()

	require.True(t, s.SaveUserUpdates(ctx, "u1", "u1", map[string]any{"bio": "hello"}).Success)
	cache.AssertExpectations(t)

	// private-only updates leave the public cache alone
	require.True(t, s.SaveUserUpdates(ctx, "u1", "u1", map[string]any{"likes": "tea"}).Success)
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestStoreFailure(t *testing.T) {
	res := storeFailure[models.Empty](errors.New("deadline exceeded"), "missing")
	assert.Equal(t, models.ErrorNetwork, res.ErrorType)
	assert.Equal(t, "deadline exceeded", res.Error)

	res = storeFailure[models.Empty](store.ErrNotFound, "missing")
	assert.Equal(t, models.ErrorNotFound, res.ErrorType)
	assert.Equal(t, "missing", res.Error)

	res = storeFailure[models.Empty](store.ErrPermissionDenied, "missing")
	assert.Equal(t, models.ErrorPermission, res.ErrorType)
}
