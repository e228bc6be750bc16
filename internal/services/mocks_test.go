package services

import (
	"context"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/mock"

	"github.com/pairup/backend/internal/models"
)

// Mocks
type MockProfileCache struct {
	mock.Mock
}

func (m *MockProfileCache) Get(ctx context.Context, userID string) (*models.PublicUserData, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublicUserData), args.Error(1)
}

func (m *MockProfileCache) Set(ctx context.Context, userID string, p *models.PublicUserData) error {
	args := m.Called(ctx, userID, p)
	return args.Error(0)
}

func (m *MockProfileCache) Invalidate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockInviteMailer struct {
	mock.Mock
}

func (m *MockInviteMailer) SendInviteEmail(ctx context.Context, to, inviterName, link string) error {
	args := m.Called(ctx, to, inviterName, link)
	return args.Error(0)
}

// freezeNow pins the package clock and returns a restore func.
func freezeNow(t time.Time) func() {
	prev := now
	now = func() time.Time { return t }
	return func() { now = prev }
}

type MockAuthAdmin struct {
	mock.Mock
}

func (m *MockAuthAdmin) CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.UserRecord), args.Error(1)
}

func (m *MockAuthAdmin) DeleteUser(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockAuthAdmin) RevokeRefreshTokens(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

type MockPasswordAuth struct {
	mock.Mock
}

func (m *MockPasswordAuth) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SignInResult), args.Error(1)
}

func (m *MockPasswordAuth) SendPasswordResetEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type MockBotVerifier struct {
	mock.Mock
}

func (m *MockBotVerifier) Verify(ctx context.Context, token string, remoteIP string) (bool, string, error) {
	args := m.Called(ctx, token, remoteIP)
	return args.Bool(0), args.String(1), args.Error(2)
}
