package services

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/metrics"
	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/store"
	"github.com/pairup/backend/internal/validation"
)

// RecentLoginWindow bounds how old a sign-in may be for account deletion.
const RecentLoginWindow = 5 * time.Minute

var (
	ErrRecaptchaFailed     = errors.New("recaptcha verification failed")
	ErrRecentLoginRequired = errors.New("requires recent login")
	ErrAuthServiceClosed   = errors.New("auth service closed")

	errPasswordAuthMissing = &IdentityToolkitError{Code: "API_KEY_MISSING"}
)

// AuthAdmin is the subset of *auth.Client the service needs.
type AuthAdmin interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// PasswordAuth signs users in with email and password. *IdentityToolkit implements it.
type PasswordAuth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
}

type AuthDeps struct {
	Admin     AuthAdmin
	Passwords PasswordAuth
	// Bot is optional; without it sign-up skips the bot check.
	Bot       BotVerifier
	Profiles  *ProfileService
	Events    *EventService
	Store     store.Store
	Metrics   *metrics.Metrics
}

// AuthService owns the auth provider clients for the lifetime of the process.
// Create it once at startup and Close it on shutdown.
type AuthService struct {
	admin     AuthAdmin
	passwords PasswordAuth
	bot       BotVerifier
	profiles  *ProfileService
	events    *EventService
	store     store.Store
	metrics   *metrics.Metrics

	closed atomic.Bool
}

func NewAuthService(d AuthDeps) *AuthService {
	return &AuthService{
		admin:     d.Admin,
		passwords: d.Passwords,
		bot:       d.Bot,
		profiles:  d.Profiles,
		events:    d.Events,
		store:     d.Store,
		metrics:   d.Metrics,
	}
}

// Close releases provider connections. Later calls fail with a config error.
func (s *AuthService) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if c, ok := s.passwords.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SignUp creates the auth user and both profile documents. If a profile write fails the
// auth user is deleted again so the email can be reused.
func (s *AuthService) SignUp(ctx context.Context, req *models.SignUpRequest, remoteIP string) (*models.Session, error) {
	if s.closed.Load() {
		return nil, ErrAuthServiceClosed
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	birth, err := validation.ParseBirthDate(req.BirthDate)
	if err != nil {
		return nil, validation.ValidationErrors{err.Error()}
	}
	if _, err := validation.ValidateBirthDate(birth); err != nil {
		return nil, validation.ValidationErrors{err.Error()}
	}

	if s.bot != nil {
		ok, reason, err := s.bot.Verify(ctx, req.RecaptchaToken, remoteIP)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.FromContext(ctx).Info("Sign-up rejected by bot check", zap.String("reason", reason))
			s.metrics.RecordAuth("signup", false)
			return nil, ErrRecaptchaFailed
		}
	}

	displayName := req.FirstName
	if req.LastName != "" {
		displayName += " " + req.LastName
	}
	user, err := s.admin.CreateUser(ctx, (&auth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		DisplayName(displayName))
	if err != nil {
		s.metrics.RecordAuth("signup", false)
		return nil, err
	}
	uid := user.UID

	private := map[string]any{
		"email":     req.Email,
		"firstName": req.FirstName,
		"birthDate": birth,
		"gender":    string(req.Gender),
		"createdAt": now(),
	}
	public := map[string]any{
		"firstName": req.FirstName,
		"gender":    string(req.Gender),
	}
	if req.LastName != "" {
		private["lastName"] = req.LastName
		public["lastName"] = req.LastName
	}

	if err := s.createProfiles(ctx, uid, private, public); err != nil {
		s.rollbackSignUp(ctx, uid)
		s.metrics.RecordAuth("signup", false)
		return nil, err
	}
	s.metrics.RecordAuth("signup", true)

	session := &models.Session{UserID: uid, Email: req.Email}
	if s.passwords != nil {
		signedIn, err := s.passwords.SignInWithPassword(ctx, req.Email, req.Password)
		if err != nil {
			// The account exists; the client can sign in on its own.
			logger.FromContext(ctx).Warn("Sign-in after sign-up failed", zap.String("user_id", uid), zap.Error(err))
			return session, nil
		}
		session = toSession(signedIn)
	}
	return session, nil
}

func (s *AuthService) createProfiles(ctx context.Context, uid string, private, public map[string]any) error {
	if res := s.profiles.CreatePrivateUserData(ctx, uid, uid, private); !res.Success {
		return resultError(res.ErrorType, res.Error)
	}
	if res := s.profiles.CreatePublicUserData(ctx, uid, uid, public); !res.Success {
		return resultError(res.ErrorType, res.Error)
	}
	return nil
}

func (s *AuthService) rollbackSignUp(ctx context.Context, uid string) {
	if err := s.profiles.DeleteProfiles(ctx, uid); err != nil {
		logger.FromContext(ctx).Error("Sign-up rollback: profile cleanup failed", zap.String("user_id", uid), zap.Error(err))
	}
	if err := s.admin.DeleteUser(ctx, uid); err != nil {
		logger.FromContext(ctx).Error("Sign-up rollback: auth user delete failed", zap.String("user_id", uid), zap.Error(err))
	}
}

func (s *AuthService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.Session, error) {
	if s.closed.Load() {
		return nil, ErrAuthServiceClosed
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	if s.passwords == nil {
		return nil, errPasswordAuthMissing
	}
	res, err := s.passwords.SignInWithPassword(ctx, req.Email, req.Password)
	s.metrics.RecordAuth("signin", err == nil)
	if err != nil {
		return nil, err
	}
	return toSession(res), nil
}

func (s *AuthService) SendPasswordReset(ctx context.Context, email string) error {
	if s.closed.Load() {
		return ErrAuthServiceClosed
	}
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	if s.passwords == nil {
		return errPasswordAuthMissing
	}
	return s.passwords.SendPasswordResetEmail(ctx, email)
}

// SignOut revokes every refresh token of the user, ending sessions on all devices.
func (s *AuthService) SignOut(ctx context.Context, uid string) error {
	if s.closed.Load() {
		return ErrAuthServiceClosed
	}
	return s.admin.RevokeRefreshTokens(ctx, uid)
}

// DeleteAccount removes the user's events, chat history, invite codes and profiles,
// then the auth user. The caller must have signed in within RecentLoginWindow.
func (s *AuthService) DeleteAccount(ctx context.Context, id models.Identity) error {
	if s.closed.Load() {
		return ErrAuthServiceClosed
	}
	if id.AuthTime.IsZero() || now().Sub(id.AuthTime) > RecentLoginWindow {
		return ErrRecentLoginRequired
	}

	uid := id.UserID
	if err := s.events.deleteAll(ctx, uid); err != nil {
		return err
	}
	invites, err := s.store.Query(ctx, "inviteCodes", store.Query{
		Where: []store.Filter{{Field: "creatorId", Value: uid}},
	})
	if err != nil {
		return err
	}
	for _, inv := range invites {
		if err := s.store.Delete(ctx, inv.Path); err != nil {
			return err
		}
	}
	if err := s.profiles.DeleteProfiles(ctx, uid); err != nil {
		return err
	}
	if err := s.admin.DeleteUser(ctx, uid); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Account deleted", zap.String("user_id", uid))
	return nil
}

func toSession(r *SignInResult) *models.Session {
	return &models.Session{
		UserID:       r.UserID,
		Email:        r.Email,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
	}
}

func resultError(t models.ErrorType, msg string) error {
	switch t {
	case models.ErrorValidation:
		return validation.ValidationErrors{msg}
	case models.ErrorNetwork:
		return &AuthError{Category: AuthErrorNetwork, Code: "network-request-failed", Message: msg, Retryable: true}
	}
	return errors.New(msg)
}

type AuthErrorCategory string

const (
	AuthErrorNetwork AuthErrorCategory = "network"
	AuthErrorAuth    AuthErrorCategory = "auth"
	AuthErrorConfig  AuthErrorCategory = "config"
	AuthErrorUnknown AuthErrorCategory = "unknown"
)

// AuthError is a provider failure phrased for the user.
type AuthError struct {
	Category  AuthErrorCategory `json:"category"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
}

func (e *AuthError) Error() string { return e.Message }

const (
	msgInvalidCredentials = "Invalid email or password."
	msgNetwork            = "Network error. Check your connection and try again."
	msgConfig             = "Sign-in is temporarily unavailable. Please contact support."
	msgUnknown            = "Something went wrong. Please try again."
)

var toolkitErrors = map[string]*AuthError{
	"EMAIL_NOT_FOUND":             {AuthErrorAuth, "user-not-found", msgInvalidCredentials, false},
	"INVALID_PASSWORD":            {AuthErrorAuth, "wrong-password", msgInvalidCredentials, false},
	"INVALID_LOGIN_CREDENTIALS":   {AuthErrorAuth, "invalid-credential", msgInvalidCredentials, false},
	"USER_DISABLED":               {AuthErrorAuth, "user-disabled", "This account has been disabled.", false},
	"EMAIL_EXISTS":                {AuthErrorAuth, "email-already-in-use", "An account with this email already exists.", false},
	"INVALID_EMAIL":               {AuthErrorAuth, "invalid-email", "Please enter a valid email address.", false},
	"WEAK_PASSWORD":               {AuthErrorAuth, "weak-password", "Password must be at least 6 characters.", false},
	"TOO_MANY_ATTEMPTS_TRY_LATER": {AuthErrorAuth, "too-many-requests", "Too many attempts. Please wait a moment and try again.", true},
	"OPERATION_NOT_ALLOWED":       {AuthErrorConfig, "operation-not-allowed", msgConfig, false},
	"CONFIGURATION_NOT_FOUND":     {AuthErrorConfig, "configuration-not-found", msgConfig, false},
	"API_KEY_MISSING":             {AuthErrorConfig, "invalid-api-key", msgConfig, false},
	"INVALID_API_KEY":             {AuthErrorConfig, "invalid-api-key", msgConfig, false},
}

// TranslateAuthError maps any auth-path error onto the four user-facing categories.
func TranslateAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return &AuthError{Category: AuthErrorAuth, Code: "invalid-argument", Message: verrs.Error()}
	}
	var toolkitErr *IdentityToolkitError
	if errors.As(err, &toolkitErr) {
		if known, ok := toolkitErrors[toolkitErr.Code]; ok {
			out := *known
			return &out
		}
		if toolkitErr.Status >= 500 {
			return &AuthError{Category: AuthErrorNetwork, Code: "network-request-failed", Message: msgNetwork, Retryable: true}
		}
		return &AuthError{Category: AuthErrorUnknown, Code: toolkitErr.Code, Message: msgUnknown, Retryable: true}
	}

	switch {
	case errors.Is(err, ErrRecaptchaFailed):
		return &AuthError{Category: AuthErrorAuth, Code: "captcha-check-failed", Message: "Please complete the bot check and try again.", Retryable: true}
	case errors.Is(err, ErrRecentLoginRequired):
		return &AuthError{Category: AuthErrorAuth, Code: "requires-recent-login", Message: "Please sign in again before deleting your account."}
	case errors.Is(err, ErrAuthServiceClosed):
		return &AuthError{Category: AuthErrorConfig, Code: "service-closed", Message: msgConfig}
	case auth.IsEmailAlreadyExists(err):
		return &AuthError{Category: AuthErrorAuth, Code: "email-already-in-use", Message: "An account with this email already exists."}
	case auth.IsUserNotFound(err):
		return &AuthError{Category: AuthErrorAuth, Code: "user-not-found", Message: msgInvalidCredentials}
	case auth.IsConfigurationNotFound(err):
		return &AuthError{Category: AuthErrorConfig, Code: "configuration-not-found", Message: msgConfig}
	case errorutils.IsInvalidArgument(err):
		return &AuthError{Category: AuthErrorAuth, Code: "invalid-argument", Message: "Please check your details and try again."}
	case errorutils.IsPermissionDenied(err), errorutils.IsUnauthenticated(err):
		return &AuthError{Category: AuthErrorConfig, Code: "permission-denied", Message: msgConfig}
	case errorutils.IsUnavailable(err), errorutils.IsDeadlineExceeded(err), isNetworkError(err):
		return &AuthError{Category: AuthErrorNetwork, Code: "network-request-failed", Message: msgNetwork, Retryable: true}
	}
	return &AuthError{Category: AuthErrorUnknown, Code: "unknown", Message: msgUnknown, Retryable: true}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
