package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pairup/backend/internal/metrics"
	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/store"
	"github.com/pairup/backend/internal/validation"
)

const (
	DefaultInviteCodeLength = 10
	DefaultInviteTTL        = 30 * 24 * time.Hour

	// 64 symbols, so a random byte masked to 6 bits maps uniformly.
	inviteAlphabet        = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	maxInviteCodeAttempts = 5
)

// InviteOptions overrides the service defaults for one code. Zero values keep the defaults.
type InviteOptions struct {
	Length    int
	ExpiresIn time.Duration
}

type InviteService struct {
	store   store.Store
	mailer  InviteMailer
	metrics *metrics.Metrics

	codeLength int
	ttl        time.Duration
	baseURL    string
}

type InviteServiceConfig struct {
	CodeLength int
	TTL        time.Duration
	// AppBaseURL prefixes emailed links: {AppBaseURL}/invite/{code}.
	AppBaseURL string
}

func NewInviteService(st store.Store, mailer InviteMailer, m *metrics.Metrics, cfg InviteServiceConfig) *InviteService {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultInviteCodeLength
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultInviteTTL
	}
	return &InviteService{
		store:      st,
		mailer:     mailer,
		metrics:    m,
		codeLength: cfg.CodeLength,
		ttl:        cfg.TTL,
		baseURL:    strings.TrimRight(cfg.AppBaseURL, "/"),
	}
}

func invitePath(code string) string { return store.Path("inviteCodes", code) }

// GenerateInviteCode issues a fresh code for one of the creator's events. A generated
// code that already exists is replaced by a new one, up to five attempts.
func (s *InviteService) GenerateInviteCode(ctx context.Context, creatorID, eventID string, opts InviteOptions) models.Result[*models.InviteCode] {
	if _, err := s.store.Get(ctx, eventPath(creatorID, eventID)); err != nil {
		return storeFailure[*models.InviteCode](err, "Event not found")
	}

	length := opts.Length
	if length <= 0 {
		length = s.codeLength
	}
	ttl := opts.ExpiresIn
	if ttl <= 0 {
		ttl = s.ttl
	}

	created := now()
	invite := &models.InviteCode{
		EventID:   eventID,
		CreatorID: creatorID,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	}

	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code, err := newInviteCode(length)
		if err != nil {
			return models.Fail[*models.InviteCode](models.ErrorNetwork, err.Error())
		}
		err = s.store.Create(ctx, invitePath(code), map[string]any{
			"eventId":   invite.EventID,
			"creatorId": invite.CreatorID,
			"createdAt": invite.CreatedAt,
			"expiresAt": invite.ExpiresAt,
			"isUsed":    false,
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			s.metrics.RecordInvite("generate", false)
			return storeFailure[*models.InviteCode](err, "Invite code not found")
		}
		invite.Code = code
		s.metrics.RecordInvite("generate", true)
		return models.Ok(invite)
	}
	s.metrics.RecordInvite("generate", false)
	return models.Fail[*models.InviteCode](models.ErrorNetwork, "could not allocate a unique invite code")
}

// ValidateInviteCode returns the invite when it exists, has not expired and is unused.
// Any failing check yields a successful result with nil data.
func (s *InviteService) ValidateInviteCode(ctx context.Context, code string) models.Result[*models.InviteCode] {
	invite, err := s.load(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return models.Ok[*models.InviteCode](nil)
	}
	if err != nil {
		return storeFailure[*models.InviteCode](err, "Invite code not found")
	}
	if !isRedeemable(invite, now()) {
		return models.Ok[*models.InviteCode](nil)
	}
	return models.Ok(invite)
}

// MarkInviteCodeUsed flips isUsed only if it is still false.
func (s *InviteService) MarkInviteCodeUsed(ctx context.Context, code, userID string) models.Result[models.Empty] {
	err := s.store.UpdateIf(ctx, invitePath(code),
		[]store.Filter{{Field: "isUsed", Value: false}},
		map[string]any{"isUsed": true, "usedBy": userID, "usedAt": now()},
	)
	if errors.Is(err, store.ErrConditionFailed) {
		return models.Fail[models.Empty](models.ErrorValidation, "Invite code has already been used")
	}
	if err != nil {
		return storeFailure[models.Empty](err, "Invite code not found")
	}
	return models.Ok(models.Empty{})
}

// RedeemInviteCode validates and consumes a code. Of two concurrent redemptions only
// one gets the invite back; the other gets nil like any invalid code.
func (s *InviteService) RedeemInviteCode(ctx context.Context, code, userID string) models.Result[*models.InviteCode] {
	valid := s.ValidateInviteCode(ctx, code)
	if !valid.Success || valid.Data == nil {
		s.metrics.RecordInvite("redeem", false)
		return valid
	}

	marked := s.MarkInviteCodeUsed(ctx, code, userID)
	if !marked.Success {
		s.metrics.RecordInvite("redeem", false)
		if marked.ErrorType == models.ErrorValidation || marked.ErrorType == models.ErrorNotFound {
			return models.Ok[*models.InviteCode](nil)
		}
		return models.Fail[*models.InviteCode](marked.ErrorType, marked.Error)
	}

	invite := valid.Data
	usedAt := now()
	invite.IsUsed = true
	invite.UsedBy = userID
	invite.UsedAt = &usedAt
	s.metrics.RecordInvite("redeem", true)
	return models.Ok(invite)
}

// SendInviteEmail mails the invite link. Only the code's creator may send it.
func (s *InviteService) SendInviteEmail(ctx context.Context, callerID, inviterName, code, to string) models.Result[models.Empty] {
	if err := validation.ValidateEmail(to); err != nil {
		return models.Fail[models.Empty](models.ErrorValidation, err.Error())
	}
	valid := s.ValidateInviteCode(ctx, code)
	if !valid.Success {
		return models.Fail[models.Empty](valid.ErrorType, valid.Error)
	}
	if valid.Data == nil {
		return models.Fail[models.Empty](models.ErrorNotFound, "Invite code is invalid or expired")
	}
	if valid.Data.CreatorID != callerID {
		return models.Fail[models.Empty](models.ErrorPermission, "You can only share your own invite codes")
	}
	if s.mailer == nil {
		return models.Fail[models.Empty](models.ErrorNetwork, "invite email is not configured")
	}

	link := fmt.Sprintf("%s/invite/%s", s.baseURL, code)
	if err := s.mailer.SendInviteEmail(ctx, to, inviterName, link); err != nil {
		s.metrics.RecordInvite("email", false)
		return models.Fail[models.Empty](models.ErrorNetwork, err.Error())
	}
	s.metrics.RecordInvite("email", true)
	return models.Ok(models.Empty{})
}

func (s *InviteService) load(ctx context.Context, code string) (*models.InviteCode, error) {
	if code == "" || strings.Contains(code, "/") {
		return nil, fmt.Errorf("%w: %q", store.ErrNotFound, code)
	}
	doc, err := s.store.Get(ctx, invitePath(code))
	if err != nil {
		return nil, err
	}
	var invite models.InviteCode
	if err := doc.DataTo(&invite); err != nil {
		return nil, err
	}
	invite.Code = doc.ID
	return &invite, nil
}

func isRedeemable(invite *models.InviteCode, at time.Time) bool {
	return !invite.IsUsed && !invite.ExpiresAt.Before(at)
}

var newInviteCode = randomCode

// randomCode draws from crypto/rand; the alphabet is URL-safe.
func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[b&63]
	}
	return string(buf), nil
}
