package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/store"
)

const (
	userFlagsCollection = "userFlags"
	maxStrikeAttempts   = 5
)

// ModerationFlags keeps a per-user strike count for uploads rejected by moderation.
type ModerationFlags struct {
	store store.Store
	now   func() time.Time
}

func NewModerationFlags(st store.Store) *ModerationFlags {
	return &ModerationFlags{store: st, now: time.Now}
}

// AddStrike increments the user's strike counter and returns the updated record.
// Each write is conditioned on the revision it read, so concurrent strikes are
// never lost.
func (f *ModerationFlags) AddStrike(ctx context.Context, userID string) models.Result[*models.UserFlag] {
	if userID == "" {
		return models.Fail[*models.UserFlag](models.ErrorValidation, "userID is required")
	}
	path := store.Path(userFlagsCollection, userID)

	for attempt := 0; attempt < maxStrikeAttempts; attempt++ {
		now := f.now().UTC()
		doc, err := f.store.Get(ctx, path)
		if errors.Is(err, store.ErrNotFound) {
			flag := &models.UserFlag{UserID: userID, Strikes: 1, LastStrikeAt: now, UpdatedAt: now}
			err = f.store.Create(ctx, path, flagData(flag, uuid.NewString()))
			if errors.Is(err, store.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return storeFailure[*models.UserFlag](err, "")
			}
			return models.Ok(flag)
		}
		if err != nil {
			return storeFailure[*models.UserFlag](err, "")
		}

		var flag models.UserFlag
		if err := doc.DataTo(&flag); err != nil {
			return models.Fail[*models.UserFlag](models.ErrorValidation, fmt.Sprintf("decode %s: %v", path, err))
		}
		flag.UserID = userID
		flag.Strikes++
		flag.LastStrikeAt = now
		flag.UpdatedAt = now

		rev, _ := doc.Data["rev"].(string)
		err = f.store.UpdateIf(ctx, path,
			[]store.Filter{{Field: "rev", Value: rev}},
			flagData(&flag, uuid.NewString()))
		if errors.Is(err, store.ErrConditionFailed) || errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return storeFailure[*models.UserFlag](err, "")
		}
		return models.Ok(&flag)
	}
	return models.Fail[*models.UserFlag](models.ErrorNetwork, "strike update contended; retry later")
}

// LoadUserFlag returns NotFound for users without strikes.
func (f *ModerationFlags) LoadUserFlag(ctx context.Context, userID string) models.Result[*models.UserFlag] {
	doc, err := f.store.Get(ctx, store.Path(userFlagsCollection, userID))
	if err != nil {
		return storeFailure[*models.UserFlag](err, "No strikes recorded")
	}
	var flag models.UserFlag
	if err := doc.DataTo(&flag); err != nil {
		return models.Fail[*models.UserFlag](models.ErrorValidation, err.Error())
	}
	return models.Ok(&flag)
}

func flagData(f *models.UserFlag, rev string) map[string]any {
	return map[string]any{
		"userId":       f.UserID,
		"strikes":      f.Strikes,
		"lastStrikeAt": f.LastStrikeAt,
		"updatedAt":    f.UpdatedAt,
		"rev":          rev,
	}
}
