package models

import "time"

// InviteCode is stored at inviteCodes/{code}. IsUsed only ever flips from false to true.
type InviteCode struct {
	Code      string     `json:"code"`
	EventID   string     `json:"eventId"`
	CreatorID string     `json:"creatorId"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	IsUsed    bool       `json:"isUsed"`
	UsedBy    string     `json:"usedBy,omitempty"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}
