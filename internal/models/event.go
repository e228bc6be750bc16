package models

import "time"

const (
	EventRoleCreator   = "creator"
	EventStatusDraft   = "draft"
	EventPairRoleUserA = "userA"
)

type EventPreferences struct {
	AgeRange *AgeRange `json:"ageRange,omitempty"`
	Genders  []string  `json:"genders,omitempty"`
	Vibes    []string  `json:"vibes,omitempty"`
}

// DraftEvent lives at users/{uid}/ownEvents/{eventId}. Client code never removes it;
// deletion sets IsDeleted.
type DraftEvent struct {
	ID          string            `json:"id"`
	Role        string            `json:"role"`
	Status      string            `json:"status"`
	PairRole    string            `json:"pairRole"`
	IsDeleted   bool              `json:"isDeleted"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Activity    string            `json:"activity,omitempty"`
	Location    string            `json:"location,omitempty"`
	Time        string            `json:"time,omitempty"`
	TimeStart   *time.Time        `json:"timeStart,omitempty"`
	Preferences *EventPreferences `json:"preferences,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	JoinedAt    time.Time         `json:"joinedAt"`
}

// DraftEventUpdate carries the fields a creator fills in step by step. Nil fields are left untouched.
type DraftEventUpdate struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Activity    *string           `json:"activity,omitempty"`
	Location    *string           `json:"location,omitempty"`
	Time        *string           `json:"time,omitempty"`
	TimeStart   *time.Time        `json:"timeStart,omitempty"`
	Preferences *EventPreferences `json:"preferences,omitempty"`
}

// PreviewAgeRange keeps both bounds optional; assistant output is often incomplete.
type PreviewAgeRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

type PreviewPreferences struct {
	AgeRange *PreviewAgeRange `json:"ageRange,omitempty"`
	Genders  []string         `json:"genders,omitempty"`
	Vibes    []string         `json:"vibes,omitempty"`
}

// EventPreview is the loosely structured event an assistant reply proposes.
type EventPreview struct {
	Title       string              `json:"title"`
	Activity    string              `json:"activity"`
	Description string              `json:"description,omitempty"`
	Location    string              `json:"location,omitempty"`
	Date        string              `json:"date,omitempty"`
	Time        string              `json:"time,omitempty"`
	Preferences *PreviewPreferences `json:"preferences,omitempty"`
}

type ChatSender string

const (
	SenderUser      ChatSender = "user"
	SenderAssistant ChatSender = "assistant"
)

// ChatMessage is an append-only entry under a draft event's chatHistory.
type ChatMessage struct {
	ID        string        `json:"id"`
	Sender    ChatSender    `json:"sender"`
	Text      string        `json:"text"`
	Timestamp time.Time     `json:"timestamp"`
	EventData *EventPreview `json:"eventData,omitempty"`
}
