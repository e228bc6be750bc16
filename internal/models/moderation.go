package models

import "time"

// UserFlag counts a user's rejected uploads. Stored at userFlags/{uid}.
type UserFlag struct {
	UserID       string    `json:"userId"`
	Strikes      int       `json:"strikes"`
	LastStrikeAt time.Time `json:"lastStrikeAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
