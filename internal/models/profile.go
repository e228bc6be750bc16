package models

import "time"

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderNonBinary      Gender = "non-binary"
	GenderPreferNotToSay Gender = "prefer-not-to-say"
)

// Genders lists every accepted gender literal.
var Genders = []Gender{GenderMale, GenderFemale, GenderNonBinary, GenderPreferNotToSay}

type AgeRange struct {
	Min int `json:"min" validate:"min=18,max=120"`
	Max int `json:"max" validate:"min=18,max=120,gtefield=Min"`
}

type Preferences struct {
	AgeRange *AgeRange `json:"ageRange,omitempty"`
	Genders  []Gender  `json:"genders,omitempty" validate:"omitempty,dive,gender"`
	Vibes    []string  `json:"vibes,omitempty"`
}

// PrivateUserData is the owner-only profile document stored at users/{id}.
type PrivateUserData struct {
	Email       string       `json:"email" validate:"required,email"`
	FirstName   string       `json:"firstName" validate:"required,personname"`
	LastName    string       `json:"lastName,omitempty" validate:"omitempty,personname"`
	BirthDate   time.Time    `json:"birthDate" validate:"required,adultage"`
	Gender      Gender       `json:"gender" validate:"required,gender"`
	PhotoURL    string       `json:"photoURL,omitempty" validate:"omitempty,url"`
	CreatedAt   time.Time    `json:"createdAt" validate:"required"`
	Preferences *Preferences `json:"preferences,omitempty"`
	FunFact     string       `json:"funFact,omitempty" validate:"max=1000"`
	Likes       string       `json:"likes,omitempty" validate:"max=1000"`
	Dislikes    string       `json:"dislikes,omitempty" validate:"max=1000"`
	Hobbies     string       `json:"hobbies,omitempty" validate:"max=1000"`
}

// PublicUserData is the subset of the profile other users may read, stored at publicProfiles/{id}.
type PublicUserData struct {
	FirstName string `json:"firstName" validate:"required,personname"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,personname"`
	PhotoURL  string `json:"photoURL,omitempty" validate:"omitempty,url"`
	City      string `json:"city,omitempty" validate:"max=100"`
	Bio       string `json:"bio,omitempty" validate:"max=500"`
	Gender    Gender `json:"gender" validate:"required,gender"`
	Age       int    `json:"age" validate:"min=18,max=120"`
}

// PrivateUserPatch is the partial form of PrivateUserData used for creates and merges.
// Every field is optional; a present field must still satisfy its rule.
type PrivateUserPatch struct {
	Email       *string      `json:"email" validate:"omitempty,email"`
	FirstName   *string      `json:"firstName" validate:"omitempty,personname"`
	LastName    *string      `json:"lastName" validate:"omitempty,personname"`
	BirthDate   *time.Time   `json:"birthDate" validate:"omitempty,adultage"`
	Gender      *Gender      `json:"gender" validate:"omitempty,gender"`
	PhotoURL    *string      `json:"photoURL" validate:"omitempty,url"`
	CreatedAt   *time.Time   `json:"createdAt"`
	Preferences *Preferences `json:"preferences"`
	FunFact     *string      `json:"funFact" validate:"omitempty,max=1000"`
	Likes       *string      `json:"likes" validate:"omitempty,max=1000"`
	Dislikes    *string      `json:"dislikes" validate:"omitempty,max=1000"`
	Hobbies     *string      `json:"hobbies" validate:"omitempty,max=1000"`
}

// PublicUserPatch is the partial form of PublicUserData.
type PublicUserPatch struct {
	FirstName *string `json:"firstName" validate:"omitempty,personname"`
	LastName  *string `json:"lastName" validate:"omitempty,personname"`
	PhotoURL  *string `json:"photoURL" validate:"omitempty,url"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	Gender    *Gender `json:"gender" validate:"omitempty,gender"`
	Age       *int    `json:"age" validate:"omitempty,min=18,max=120"`
}
