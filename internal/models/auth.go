package models

import "time"

// Identity is the verified caller of a request.
type Identity struct {
	UserID string
	Email  string
	// AuthTime is when the user last entered credentials, not when the token was minted.
	AuthTime time.Time
}

type SignUpRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6,max=128"`
	FirstName      string `json:"firstName" validate:"required,personname"`
	LastName       string `json:"lastName,omitempty" validate:"omitempty,personname"`
	BirthDate      string `json:"birthDate" validate:"required"`
	Gender         Gender `json:"gender" validate:"required,gender"`
	RecaptchaToken string `json:"recaptchaToken"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Session is returned by sign-up and sign-in. Tokens are empty when password sign-in is not configured.
type Session struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    string `json:"expiresIn,omitempty"`
}
