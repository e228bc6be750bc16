// Package validation holds the profile and event rules. Nothing here touches storage.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pairup/backend/internal/models"
)

type ErrorKind string

const (
	TooShort       ErrorKind = "TooShort"
	TooLong        ErrorKind = "TooLong"
	InvalidPattern ErrorKind = "InvalidPattern"
	InvalidDate    ErrorKind = "InvalidDate"
	Underage       ErrorKind = "Underage"
	Overage        ErrorKind = "Overage"
	InvalidEnum    ErrorKind = "InvalidEnum"
)

const (
	MinNameLength = 2
	MaxNameLength = 50
	MinAge        = 18
	MaxAge        = 120
)

var namePattern = regexp.MustCompile(`^[\p{L}\p{M} .'-]+$`)

// FieldError reports which rule a single field broke.
type FieldError struct {
	Field string
	Kind  ErrorKind
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, describe(e.Kind))
}

func describe(k ErrorKind) string {
	switch k {
	case TooShort:
		return fmt.Sprintf("must be at least %d characters", MinNameLength)
	case TooLong:
		return fmt.Sprintf("must be at most %d characters", MaxNameLength)
	case InvalidPattern:
		return "may only contain letters, spaces, hyphens, apostrophes and periods"
	case InvalidDate:
		return "is not a valid date"
	case Underage:
		return fmt.Sprintf("you must be at least %d years old", MinAge)
	case Overage:
		return fmt.Sprintf("age cannot exceed %d years", MaxAge)
	case InvalidEnum:
		return "is not an allowed value"
	}
	return string(k)
}

// now is swapped in tests that need a fixed "today".
var now = time.Now

func validateName(field, s string) error {
	n := utf8.RuneCountInString(s)
	if n < MinNameLength {
		return &FieldError{Field: field, Kind: TooShort}
	}
	if n > MaxNameLength {
		return &FieldError{Field: field, Kind: TooLong}
	}
	if !namePattern.MatchString(s) {
		return &FieldError{Field: field, Kind: InvalidPattern}
	}
	return nil
}

func ValidateFirstName(s string) error {
	return validateName("firstName", s)
}

func ValidateLastName(s string) error {
	return validateName("lastName", s)
}

// ValidateBirthDate returns the age derived from d, or a FieldError when d is
// unset or the age falls outside [MinAge, MaxAge].
func ValidateBirthDate(d time.Time) (int, error) {
	if d.IsZero() {
		return 0, &FieldError{Field: "birthDate", Kind: InvalidDate}
	}
	age := CalculateAge(d)
	if age < MinAge {
		return age, &FieldError{Field: "birthDate", Kind: Underage}
	}
	if age > MaxAge {
		return age, &FieldError{Field: "birthDate", Kind: Overage}
	}
	return age, nil
}

// ParseBirthDate accepts YYYY-MM-DD or RFC 3339.
func ParseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, &FieldError{Field: "birthDate", Kind: InvalidDate}
}

func ValidateGender(g string) error {
	for _, allowed := range models.Genders {
		if string(allowed) == g {
			return nil
		}
	}
	return &FieldError{Field: "gender", Kind: InvalidEnum}
}

// CalculateAge is AgeAt against the current time.
func CalculateAge(birthDate time.Time) int {
	return AgeAt(birthDate, now())
}

// AgeAt is the whole-year difference, minus one when at has not yet reached
// the birth month/day. A Feb 29 birthday counts as reached on Mar 1 of
// non-leap years, by plain month/day comparison.
func AgeAt(birthDate, at time.Time) int {
	by, bm, bd := birthDate.Date()
	ty, tm, td := at.Date()
	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}
