package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pairup/backend/internal/models"
)

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// ErrInvalidDateTime is returned by ParseDateTime when the pieces do not form a real instant.
var ErrInvalidDateTime = errors.New("invalid date/time")

const defaultClock = "12:00"

// ValidateEventData reports whether an assistant-produced preview is usable:
// title and activity set, date as YYYY-MM-DD and time as 24-hour HH:MM when present.
func ValidateEventData(p *models.EventPreview) bool {
	if p == nil {
		return false
	}
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Activity) == "" {
		return false
	}
	if p.Date != "" && !datePattern.MatchString(p.Date) {
		return false
	}
	if p.Time != "" && !clockPattern.MatchString(p.Time) {
		return false
	}
	return true
}

// ParseDateTime combines a YYYY-MM-DD date and an HH:MM time in local time.
// The time defaults to 12:00. With no date it returns (nil, nil).
func ParseDateTime(date, clock string) (*time.Time, error) {
	if date == "" {
		return nil, nil
	}
	if clock == "" {
		clock = defaultClock
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: %q %q", ErrInvalidDateTime, date, clock)
	}
	return &t, nil
}
