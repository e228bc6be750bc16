package services

import (
	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/validation"
)

// MapEventPreviewToDraft turns an assistant preview into a draft update. An age range is
// only carried over when both bounds are present. Call validation.ValidateEventData first.
func MapEventPreviewToDraft(p *models.EventPreview) (models.DraftEventUpdate, error) {
	var upd models.DraftEventUpdate

	timeStart, err := validation.ParseDateTime(p.Date, p.Time)
	if err != nil {
		return upd, err
	}
	upd.TimeStart = timeStart

	upd.Title = nonEmpty(p.Title)
	upd.Activity = nonEmpty(p.Activity)
	upd.Description = nonEmpty(p.Description)
	upd.Location = nonEmpty(p.Location)
	upd.Time = nonEmpty(p.Time)

	if prefs := p.Preferences; prefs != nil {
		out := &models.EventPreferences{Genders: prefs.Genders, Vibes: prefs.Vibes}
		if ar := prefs.AgeRange; ar != nil && ar.Min != nil && ar.Max != nil {
			out.AgeRange = &models.AgeRange{Min: *ar.Min, Max: *ar.Max}
		}
		upd.Preferences = out
	}
	return upd, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
