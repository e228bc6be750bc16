package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/store"
	"github.com/pairup/backend/internal/validation"
)

// EventService manages a user's draft events and their chat history.
type EventService struct {
	store store.Store
}

func NewEventService(st store.Store) *EventService {
	return &EventService{store: st}
}

func ownEventsPath(userID string) string {
	return store.Path("users", userID, "ownEvents")
}

func eventPath(userID, eventID string) string {
	return store.Path("users", userID, "ownEvents", eventID)
}

func chatPath(userID, eventID string) string {
	return store.Path("users", userID, "ownEvents", eventID, "chatHistory")
}

// CreateDraftEvent starts an empty draft and returns its id.
func (s *EventService) CreateDraftEvent(ctx context.Context, userID string) models.Result[string] {
	ts := now()
	id, err := s.store.Add(ctx, ownEventsPath(userID), map[string]any{
		"role":      models.EventRoleCreator,
		"status":    models.EventStatusDraft,
		"pairRole":  models.EventPairRoleUserA,
		"isDeleted": false,
		"createdAt": ts,
		"updatedAt": ts,
		"joinedAt":  ts,
	})
	if err != nil {
		return storeFailure[string](err, "User not found")
	}
	return models.Ok(id)
}

// LoadDraftEvent returns the earliest-created draft that is not deleted.
func (s *EventService) LoadDraftEvent(ctx context.Context, userID string) models.Result[*models.DraftEvent] {
	docs, err := s.store.Query(ctx, ownEventsPath(userID), store.Query{
		Where: []store.Filter{
			{Field: "isDeleted", Value: false},
			{Field: "status", Value: models.EventStatusDraft},
		},
		OrderBy: "createdAt",
		Limit:   1,
	})
	if err != nil {
		return storeFailure[*models.DraftEvent](err, "No draft event found")
	}
	if len(docs) == 0 {
		return models.Fail[*models.DraftEvent](models.ErrorNotFound, "No draft event found")
	}
	ev, err := decodeEvent(docs[0])
	if err != nil {
		return models.Fail[*models.DraftEvent](models.ErrorValidation, err.Error())
	}
	return models.Ok(ev)
}

// UpdateDraftEvent merges the non-nil fields of upd and refreshes updatedAt.
func (s *EventService) UpdateDraftEvent(ctx context.Context, userID, eventID string, upd models.DraftEventUpdate) models.Result[models.Empty] {
	if err := validation.ValidateStruct(&upd); err != nil {
		return models.Fail[models.Empty](models.ErrorValidation, err.Error())
	}
	data := map[string]any{"updatedAt": now()}
	setString(data, "title", upd.Title)
	setString(data, "description", upd.Description)
	setString(data, "activity", upd.Activity)
	setString(data, "location", upd.Location)
	setString(data, "time", upd.Time)
	if upd.TimeStart != nil {
		data["timeStart"] = *upd.TimeStart
	}
	if upd.Preferences != nil {
		data["preferences"] = eventPreferencesMap(upd.Preferences)
	}

	if err := s.store.UpdateIf(ctx, eventPath(userID, eventID), nil, data); err != nil {
		return storeFailure[models.Empty](err, "Event not found")
	}
	return models.Ok(models.Empty{})
}

// DeleteDraftEvent soft-deletes the draft; the document stays in the store.
func (s *EventService) DeleteDraftEvent(ctx context.Context, userID, eventID string) models.Result[models.Empty] {
	err := s.store.UpdateIf(ctx, eventPath(userID, eventID), nil, map[string]any{
		"isDeleted": true,
		"updatedAt": now(),
	})
	if err != nil {
		return storeFailure[models.Empty](err, "Event not found")
	}
	return models.Ok(models.Empty{})
}

// LoadAllEvents lists non-deleted events, most recent first. No events is an empty list.
func (s *EventService) LoadAllEvents(ctx context.Context, userID string) models.Result[[]*models.DraftEvent] {
	docs, err := s.store.Query(ctx, ownEventsPath(userID), store.Query{
		Where:      []store.Filter{{Field: "isDeleted", Value: false}},
		OrderBy:    "createdAt",
		Descending: true,
	})
	if err != nil {
		return storeFailure[[]*models.DraftEvent](err, "User not found")
	}
	events := make([]*models.DraftEvent, 0, len(docs))
	for _, doc := range docs {
		ev, err := decodeEvent(doc)
		if err != nil {
			return models.Fail[[]*models.DraftEvent](models.ErrorValidation, err.Error())
		}
		events = append(events, ev)
	}
	return models.Ok(events)
}

// SaveChatMessage appends a message to the event's chat history and returns its id.
func (s *EventService) SaveChatMessage(ctx context.Context, userID, eventID string, msg *models.ChatMessage) models.Result[string] {
	if msg == nil || (msg.Sender != models.SenderUser && msg.Sender != models.SenderAssistant) {
		return models.Fail[string](models.ErrorValidation, "sender: must be one of user, assistant")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return models.Fail[string](models.ErrorValidation, "text: is required")
	}
	if _, err := s.store.Get(ctx, eventPath(userID, eventID)); err != nil {
		return storeFailure[string](err, "Event not found")
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = now()
	}
	data := map[string]any{
		"sender":    string(msg.Sender),
		"text":      msg.Text,
		"timestamp": ts,
	}
	if msg.EventData != nil {
		preview, err := toMap(msg.EventData)
		if err != nil {
			return models.Fail[string](models.ErrorValidation, err.Error())
		}
		data["eventData"] = preview
	}

	id, err := s.store.Add(ctx, chatPath(userID, eventID), data)
	if err != nil {
		return storeFailure[string](err, "Event not found")
	}
	return models.Ok(id)
}

// LoadChatHistory returns the chat in timestamp order, oldest first.
func (s *EventService) LoadChatHistory(ctx context.Context, userID, eventID string) models.Result[[]*models.ChatMessage] {
	docs, err := s.store.Query(ctx, chatPath(userID, eventID), store.Query{OrderBy: "timestamp"})
	if err != nil {
		return storeFailure[[]*models.ChatMessage](err, "Event not found")
	}
	out := make([]*models.ChatMessage, 0, len(docs))
	for _, doc := range docs {
		var m models.ChatMessage
		if err := doc.DataTo(&m); err != nil {
			return models.Fail[[]*models.ChatMessage](models.ErrorValidation, err.Error())
		}
		m.ID = doc.ID
		out = append(out, &m)
	}
	return models.Ok(out)
}

// deleteAll hard-deletes every event and chat message of a user. Account deletion only.
func (s *EventService) deleteAll(ctx context.Context, userID string) error {
	events, err := s.store.Query(ctx, ownEventsPath(userID), store.Query{})
	if err != nil {
		return err
	}
	for _, ev := range events {
		msgs, err := s.store.Query(ctx, chatPath(userID, ev.ID), store.Query{})
		if err != nil {
			return err
		}
		for _, m := range msgs {
			if err := s.store.Delete(ctx, m.Path); err != nil {
				return err
			}
		}
		if err := s.store.Delete(ctx, ev.Path); err != nil {
			return err
		}
	}
	return nil
}

func decodeEvent(doc *store.Document) (*models.DraftEvent, error) {
	var ev models.DraftEvent
	if err := doc.DataTo(&ev); err != nil {
		return nil, err
	}
	ev.ID = doc.ID
	return &ev, nil
}

func setString(data map[string]any, key string, v *string) {
	if v != nil {
		data[key] = *v
	}
}

func eventPreferencesMap(p *models.EventPreferences) map[string]any {
	out := map[string]any{}
	if p.AgeRange != nil {
		out["ageRange"] = map[string]any{"min": p.AgeRange.Min, "max": p.AgeRange.Max}
	}
	if p.Genders != nil {
		out["genders"] = stringsToAny(p.Genders)
	}
	if p.Vibes != nil {
		out["vibes"] = stringsToAny(p.Vibes)
	}
	return out
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// toMap converts a JSON-shaped struct into a store map.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
