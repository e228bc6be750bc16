package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairup/backend/internal/models"
	"github.com/pairup/backend/internal/store"
)

func strPtr(s string) *string { return &s }

func TestEventService_CreateDraftEvent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewEventService(st)
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	defer freezeNow(ts)()

	res := s.CreateDraftEvent(ctx, "u1")
	require.True(t, res.Success, res.Error)

	doc, err := st.Get(ctx, "users/u1/ownEvents/"+res.Data)
	require.NoError(t, err)
	assert.Equal(t, "creator", doc.Data["role"])
	assert.Equal(t, "draft", doc.Data["status"])
	assert.Equal(t, "userA", doc.Data["pairRole"])
	assert.Equal(t, false, doc.Data["isDeleted"])
	assert.Equal(t, ts, doc.Data["createdAt"])
	assert.Equal(t, ts, doc.Data["updatedAt"])
	assert.Equal(t, ts, doc.Data["joinedAt"])
}

func TestEventService_LoadDraftEventPicksEarliest(t *testing.T) {
	ctx := context.Background()
	s := NewEventService(store.NewMemoryStore())
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	restore := freezeNow(base.Add(time.Hour))
	later := s.CreateDraftEvent(ctx, "u1").Data
	restore()
	restore = freezeNow(base)
	earliest := s.CreateDraftEvent(ctx, "u1").Data
	restore()
	require.NotEmpty(t, later)

	res := s.LoadDraftEvent(ctx, "u1")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, earliest, res.Data.ID)

	require.True(t, s.DeleteDraftEvent(ctx, "u1", earliest).Success)
	res = s.LoadDraftEvent(ctx, "u1")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, later, res.Data.ID)
}

func TestEventService_LoadDraftEventNotFound(t *testing.T) {
	res := NewEventService(store.NewMemoryStore()).LoadDraftEvent(context.Background(), "u1")
	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorNotFound, res.ErrorType)
}

func TestEventService_UpdateDraftEvent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewEventService(st)
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	restore := freezeNow(created)
	id := s.CreateDraftEvent(ctx, "u1").Data
	restore()

	start := time.Date(2024, 12, 25, 14, 30, 0, 0, time.UTC)
	updated := created.Add(time.Minute)
	defer freezeNow(updated)()

	res := s.UpdateDraftEvent(ctx, "u1", id, models.DraftEventUpdate{
		Title:       strPtr("Board games"),
		TimeStart:   &start,
		Preferences: &models.EventPreferences{AgeRange: &models.AgeRange{Min: 20, Max: 30}},
	})
	require.True(t, res.Success, res.Error)

	doc, err := st.Get(ctx, "users/u1/ownEvents/"+id)
	require.NoError(t, err)
	assert.Equal(t, start, doc.Data["timeStart"])
	assert.Equal(t, updated, doc.Data["updatedAt"])
	assert.Equal(t, created, doc.Data["createdAt"])

	draft := s.LoadDraftEvent(ctx, "u1")
	require.True(t, draft.Success, draft.Error)
	assert.Equal(t, "Board games", draft.Data.Title)
	require.NotNil(t, draft.Data.TimeStart)
	assert.True(t, draft.Data.TimeStart.Equal(start))
	assert.Equal(t, &models.AgeRange{Min: 20, Max: 30}, draft.Data.Preferences.AgeRange)
	assert.Equal(t, "draft", draft.Data.Status)
}

func TestEventService_UpdateRejectsBadAgeRange(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewEventService(st)
	id := s.CreateDraftEvent(ctx, "u1").Data

	tests := []struct {
		name     string
		ageRange models.AgeRange
		want     string
	}{
		{name: "under 18", ageRange: models.AgeRange{Min: 5, Max: 30}, want: "preferences.ageRange.min"},
		{name: "over 120", ageRange: models.AgeRange{Min: 20, Max: 500}, want: "preferences.ageRange.max"},
		{name: "inverted", ageRange: models.AgeRange{Min: 40, Max: 30}, want: "preferences.ageRange.max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ar := tt.ageRange
			res := s.UpdateDraftEvent(ctx, "u1", id, models.DraftEventUpdate{
				Title:       strPtr("Board games"),
				Preferences: &models.EventPreferences{AgeRange: &ar},
			})
			assert.Equal(t, models.ErrorValidation, res.ErrorType)
			assert.Contains(t, res.Error, tt.want)
		})
	}

	doc, err := st.Get(ctx, "users/u1/ownEvents/"+id)
	require.NoError(t, err)
	assert.NotContains(t, doc.Data, "preferences")
	assert.NotContains(t, doc.Data, "title")
}

func TestEventService_UpdateMissingEvent(t *testing.T) {
	s := NewEventService(store.NewMemoryStore())
	res := s.UpdateDraftEvent(context.Background(), "u1", "nope", models.DraftEventUpdate{Title: strPtr("x")})
	assert.Equal(t, models.ErrorNotFound, res.ErrorType)

	res = s.DeleteDraftEvent(context.Background(), "u1", "nope")
	assert.Equal(t, models.ErrorNotFound, res.ErrorType)
}

func TestEventService_LoadAllEvents(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewEventService(st)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	empty := s.LoadAllEvents(ctx, "u1")
	require.True(t, empty.Success)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)

	var ids []string
	for i := 0; i < 3; i++ {
		restore := freezeNow(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, s.CreateDraftEvent(ctx, "u1").Data)
		restore()
	}
	require.True(t, s.DeleteDraftEvent(ctx, "u1", ids[1]).Success)

	// the soft-deleted document is still stored
	_, err := st.Get(ctx, "users/u1/ownEvents/"+ids[1])
	require.NoError(t, err)

	res := s.LoadAllEvents(ctx, "u1")
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 2)
	assert.Equal(t, ids[2], res.Data[0].ID)
	assert.Equal(t, ids[0], res.Data[1].ID)
	for _, ev := range res.Data {
		assert.False(t, ev.IsDeleted)
	}
}

func TestEventService_ChatHistory(t *testing.T) {
	ctx := context.Background()
	s := NewEventService(store.NewMemoryStore())
	id := s.CreateDraftEvent(ctx, "u1").Data
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	second := s.SaveChatMessage(ctx, "u1", id, &models.ChatMessage{
		Sender:    models.SenderAssistant,
		Text:      "How about bowling?",
		Timestamp: base.Add(time.Minute),
		EventData: &models.EventPreview{Title: "Bowling", Activity: "bowling", Date: "2024-07-01"},
	})
	require.True(t, second.Success, second.Error)
	first := s.SaveChatMessage(ctx, "u1", id, &models.ChatMessage{
		Sender:    models.SenderUser,
		Text:      "Something fun",
		Timestamp: base,
	})
	require.True(t, first.Success, first.Error)

	res := s.LoadChatHistory(ctx, "u1", id)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 2)
	assert.Equal(t, first.Data, res.Data[0].ID)
	assert.Equal(t, models.SenderUser, res.Data[0].Sender)
	assert.Equal(t, "How about bowling?", res.Data[1].Text)
	require.NotNil(t, res.Data[1].EventData)
	assert.Equal(t, "Bowling", res.Data[1].EventData.Title)
	assert.True(t, res.Data[1].Timestamp.Equal(base.Add(time.Minute)))
}

func TestEventService_SaveChatMessageValidation(t *testing.T) {
	ctx := context.Background()
	s := NewEventService(store.NewMemoryStore())
	id := s.CreateDraftEvent(ctx, "u1").Data

	res := s.SaveChatMessage(ctx, "u1", id, &models.ChatMessage{Sender: "bot", Text: "hi"})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)

	res = s.SaveChatMessage(ctx, "u1", id, &models.ChatMessage{Sender: models.SenderUser, Text: "  "})
	assert.Equal(t, models.ErrorValidation, res.ErrorType)

	res = s.SaveChatMessage(ctx, "u1", "missing", &models.ChatMessage{Sender: models.SenderUser, Text: "hi"})
	assert.Equal(t, models.ErrorNotFound, res.ErrorType)
}

func TestEventService_DeleteAll(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewEventService(st)
	id := s.CreateDraftEvent(ctx, "u1").Data
	require.True(t, s.SaveChatMessage(ctx, "u1", id, &models.ChatMessage{Sender: models.SenderUser, Text: "hi"}).Success)

	require.NoError(t, s.deleteAll(ctx, "u1"))

	docs, err := st.Query(ctx, "users/u1/ownEvents", store.Query{})
	require.NoError(t, err)
	assert.Empty(t, docs)
	msgs, err := st.Query(ctx, "users/u1/ownEvents/"+id+"/chatHistory", store.Query{})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
