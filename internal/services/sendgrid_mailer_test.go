package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridMailer_SendInviteEmail(t *testing.T) {
	var got sendGridMailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer("key", "events@pairup.app")
	m.Endpoint = srv.URL

	err := m.SendInviteEmail(context.Background(), "bob@example.com", "Ana", "https://pairup.app/invite/abc")
	require.NoError(t, err)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "bob@example.com", got.Personalizations[0].To[0].Email)
	assert.Contains(t, got.Personalizations[0].Subject, "Ana")
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Contains(t, got.Content[0].Value, "https://pairup.app/invite/abc")
	assert.Contains(t, got.Content[1].Value, `href="https://pairup.app/invite/abc"`)
}

func TestSendGridMailer_EscapesInviterName(t *testing.T) {
	var got sendGridMailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer("key", "events@pairup.app")
	m.Endpoint = srv.URL
	require.NoError(t, m.SendInviteEmail(context.Background(), "bob@example.com", "<b>Eve</b>", "https://pairup.app/invite/x"))
	assert.NotContains(t, got.Content[1].Value, "<b>Eve</b>")
	assert.Contains(t, got.Content[1].Value, "&lt;b&gt;Eve&lt;/b&gt;")
}

func TestSendGridMailer_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewSendGridMailer("key", "events@pairup.app")
	m.Endpoint = srv.URL
	assert.ErrorContains(t, m.SendInviteEmail(context.Background(), "a@b.c", "", "l"), "http 401")

	detailed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"message":"The from address does not match a verified Sender Identity.","field":"from"}]}`))
	}))
	defer detailed.Close()
	m.Endpoint = detailed.URL
	assert.ErrorContains(t, m.SendInviteEmail(context.Background(), "a@b.c", "", "l"), "verified Sender Identity")

	assert.ErrorContains(t, NewSendGridMailer("", "x@y.z").SendInviteEmail(context.Background(), "a@b.c", "", "l"), "SENDGRID_API_KEY")
	assert.ErrorContains(t, NewSendGridMailer("k", "").SendInviteEmail(context.Background(), "a@b.c", "", "l"), "INVITE_FROM_EMAIL")
}
