package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recaptchaServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestRecaptchaVerifier(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		ok     bool
		reason string
	}{
		{"v2 success", `{"success":true}`, true, ""},
		{"v3 good score", `{"success":true,"score":0.9,"action":"signup"}`, true, ""},
		{"v3 low score", `{"success":true,"score":0.1,"action":"signup"}`, false, "low_score"},
		{"v3 wrong action", `{"success":true,"score":0.9,"action":"login"}`, false, "action_mismatch"},
		{"expired token", `{"success":false,"error-codes":["timeout-or-duplicate"]}`, false, "token_expired"},
		{"failure codes", `{"success":false,"error-codes":["invalid-input-response","bad-request"]}`, false, "invalid-input-response,bad-request"},
		{"bare failure", `{"success":false}`, false, "verification_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := recaptchaServer(t, tc.body)
			defer srv.Close()

			v := NewRecaptchaVerifier("secret")
			v.Endpoint = srv.URL
			ok, reason, err := v.Verify(context.Background(), "tok", "")
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestRecaptchaVerifier_Hostname(t *testing.T) {
	srv := recaptchaServer(t, `{"success":true,"hostname":"evil.example"}`)
	defer srv.Close()

	v := NewRecaptchaVerifier("secret")
	v.Endpoint = srv.URL
	v.Hostname = "pairup.app"
	ok, reason, err := v.Verify(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "hostname_mismatch", reason)
}

func TestRecaptchaVerifier_NotConfigured(t *testing.T) {
	var v *RecaptchaVerifier
	ok, reason, err := v.Verify(context.Background(), "tok", "")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "verifier_not_configured", reason)

	ok, reason, _ = NewRecaptchaVerifier("secret").Verify(context.Background(), " ", "")
	assert.False(t, ok)
	assert.Equal(t, "missing_token", reason)
}
