package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// IdentityToolkit calls the Firebase Auth REST API for the flows the Admin SDK
// does not cover: password sign-in and the password-reset mail.
type IdentityToolkit struct {
	APIKey     string
	HTTPClient *http.Client
	Endpoint   string
}

func NewIdentityToolkit(apiKey string) *IdentityToolkit {
	return &IdentityToolkit{
		APIKey:   strings.TrimSpace(apiKey),
		Endpoint: "https://identitytoolkit.googleapis.com/v1",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SignInResult is the session returned by a password sign-in.
type SignInResult struct {
	UserID       string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// IdentityToolkitError carries the provider code, e.g. INVALID_PASSWORD.
type IdentityToolkitError struct {
	Status int
	Code   string
}

func (e *IdentityToolkitError) Error() string {
	return fmt.Sprintf("identity toolkit http %d: %s", e.Status, e.Code)
}

type identityToolkitErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *IdentityToolkit) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	var out SignInResult
	err := t.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *IdentityToolkit) SendPasswordResetEmail(ctx context.Context, email string) error {
	return t.call(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

func (t *IdentityToolkit) call(ctx context.Context, method string, body any, out any) error {
	if t == nil || t.APIKey == "" {
		return &IdentityToolkitError{Code: "API_KEY_MISSING"}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", strings.TrimRight(t.Endpoint, "/"), method, url.QueryEscape(t.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb identityToolkitErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		// Messages look like "TOO_MANY_ATTEMPTS_TRY_LATER : details".
		code := strings.TrimSpace(strings.SplitN(eb.Error.Message, ":", 2)[0])
		if code == "" {
			code = "UNKNOWN"
		}
		return &IdentityToolkitError{Status: resp.StatusCode, Code: code}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Close drops pooled connections. The client stays usable.
func (t *IdentityToolkit) Close() error {
	if t != nil && t.HTTPClient != nil {
		t.HTTPClient.CloseIdleConnections()
	}
	return nil
}
