package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BotVerifier checks the sign-up form's bot token. Returns (ok, reason, error).
type BotVerifier interface {
	Verify(ctx context.Context, token string, remoteIP string) (bool, string, error)
}

type RecaptchaVerifier struct {
	Secret     string
	// MinScore applies to v3 tokens only; v2 responses carry no score.
	MinScore   float64
	Action     string
	// Hostname, when set, must match the site the token was solved on.
	Hostname   string
	HTTPClient *http.Client
	Endpoint   string
}

type recaptchaVerifyResponse struct {
	Success    bool      `json:"success"`
	Score      *float64  `json:"score"`
	Action     string    `json:"action"`
	ChallengeT time.Time `json:"challenge_ts"`
	Hostname   string    `json:"hostname"`
	ErrorCodes []string  `json:"error-codes"`
}

func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		Secret:   secret,
		MinScore: 0.5,
		Action:   "signup",
		Endpoint: "https://www.google.com/recaptcha/api/siteverify",
		HTTPClient: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token string, remoteIP string) (bool, string, error) {
	if v == nil {
		return false, "verifier_not_configured", nil
	}
	if strings.TrimSpace(v.Secret) == "" {
		return false, "missing_secret", nil
	}
	tok := strings.TrimSpace(token)
	if tok == "" {
		return false, "missing_token", nil
	}

	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", tok)
	if ip := strings.TrimSpace(remoteIP); ip != "" {
		form.Set("remoteip", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := v.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, "", fmt.Errorf("recaptcha verify http %d", resp.StatusCode)
	}

	var out recaptchaVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, "", err
	}
	if !out.Success {
		if containsString(out.ErrorCodes, "timeout-or-duplicate") {
			return false, "token_expired", nil
		}
		if len(out.ErrorCodes) > 0 {
			return false, strings.Join(out.ErrorCodes, ","), nil
		}
		return false, "verification_failed", nil
	}
	if v.Hostname != "" && !strings.EqualFold(out.Hostname, v.Hostname) {
		return false, "hostname_mismatch", nil
	}
	if out.Score != nil {
		if v.Action != "" && out.Action != v.Action {
			return false, "action_mismatch", nil
		}
		if *out.Score < v.MinScore {
			return false, "low_score", nil
		}
	}
	return true, "", nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
