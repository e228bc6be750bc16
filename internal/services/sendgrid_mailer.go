package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
)

var inviteHTML = template.Must(template.New("invite").Parse(
	`<p>{{.Inviter}} wants to pair up with you on PairUp.</p>` +
		`<p><a href="{{.Link}}">Join the event</a></p>` +
		`<p>The link can be used once.</p>`))

// InviteMailer delivers invite links.
type InviteMailer interface {
	SendInviteEmail(ctx context.Context, to, inviterName, link string) error
}

type SendGridMailer struct {
	APIKey     string
	FromEmail  string
	HTTPClient *http.Client
	Endpoint   string
}

func NewSendGridMailer(apiKey string, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		APIKey:    strings.TrimSpace(apiKey),
		FromEmail: strings.TrimSpace(fromEmail),
		Endpoint:  "https://api.sendgrid.com/v3/mail/send",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To      []sendGridEmailAddress `json:"to"`
	Subject string                 `json:"subject"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	Content          []sendGridContent         `json:"content"`
	Categories       []string                  `json:"categories,omitempty"`
}

type sendGridErrorResponse struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func (m *SendGridMailer) SendInviteEmail(ctx context.Context, to, inviterName, link string) error {
	if m == nil {
		return fmt.Errorf("sendgrid mailer not configured")
	}
	if m.APIKey == "" {
		return fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if m.FromEmail == "" {
		return fmt.Errorf("missing INVITE_FROM_EMAIL")
	}

	inviter := strings.TrimSpace(inviterName)
	if inviter == "" {
		inviter = "A friend"
	}
	subject := fmt.Sprintf("%s invited you to an event on PairUp", inviter)
	plain := fmt.Sprintf(
		"%s wants to pair up with you.\n\nJoin the event here:\n%s\n\nThe link can be used once.\n",
		inviter,
		link,
	)
	var html bytes.Buffer
	if err := inviteHTML.Execute(&html, struct{ Inviter, Link string }{inviter, link}); err != nil {
		return err
	}

	reqBody := sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{
			{
				To:      []sendGridEmailAddress{{Email: strings.TrimSpace(to)}},
				Subject: subject,
			},
		},
		From: sendGridEmailAddress{
			Email: m.FromEmail,
			Name:  "PairUp Events",
		},
		// text/plain must precede text/html.
		Content: []sendGridContent{
			{Type: "text/plain", Value: plain},
			{Type: "text/html", Value: html.String()},
		},
		Categories: []string{"invite"},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode == http.StatusAccepted {
		return nil
	}
	var apiErr sendGridErrorResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if json.Unmarshal(body, &apiErr) == nil && len(apiErr.Errors) > 0 {
		return fmt.Errorf("sendgrid mail send http %d: %s", resp.StatusCode, apiErr.Errors[0].Message)
	}
	return fmt.Errorf("sendgrid mail send http %d", resp.StatusCode)
}
