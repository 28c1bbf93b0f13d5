package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

// WebhookPayload is the JSON body posted to the notification provider.
type WebhookPayload struct {
	To       string       `json:"to"`
	Name     string       `json:"name"`
	Template TemplateKind `json:"template"`
	Subject  string       `json:"subject"`
	HTML     string       `json:"html"`
	Data     TemplateData `json:"data"`
}

// WebhookSender posts notifications to an HTTP email/push provider.
type WebhookSender struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewWebhookSender creates a [WebhookSender]. A nil client uses [http.DefaultClient].
func NewWebhookSender(cfg shared.WebhookConfig, client *http.Client) *WebhookSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSender{url: cfg.URL, token: cfg.Token, httpClient: client}
}

// Send posts one notification. A 4xx response other than 429 is reported as an invalid contact.
func (s *WebhookSender) Send(ctx context.Context, to models.Contact, kind TemplateKind, data TemplateData) error {
	msg, err := Render(kind, to, data)
	if err != nil {
		return err
	}

	body, err := json.Marshal(WebhookPayload{
		To: to.Email, Name: to.Name, Template: kind, Subject: msg.Subject, HTML: msg.HTML, Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("%w: provider rejected %s with %d: %s", shared.ErrInvalidContact, to.Email, resp.StatusCode, bytes.TrimSpace(detail))
	}
	return fmt.Errorf("provider returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
}
