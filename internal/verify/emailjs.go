package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSSender delivers codes through the EmailJS REST API, the delivery
// path the original web app used.
type EmailJSSender struct {
	ServiceID  string
	TemplateID string
	PublicKey  string

	// Endpoint overrides the EmailJS API URL, for tests.
	Endpoint string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

// Send posts the code to EmailJS. The template params carry the code under
// every variable name common EmailJS OTP templates use, so the configured
// template picks up whichever it references.
func (s *EmailJSSender) Send(ctx context.Context, email, code string) error {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEmailJSEndpoint
	}
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	payload := map[string]any{
		"service_id":  s.ServiceID,
		"template_id": s.TemplateID,
		"user_id":     s.PublicKey,
		"template_params": map[string]string{
			"to_email":          email,
			"user_email":        email,
			"reply_to":          email,
			"email":             email,
			"passcode":          code,
			"otp_code":          code,
			"one_time_password": code,
			"otp":               code,
			"code":              code,
			"time":              time.Now().Format(time.RFC1123),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("email delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email delivery failed: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return nil
}

// LogSender writes the code to the log instead of sending email. Intended
// for local development when no EmailJS credentials are configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, email, code string) error {
	slog.Warn("Email delivery not configured, logging verification code",
		"email", email,
		"code", code,
	)
	return nil
}
