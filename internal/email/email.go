package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// DefaultResendURL is the API base; the client appends the endpoint path.
const DefaultResendURL = "https://api.resend.com/"

var ErrMissingAPIKey = errors.New("email gateway api key is not configured")

type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// ResendSender sends through the Resend transactional email API.
type ResendSender struct {
	client *resend.Client
	apiKey string
	from   string
}

func NewResendSender(baseURL, apiKey, from string, timeout time.Duration) (*ResendSender, error) {
	if baseURL == "" {
		baseURL = DefaultResendURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse email gateway url: %w", err)
	}

	apiKey = strings.TrimSpace(apiKey)
	c := resend.NewCustomClient(&http.Client{Timeout: timeout}, apiKey)
	c.BaseURL = u
	return &ResendSender{client: c, apiKey: apiKey, from: from}, nil
}

func (s *ResendSender) Send(ctx context.Context, to, subject, html string) error {
	if s.apiKey == "" {
		return ErrMissingAPIKey
	}
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("email gateway: %w", err)
	}
	return nil
}
