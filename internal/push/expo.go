package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const DefaultURL = "https://exp.host/--/api/v2/push/send"

var ErrMissingAccessToken = errors.New("push gateway access token is not configured")

// Message is one entry of a gateway batch request.
type Message struct {
	To        string         `json:"to"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	Priority  string         `json:"priority"`
	Sound     string         `json:"sound"`
	ChannelID string         `json:"channelId"`
}

type ticket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details"`
}

type sendResponse struct {
	Data []ticket `json:"data"`
}

// Client sends batches to an Expo-compatible push gateway.
type Client struct {
	URL         string
	AccessToken string
	HTTP        *http.Client
	Logger      *slog.Logger
}

func NewClient(url, accessToken string, timeout time.Duration, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		URL:         url,
		AccessToken: accessToken,
		HTTP:        &http.Client{Timeout: timeout},
		Logger:      logger,
	}
}

// Send posts one request carrying a message per token. Any 2xx response
// is a successful send; per-ticket errors are only logged.
func (c *Client) Send(ctx context.Context, tokens []string, title, body string, data map[string]any) error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return ErrMissingAccessToken
	}

	msgs := make([]Message, 0, len(tokens))
	for _, t := range tokens {
		msgs = append(msgs, Message{
			To:        t,
			Title:     title,
			Body:      body,
			Data:      data,
			Priority:  "high",
			Sound:     "default",
			ChannelID: "default",
		})
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	c.logTicketErrors(tokens, raw)
	return nil
}

func (c *Client) logTicketErrors(tokens []string, raw []byte) {
	if c.Logger == nil || len(raw) == 0 {
		return
	}
	var out sendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return
	}
	for i, t := range out.Data {
		if t.Status != "error" {
			continue
		}
		token := ""
		if i < len(tokens) {
			token = tokens[i]
		}
		c.Logger.Warn("push ticket error",
			"token", token,
			"message", t.Message,
			"error", t.Details.Error,
		)
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}
