package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://discord.com/api/v10"

// NotifyError indicates a failure posting to or updating the chat platform.
type NotifyError struct {
	Op  string
	Err error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("discord %s: %v", e.Op, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// Client is a minimal Discord REST client: bot-token message create/edit for
// the notification channel, plus a plain webhook fallback when no bot token
// is configured.
type Client struct {
	http       *http.Client
	baseURL    string
	botToken   string
	webhookURL string
}

func NewClient(botToken, webhookURL string) *Client {
	return &Client{
		http:       &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		botToken:   botToken,
		webhookURL: webhookURL,
	}
}

// HasBot reports whether bot-token calls are available. Without a bot token
// only the webhook fallback works, and created messages have no retrievable
// id (so no reply affordances).
func (c *Client) HasBot() bool {
	return c.botToken != ""
}

// CreateMessage posts a message to a channel and returns the created
// message's id directly from the API response.
func (c *Client) CreateMessage(ctx context.Context, channelID string, msg Message) (string, error) {
	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, url, msg, &created); err != nil {
		return "", &NotifyError{Op: "create message", Err: err}
	}
	return created.ID, nil
}

// EditMessage updates a previously posted message, typically to strip its
// action buttons and show a terminal state.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg Message) error {
	url := fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, channelID, messageID)
	if err := c.do(ctx, http.MethodPatch, url, msg, nil); err != nil {
		return &NotifyError{Op: "edit message", Err: err}
	}
	return nil
}

// ExecuteWebhook posts plain content through the configured webhook URL.
func (c *Client) ExecuteWebhook(ctx context.Context, content string) error {
	if c.webhookURL == "" {
		return &NotifyError{Op: "execute webhook", Err: fmt.Errorf("no webhook URL configured")}
	}
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, c.webhookURL, body, nil); err != nil {
		return &NotifyError{Op: "execute webhook", Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.botToken != "" {
		req.Header.Set("Authorization", "Bot "+c.botToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call discord: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, payload)
	}
	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
