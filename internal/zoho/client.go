package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://mail.zoho.com/api"

// Account is the mailbox account record: the primary address, its aliases,
// and the send-identity bindings usable as reply "from" addresses.
type Account struct {
	AccountID           string           `json:"accountId"`
	AccountDisplayName  string           `json:"accountDisplayName"`
	PrimaryEmailAddress string           `json:"primaryEmailAddress"`
	EmailAddresses      []AccountAddress `json:"emailAddress"`
	SendMailDetails     []SendMailDetail `json:"sendMailDetails"`
}

type AccountAddress struct {
	MailID    string `json:"mailId"`
	IsAlias   bool   `json:"isAlias"`
	IsPrimary bool   `json:"isPrimary"`
}

type SendMailDetail struct {
	SendMailID  string `json:"sendMailId"`
	DisplayName string `json:"displayName"`
	FromAddress string `json:"fromAddress"`
}

// Client talks to the Zoho Mail REST API for one mailbox account. Every
// request fetches a fresh access token via Tokens.
type Client struct {
	http      *http.Client
	tokens    *Tokens
	baseURL   string
	accountID string
}

func NewClient(tokens *Tokens, accountID string) *Client {
	return &Client{
		http:      &http.Client{Timeout: 15 * time.Second},
		tokens:    tokens,
		baseURL:   defaultBaseURL,
		accountID: accountID,
	}
}

// Configured reports whether the client can authenticate.
func (c *Client) Configured() bool {
	return c.tokens.Configured() && c.accountID != ""
}

// Account fetches the mailbox account record.
func (c *Client) Account(ctx context.Context) (Account, error) {
	var envelope struct {
		Data Account `json:"data"`
	}
	url := fmt.Sprintf("%s/accounts/%s", c.baseURL, c.accountID)
	if err := c.do(ctx, http.MethodGet, url, nil, &envelope); err != nil {
		return Account{}, err
	}
	return envelope.Data, nil
}

// SendReply sends a reply to a message through the mailbox.
func (c *Client) SendReply(ctx context.Context, messageID, fromAddress, toAddress, subject, content string) error {
	body := map[string]any{
		"action":      "reply",
		"fromAddress": fromAddress,
		"toAddress":   toAddress,
		"subject":     subject,
		"content":     content,
	}
	url := fmt.Sprintf("%s/accounts/%s/messages/%s", c.baseURL, c.accountID, messageID)
	if err := c.do(ctx, http.MethodPost, url, body, nil); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return err
		}
		return &DispatchError{MessageID: messageID, Err: err}
	}
	return nil
}

// MarkRead flags a message as read.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	body := map[string]any{
		"mode":      "markAsRead",
		"messageId": []string{messageID},
	}
	url := fmt.Sprintf("%s/accounts/%s/updatemessage", c.baseURL, c.accountID)
	if err := c.do(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("mark message %s read: %w", messageID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call zoho: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(payload)}
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
