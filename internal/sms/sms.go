package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rentvest/backend/internal/apperr"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// Client talks to the hosted messaging provider.
type Client struct {
	apiURL string
	apiKey string
	sender string
	http   *http.Client
}

func NewClient(apiURL, apiKey, sender string) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		sender: sender,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(map[string]string{
		"from":    c.sender,
		"to":      phone,
		"message": message,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Upstream, "sms_unavailable", "messaging provider unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apperr.New(apperr.Upstream, "sms_failed", fmt.Sprintf("messaging provider returned %d", resp.StatusCode))
	}
	return nil
}
