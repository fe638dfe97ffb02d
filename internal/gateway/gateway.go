package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rentvest/backend/internal/apperr"
)

// Order is a payment session created on the gateway side.
type Order struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"payment_url"`
}

// Client wraps the third-party payment gateway HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	appBaseURL string
	http       *http.Client
}

func NewClient(baseURL, apiKey, appBaseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		appBaseURL: appBaseURL,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateOrder opens a payment session. The gateway redirects the payer to
// RedirectURL and later reports the outcome to our webhook.
func (c *Client) CreateOrder(ctx context.Context, amount int64, phone string) (Order, error) {
	body, err := json.Marshal(map[string]any{
		"amount":      amount,
		"phone":       phone,
		"return_url":  c.appBaseURL + "/payments/return",
		"webhook_url": c.appBaseURL + "/api/v1/payments/webhook",
	})
	if err != nil {
		return Order{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Order{}, apperr.Wrap(apperr.Upstream, "gateway_unavailable", "payment gateway unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Order{}, apperr.New(apperr.Upstream, "gateway_error", fmt.Sprintf("payment gateway returned %d", resp.StatusCode))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, apperr.Wrap(apperr.Upstream, "gateway_error", "malformed gateway response", err)
	}
	return order, nil
}

// OrderStatus asks the gateway for the current status of an order.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/orders/"+orderID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.Upstream, "gateway_unavailable", "payment gateway unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", apperr.New(apperr.Upstream, "gateway_error", fmt.Sprintf("payment gateway returned %d", resp.StatusCode))
	}

	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(apperr.Upstream, "gateway_error", "malformed gateway response", err)
	}
	return out.Status, nil
}
