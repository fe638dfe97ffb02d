package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentvest/backend/internal/apperr"
)

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5000), body["amount"])
		assert.Equal(t, "https://app.example/api/v1/payments/webhook", body["webhook_url"])

		json.NewEncoder(w).Encode(map[string]string{
			"order_id": "ord-1", "payment_url": "https://pay.example/ord-1",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "https://app.example")
	order, err := c.CreateOrder(context.Background(), 5000, "+250788111222")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.OrderID)
	assert.Equal(t, "https://pay.example/ord-1", order.RedirectURL)
}

func TestCreateOrderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "https://app.example")
	_, err := c.CreateOrder(context.Background(), 5000, "+250788111222")
	assert.True(t, apperr.IsKind(err, apperr.Upstream))
}

func TestOrderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders/ord-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "successful"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "https://app.example")
	st, err := c.OrderStatus(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "successful", st)
}

func TestUnreachableGateway(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "test-key", "https://app.example")
	_, err := c.CreateOrder(context.Background(), 5000, "+250788111222")
	assert.True(t, apperr.IsKind(err, apperr.Upstream))
}
