package sms

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

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sms-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sms-key", "RentVest")
	require.NoError(t, c.Send(context.Background(), "+250788111222", "Your verification code is 123456"))
	assert.Equal(t, "RentVest", got["from"])
	assert.Equal(t, "+250788111222", got["to"])
	assert.Contains(t, got["message"], "123456")
}

func TestSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sms-key", "RentVest")
	err := c.Send(context.Background(), "+250788111222", "hi")
	assert.True(t, apperr.IsKind(err, apperr.Upstream))
}
