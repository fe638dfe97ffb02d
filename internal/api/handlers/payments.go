package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rentvest/backend/internal/api/httpx"
	"github.com/rentvest/backend/internal/api/validate"
	"github.com/rentvest/backend/internal/middleware"
	"github.com/rentvest/backend/internal/services"
)

type Payments interface {
	Initiate(ctx context.Context, accountID string, amount int64, phone string) (services.InitiateResult, error)
	Verify(ctx context.Context, accountID, orderID string) (string, error)
	HandleWebhook(ctx context.Context, payload services.WebhookPayload) error
}

type PaymentHandler struct {
	Svc Payments
}

func NewPaymentHandler(svc Payments) *PaymentHandler { return &PaymentHandler{Svc: svc} }

func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	var req struct {
		Amount int64  `json:"amount"`
		Phone  string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	var errs validate.Errs
	if e := validate.MinInt("amount", req.Amount, 1); e != nil {
		errs = append(errs, *e)
	}
	if e := validate.Phone("phone", req.Phone); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", errs.Error(), errs)
		return
	}
	res, err := h.Svc.Initiate(r.Context(), accountID, req.Amount, req.Phone)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "order_id required", nil)
		return
	}
	status, err := h.Svc.Verify(r.Context(), accountID, req.OrderID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"order_id": req.OrderID, "status": status})
}

// Webhook is called by the gateway, not by clients. A malformed body or an
// unknown order is answered with an error; the gateway owns redelivery.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload services.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.OrderID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid webhook payload", nil)
		return
	}
	if err := h.Svc.HandleWebhook(r.Context(), payload); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
