package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rentvest/backend/internal/api/httpx"
	"github.com/rentvest/backend/internal/api/validate"
	"github.com/rentvest/backend/internal/middleware"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
	"github.com/rentvest/backend/internal/services"
)

type Ledger interface {
	Approve(ctx context.Context, txID string) (models.Transaction, error)
	Reject(ctx context.Context, txID, reason string) (models.Transaction, error)
	RequestWithdrawal(ctx context.Context, req services.WithdrawalRequest) (models.Transaction, error)
	ClaimDeposit(ctx context.Context, accountID string, amount int64, phone string) (models.Transaction, error)
}

type Feed interface {
	ListForAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	ListAll(ctx context.Context, f services.FeedFilters) ([]models.Transaction, error)
	SubscribeAccount(accountID string, fn func([]models.Transaction)) (cancel func())
}

type TransactionHandler struct {
	Ledger Ledger
	Feed   Feed
}

func NewTransactionHandler(ledger Ledger, feed Feed) *TransactionHandler {
	return &TransactionHandler{Ledger: ledger, Feed: feed}
}

func (h *TransactionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	list, err := h.Feed.ListForAccount(r.Context(), accountID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// StreamMine pushes the full recomputed transaction list over SSE on every
// store change. The subscription is released when the client disconnects.
func (h *TransactionHandler) StreamMine(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := make(chan []models.Transaction, 4)
	cancel := h.Feed.SubscribeAccount(accountID, func(list []models.Transaction) {
		select {
		case updates <- list:
		default: // drop when the client is slow; the next change resends everything
		}
	})
	defer cancel()

	if list, err := h.Feed.ListForAccount(r.Context(), accountID); err == nil {
		writeSSE(w, list)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case list := <-updates:
			writeSSE(w, list)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n\n"))
}

func (h *TransactionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.FeedFilters{
		TxnFilters: repo.TxnFilters{
			Status:        models.TransactionStatus(q.Get("status")),
			Type:          models.TransactionType(q.Get("type")),
			PaymentMethod: models.PaymentMethod(q.Get("payment_method")),
		},
		Search: q.Get("search"),
	}
	list, err := h.Feed.ListAll(r.Context(), f)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *TransactionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	t, err := h.Ledger.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *TransactionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	t, err := h.Ledger.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *TransactionHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	var req struct {
		Amount          int64  `json:"amount"`
		PaymentMethod   string `json:"payment_method"`
		Phone           string `json:"phone"`
		BeneficiaryName string `json:"beneficiary_name"`
		CryptoAddress   string `json:"crypto_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	var errs validate.Errs
	if e := validate.MinInt("amount", req.Amount, 1); e != nil {
		errs = append(errs, *e)
	}
	if e := validate.Required("payment_method", req.PaymentMethod); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", errs.Error(), errs)
		return
	}
	t, err := h.Ledger.RequestWithdrawal(r.Context(), services.WithdrawalRequest{
		AccountID:       accountID,
		Amount:          req.Amount,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		Phone:           req.Phone,
		BeneficiaryName: req.BeneficiaryName,
		CryptoAddress:   req.CryptoAddress,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, t)
}

func (h *TransactionHandler) ClaimDeposit(w http.ResponseWriter, r *http.Request) {
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
	t, err := h.Ledger.ClaimDeposit(r.Context(), accountID, req.Amount, req.Phone)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, t)
}
