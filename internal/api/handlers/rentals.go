package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rentvest/backend/internal/api/httpx"
	"github.com/rentvest/backend/internal/middleware"
	"github.com/rentvest/backend/internal/models"
)

type Rentals interface {
	Products(ctx context.Context) ([]models.RentalProduct, error)
	ListForAccount(ctx context.Context, accountID string) ([]models.Rental, error)
	Invest(ctx context.Context, accountID, productID string) (models.Rental, error)
	ClaimGift(ctx context.Context, accountID, code string) (models.ClaimedGift, error)
}

type Referrals interface {
	ListForAccount(ctx context.Context, accountID string) ([]models.ReferralCommission, int64, error)
}

type RentalHandler struct {
	Rentals   Rentals
	Referrals Referrals
}

func NewRentalHandler(rentals Rentals, referrals Referrals) *RentalHandler {
	return &RentalHandler{Rentals: rentals, Referrals: referrals}
}

func (h *RentalHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.Rentals.Products(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, products)
}

func (h *RentalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	rentals, err := h.Rentals.ListForAccount(r.Context(), accountID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rentals)
}

func (h *RentalHandler) Invest(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "product_id required", nil)
		return
	}
	rental, err := h.Rentals.Invest(r.Context(), accountID, req.ProductID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rental)
}

func (h *RentalHandler) ClaimGift(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	gift, err := h.Rentals.ClaimGift(r.Context(), accountID, req.Code)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, gift)
}

func (h *RentalHandler) MyReferrals(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	list, total, err := h.Referrals.ListForAccount(r.Context(), accountID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"commissions": list,
		"total":       total,
	})
}
