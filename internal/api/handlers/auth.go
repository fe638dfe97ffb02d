package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rentvest/backend/internal/api/httpx"
	"github.com/rentvest/backend/internal/auth"
	"github.com/rentvest/backend/internal/middleware"
	"github.com/rentvest/backend/internal/models"
)

// OTPGate is the slice of the OTP service the handler uses.
type OTPGate interface {
	Send(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) error
}

type AccountDirectory interface {
	GetOrCreateByPhone(ctx context.Context, phone, referralCode string) (models.Account, error)
	AdminLogin(ctx context.Context, phone, password string) (models.Account, error)
	Bootstrap(ctx context.Context, key, phone, password string) (models.Account, error)
	Get(ctx context.Context, id string) (models.Account, error)
}

type AuthHandler struct {
	OTP      OTPGate
	Accounts AccountDirectory
	TM       *auth.TokenManager
}

func NewAuthHandler(otp OTPGate, accounts AccountDirectory, tm *auth.TokenManager) *AuthHandler {
	return &AuthHandler{OTP: otp, Accounts: accounts, TM: tm}
}

type tokenResp struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    int64          `json:"expires_in"` // seconds until the access token expires
	Account      models.Account `json:"account"`
}

func (h *AuthHandler) tokens(w http.ResponseWriter, a models.Account) {
	access, refresh, exp, err := h.TM.GeneratePair(a.ID, string(a.Role))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "token_generation", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Seconds()),
		Account:      a,
	})
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	if err := h.OTP.Send(r.Context(), req.Phone); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone        string `json:"phone"`
		Code         string `json:"code"`
		ReferralCode string `json:"referral_code,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	if err := h.OTP.Verify(r.Context(), req.Phone, req.Code); err != nil {
		httpx.Error(w, err)
		return
	}
	a, err := h.Accounts.GetOrCreateByPhone(r.Context(), req.Phone, req.ReferralCode)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.tokens(w, a)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	claims, isRefresh, err := h.TM.ParseAny(req.RefreshToken)
	if err != nil || !isRefresh {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid refresh token", nil)
		return
	}
	a, err := h.Accounts.Get(r.Context(), claims.AccountID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.tokens(w, a)
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	a, err := h.Accounts.AdminLogin(r.Context(), req.Phone, req.Password)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.tokens(w, a)
}

func (h *AuthHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key      string `json:"key"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	a, err := h.Accounts.Bootstrap(r.Context(), req.Key, req.Phone, req.Password)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.AccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
		return
	}
	a, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}
