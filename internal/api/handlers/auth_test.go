package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentvest/backend/internal/apperr"
	"github.com/rentvest/backend/internal/auth"
	"github.com/rentvest/backend/internal/models"
)

type otpGateMock struct {
	send   func(ctx context.Context, phone string) error
	verify func(ctx context.Context, phone, code string) error
}

func (m *otpGateMock) Send(ctx context.Context, phone string) error { return m.send(ctx, phone) }
func (m *otpGateMock) Verify(ctx context.Context, phone, code string) error {
	return m.verify(ctx, phone, code)
}

type accountsMock struct {
	getOrCreate func(ctx context.Context, phone, referralCode string) (models.Account, error)
	adminLogin  func(ctx context.Context, phone, password string) (models.Account, error)
	bootstrap   func(ctx context.Context, key, phone, password string) (models.Account, error)
	get         func(ctx context.Context, id string) (models.Account, error)
}

func (m *accountsMock) GetOrCreateByPhone(ctx context.Context, phone, referralCode string) (models.Account, error) {
	return m.getOrCreate(ctx, phone, referralCode)
}
func (m *accountsMock) AdminLogin(ctx context.Context, phone, password string) (models.Account, error) {
	return m.adminLogin(ctx, phone, password)
}
func (m *accountsMock) Bootstrap(ctx context.Context, key, phone, password string) (models.Account, error) {
	return m.bootstrap(ctx, key, phone, password)
}
func (m *accountsMock) Get(ctx context.Context, id string) (models.Account, error) {
	return m.get(ctx, id)
}

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("access-secret", "refresh-secret", "rentvest-test", 15*time.Minute, 7*24*time.Hour)
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestSendOTP(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := NewAuthHandler(&otpGateMock{
			send: func(ctx context.Context, phone string) error { return nil },
		}, nil, testTokenManager())

		rec := postJSON(t, h.SendOTP, map[string]string{"phone": "+250788111222"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rate limited renders 429 with details", func(t *testing.T) {
		h := NewAuthHandler(&otpGateMock{
			send: func(ctx context.Context, phone string) error {
				return apperr.New(apperr.RateLimited, "otp_rate_limited", "code already sent").With("seconds_left", 42)
			},
		}, nil, testTokenManager())

		rec := postJSON(t, h.SendOTP, map[string]string{"phone": "+250788111222"})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "otp_rate_limited", body.Code)
		assert.Equal(t, float64(42), body.Details["seconds_left"])
	})
}

func TestVerifyOTP(t *testing.T) {
	account := models.Account{ID: "acc-1", Phone: "+250788111222", Role: models.RoleUser}

	t.Run("issues a token pair", func(t *testing.T) {
		tm := testTokenManager()
		var gotReferral string
		h := NewAuthHandler(&otpGateMock{
			verify: func(ctx context.Context, phone, code string) error { return nil },
		}, &accountsMock{
			getOrCreate: func(ctx context.Context, phone, referralCode string) (models.Account, error) {
				gotReferral = referralCode
				return account, nil
			},
		}, tm)

		rec := postJSON(t, h.VerifyOTP, map[string]string{
			"phone": "+250788111222", "code": "123456", "referral_code": "ABCD1234",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ABCD1234", gotReferral)

		var body struct {
			AccessToken  string         `json:"access_token"`
			RefreshToken string         `json:"refresh_token"`
			ExpiresIn    int64          `json:"expires_in"`
			Account      models.Account `json:"account"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "acc-1", body.Account.ID)
		assert.Greater(t, body.ExpiresIn, int64(0))

		claims, isRefresh, err := tm.ParseAny(body.AccessToken)
		require.NoError(t, err)
		assert.False(t, isRefresh)
		assert.Equal(t, "acc-1", claims.AccountID)

		_, isRefresh, err = tm.ParseAny(body.RefreshToken)
		require.NoError(t, err)
		assert.True(t, isRefresh)
	})

	t.Run("wrong code", func(t *testing.T) {
		h := NewAuthHandler(&otpGateMock{
			verify: func(ctx context.Context, phone, code string) error {
				return apperr.New(apperr.Validation, "incorrect_code", "incorrect verification code")
			},
		}, nil, testTokenManager())

		rec := postJSON(t, h.VerifyOTP, map[string]string{"phone": "+250788111222", "code": "000000"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "incorrect_code")
	})
}

func TestRefresh(t *testing.T) {
	tm := testTokenManager()
	account := models.Account{ID: "acc-1", Role: models.RoleUser}
	h := NewAuthHandler(nil, &accountsMock{
		get: func(ctx context.Context, id string) (models.Account, error) { return account, nil },
	}, tm)

	access, refresh, _, err := tm.GeneratePair("acc-1", "user")
	require.NoError(t, err)

	t.Run("refresh token works", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, map[string]string{"refresh_token": refresh})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("access token is refused", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, map[string]string{"refresh_token": access})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage is refused", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, map[string]string{"refresh_token": "not-a-token"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminLogin(t *testing.T) {
	h := NewAuthHandler(nil, &accountsMock{
		adminLogin: func(ctx context.Context, phone, password string) (models.Account, error) {
			if password == "right-password" {
				return models.Account{ID: "adm-1", Role: models.RoleAdmin}, nil
			}
			return models.Account{}, apperr.New(apperr.Validation, "invalid_credentials", "invalid phone or password")
		},
	}, testTokenManager())

	rec := postJSON(t, h.AdminLogin, map[string]string{"phone": "+250788000111", "password": "right-password"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.AdminLogin, map[string]string{"phone": "+250788000111", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_credentials")
}
