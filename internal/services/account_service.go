package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rentvest/backend/internal/apperr"
	"github.com/rentvest/backend/internal/auth"
	"github.com/rentvest/backend/internal/config"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

type AccountService struct {
	accounts repo.Accounts
	cfg      config.Config
}

func NewAccountService(accounts repo.Accounts, cfg config.Config) *AccountService {
	return &AccountService{accounts: accounts, cfg: cfg}
}

// GetOrCreateByPhone is the signup/login path behind OTP verification.
// Referral attribution happens at creation time only; an unknown referral
// code is ignored.
func (s *AccountService) GetOrCreateByPhone(ctx context.Context, phone, referralCode string) (models.Account, error) {
	phone = models.NormalizePhone(phone)
	if len(phone) < 8 {
		return models.Account{}, apperr.New(apperr.Validation, "invalid_phone", "malformed phone number")
	}

	a, err := s.accounts.GetByPhone(ctx, phone)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return models.Account{}, apperr.Wrap(apperr.Unknown, "store", "account read failed", err)
	}

	var referredBy *string
	if referralCode != "" {
		ref, err := s.accounts.GetByReferralCode(ctx, referralCode)
		switch {
		case err == nil:
			referredBy = &ref.ID
		case errors.Is(err, repo.ErrNotFound):
			slog.Info("unknown referral code at signup", "code", referralCode)
		default:
			return models.Account{}, apperr.Wrap(apperr.Unknown, "store", "referral lookup failed", err)
		}
	}

	a, err = s.accounts.Create(ctx, models.Account{
		Phone:        phone,
		Role:         models.RoleUser,
		ReferralCode: models.NewReferralCode(),
		ReferredBy:   referredBy,
	})
	if err != nil {
		return models.Account{}, apperr.Wrap(apperr.Unknown, "store", "account create failed", err)
	}
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (models.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Account{}, apperr.New(apperr.NotFound, "account_not_found", "account does not exist")
	}
	if err != nil {
		return models.Account{}, apperr.Wrap(apperr.Unknown, "store", "account read failed", err)
	}
	return a, nil
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.accounts.List(ctx)
}

// AdminLogin authenticates a back-office account by phone and password.
func (s *AccountService) AdminLogin(ctx context.Context, phone, password string) (models.Account, error) {
	a, err := s.accounts.GetByPhone(ctx, models.NormalizePhone(phone))
	if errors.Is(err, repo.ErrNotFound) {
		return models.Account{}, apperr.New(apperr.Validation, "invalid_credentials", "invalid phone or password")
	}
	if err != nil {
		return models.Account{}, apperr.Wrap(apperr.Unknown, "store", "account read failed", err)
	}
	if a.Role != models.RoleAdmin || auth.VerifyPassword(password, a.PasswordHash) != nil {
		return models.Account{}, apperr.New(apperr.Validation, "invalid_credentials", "invalid phone or password")
	}
	return a, nil
}

// Bootstrap seeds an admin account. Guarded by the configured bootstrap key
// and idempotent per phone.
func (s *AccountService) Bootstrap(ctx context.Context, key, phone, password string) (models.Account, error) {
	if s.cfg.AdminBootstrapKey == "" || key != s.cfg.AdminBootstrapKey {
		return models.Account{}, apperr.New(apperr.Validation, "bad_bootstrap_key", "bootstrap key mismatch")
	}
	phone = models.NormalizePhone(phone)
	if len(phone) < 8 {
		return models.Account{}, apperr.New(apperr.Validation, "invalid_phone", "malformed phone number")
	}
	if len(password) < 8 {
		return models.Account{}, apperr.New(apperr.Validation, "weak_password", "password must be at least 8 characters")
	}

	if a, err := s.accounts.GetByPhone(ctx, phone); err == nil {
		if a.Role != models.RoleAdmin {
			return models.Account{}, apperr.New(apperr.StateConflict, "phone_taken", "phone belongs to a non-admin account")
		}
		return a, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return models.Account{}, apperr.Wrap(apperr.Unknown, "store", "account read failed", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.Account{}, apperr.Wrap(apperr.Unknown, "hash", "password hash failed", err)
	}
	a, err := s.accounts.Create(ctx, models.Account{
		Phone:        phone,
		Role:         models.RoleAdmin,
		ReferralCode: models.NewReferralCode(),
		PasswordHash: hash,
	})
	if err != nil {
		return models.Account{}, apperr.Wrap(apperr.Unknown, "store", "account create failed", err)
	}
	return a, nil
}
