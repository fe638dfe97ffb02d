package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rentvest/backend/internal/apperr"
	"github.com/rentvest/backend/internal/metrics"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
	"github.com/rentvest/backend/internal/sms"
)

const (
	otpTTL         = 5 * time.Minute
	otpResendAfter = 60 * time.Second
	otpMaxAttempts = 5
)

type OTPService struct {
	store repo.OTPStore
	sms   sms.Sender
	now   func() time.Time
}

func NewOTPService(store repo.OTPStore, sender sms.Sender) *OTPService {
	return &OTPService{store: store, sms: sender, now: time.Now}
}

// Send issues a fresh 6-digit code for the phone and dispatches it via the
// messaging provider. A code sent less than 60s ago rate-limits the call.
func (s *OTPService) Send(ctx context.Context, phone string) error {
	phone = models.NormalizePhone(phone)
	if len(phone) < 8 {
		return apperr.New(apperr.Validation, "invalid_phone", "malformed phone number")
	}

	now := s.now()
	rec, err := s.store.Get(ctx, phone)
	switch {
	case err == nil:
		if wait := otpResendAfter - now.Sub(rec.SentAt); wait > 0 {
			secs := int((wait + time.Second - 1) / time.Second)
			return apperr.New(apperr.RateLimited, "otp_rate_limited", "code already sent").
				With("seconds_left", secs)
		}
	case errors.Is(err, repo.ErrNotFound):
		// no pending code
	default:
		return apperr.Wrap(apperr.Unknown, "otp_store", "otp store read failed", err)
	}

	code, err := generateCode()
	if err != nil {
		return apperr.Wrap(apperr.Unknown, "otp_generate", "code generation failed", err)
	}
	rec = models.OTPRecord{
		Phone:     phone,
		Code:      code,
		ExpiresAt: now.Add(otpTTL),
		SentAt:    now,
	}
	if err := s.store.Put(ctx, rec, otpTTL); err != nil {
		return apperr.Wrap(apperr.Unknown, "otp_store", "otp store write failed", err)
	}

	if err := s.sms.Send(ctx, phone, "Your verification code is "+code+". It expires in 5 minutes."); err != nil {
		return err
	}
	metrics.OTPSent.Inc()
	return nil
}

// Verify checks the supplied code. The attempt counter is incremented before
// the comparison, so the call that reaches the limit is rejected even when
// the code matches.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	phone = models.NormalizePhone(phone)

	rec, err := s.store.Get(ctx, phone)
	if errors.Is(err, repo.ErrNotFound) {
		metrics.OTPVerifyFailures.WithLabelValues("no_code").Inc()
		return apperr.New(apperr.NotFound, "no_code_sent", "no verification code was sent to this number")
	}
	if err != nil {
		return apperr.Wrap(apperr.Unknown, "otp_store", "otp store read failed", err)
	}

	if s.now().After(rec.ExpiresAt) {
		_ = s.store.Delete(ctx, phone)
		metrics.OTPVerifyFailures.WithLabelValues("expired").Inc()
		return apperr.New(apperr.StateConflict, "otp_expired", "verification code expired")
	}
	if rec.Attempts >= otpMaxAttempts {
		_ = s.store.Delete(ctx, phone)
		metrics.OTPVerifyFailures.WithLabelValues("exhausted").Inc()
		return apperr.New(apperr.StateConflict, "too_many_attempts", "too many verification attempts")
	}

	attempts, err := s.store.IncrAttempts(ctx, phone)
	if err != nil {
		return apperr.Wrap(apperr.Unknown, "otp_store", "otp store write failed", err)
	}
	if attempts >= otpMaxAttempts {
		_ = s.store.Delete(ctx, phone)
		metrics.OTPVerifyFailures.WithLabelValues("exhausted").Inc()
		return apperr.New(apperr.StateConflict, "too_many_attempts", "too many verification attempts")
	}

	if strings.TrimSpace(code) != rec.Code {
		metrics.OTPVerifyFailures.WithLabelValues("mismatch").Inc()
		return apperr.New(apperr.Validation, "incorrect_code", "incorrect verification code").
			With("attempts_remaining", otpMaxAttempts-attempts)
	}

	return s.store.Delete(ctx, phone)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}
