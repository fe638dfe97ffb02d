package services

import (
	"context"
	"errors"

	"github.com/rentvest/backend/internal/apperr"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

// commission paid to the referrer, as a percentage of the referred account's
// first successful gateway deposit
const commissionPercent = 10

type ReferralService struct {
	accounts  repo.Accounts
	referrals repo.Referrals
	store     repo.Store
}

func NewReferralService(accounts repo.Accounts, referrals repo.Referrals, store repo.Store) *ReferralService {
	return &ReferralService{accounts: accounts, referrals: referrals, store: store}
}

var errAlreadyPaid = errors.New("commission already paid")

// PayFirstDepositCommission credits the referrer once per referred account.
// It is a no-op for accounts without a referrer or with a commission already
// recorded.
func (s *ReferralService) PayFirstDepositCommission(ctx context.Context, accountID string, depositAmount int64) error {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if a.ReferredBy == nil {
		return nil
	}
	exists, err := s.referrals.ExistsForReferred(ctx, accountID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	commission := depositAmount * commissionPercent / 100
	if commission <= 0 {
		return nil
	}

	referrerID := *a.ReferredBy
	err = s.store.Atomic(ctx, func(tx repo.Tx) error {
		_, err := tx.InsertReferralCommission(ctx, models.ReferralCommission{
			ReferrerID:        referrerID,
			ReferredAccountID: accountID,
			DepositAmount:     depositAmount,
			Commission:        commission,
		})
		if errors.Is(err, repo.ErrNotFound) {
			// lost the race with a concurrent webhook delivery
			return errAlreadyPaid
		}
		if err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, referrerID, commission)
	})
	if errors.Is(err, errAlreadyPaid) {
		return nil
	}
	return err
}

// ListForAccount returns the account's commission rows and their total.
func (s *ReferralService) ListForAccount(ctx context.Context, accountID string) ([]models.ReferralCommission, int64, error) {
	list, err := s.referrals.ListByReferrer(ctx, accountID)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Unknown, "store", "referral read failed", err)
	}
	var total int64
	for _, c := range list {
		total += c.Commission
	}
	return list, total, nil
}
