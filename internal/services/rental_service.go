package services

import (
	"context"
	"errors"
	"time"

	"github.com/rentvest/backend/internal/apperr"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

// fixed credit for a valid promo code, claimable once per account
const giftAmount = 500

type RentalService struct {
	rentals repo.Rentals
	store   repo.Store
	now     func() time.Time
}

func NewRentalService(rentals repo.Rentals, store repo.Store) *RentalService {
	return &RentalService{rentals: rentals, store: store, now: time.Now}
}

func (s *RentalService) Products(ctx context.Context) ([]models.RentalProduct, error) {
	return s.rentals.ListProducts(ctx, true)
}

func (s *RentalService) ListForAccount(ctx context.Context, accountID string) ([]models.Rental, error) {
	return s.rentals.ListByAccount(ctx, accountID)
}

// Invest buys a rental product out of the account's deposit balance.
func (s *RentalService) Invest(ctx context.Context, accountID, productID string) (models.Rental, error) {
	product, err := s.rentals.GetProduct(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Rental{}, apperr.New(apperr.NotFound, "product_not_found", "rental product does not exist")
	}
	if err != nil {
		return models.Rental{}, apperr.Wrap(apperr.Unknown, "store", "product read failed", err)
	}
	if !product.Active {
		return models.Rental{}, apperr.New(apperr.StateConflict, "product_inactive", "rental product is no longer offered")
	}

	var rental models.Rental
	err = s.store.Atomic(ctx, func(tx repo.Tx) error {
		a, err := tx.AccountForUpdate(ctx, accountID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.NotFound, "account_not_found", "account does not exist")
		}
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "account read failed", err)
		}
		if a.DepositBalance < product.Price {
			return apperr.Newf(apperr.InsufficientFunds, "insufficient_funds",
				"deposit balance %d is below product price %d", a.DepositBalance, product.Price)
		}
		if err := tx.InvestDeposit(ctx, accountID, product.Price); err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "invest debit failed", err)
		}
		rental, err = tx.InsertRental(ctx, models.Rental{
			AccountID: accountID,
			ProductID: product.ID,
			Price:     product.Price,
			ExpiresAt: s.now().Add(time.Duration(product.DurationDays) * 24 * time.Hour),
		})
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "rental write failed", err)
		}
		return nil
	})
	if err != nil {
		return models.Rental{}, err
	}
	return rental, nil
}

// ClaimGift credits a promo gift to the withdrawable balance, once per
// (account, code).
func (s *RentalService) ClaimGift(ctx context.Context, accountID, code string) (models.ClaimedGift, error) {
	code = normalizeGiftCode(code)
	if len(code) < 4 {
		return models.ClaimedGift{}, apperr.New(apperr.Validation, "invalid_gift_code", "malformed gift code")
	}

	var gift models.ClaimedGift
	err := s.store.Atomic(ctx, func(tx repo.Tx) error {
		claimed, err := tx.GiftClaimed(ctx, accountID, code)
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "gift read failed", err)
		}
		if claimed {
			return apperr.New(apperr.StateConflict, "gift_already_claimed", "gift code already claimed")
		}
		gift, err = tx.InsertClaimedGift(ctx, models.ClaimedGift{
			AccountID: accountID,
			Code:      code,
			Amount:    giftAmount,
		})
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "gift write failed", err)
		}
		return tx.AdjustBalance(ctx, accountID, giftAmount)
	})
	if err != nil {
		return models.ClaimedGift{}, err
	}
	return gift, nil
}

func normalizeGiftCode(code string) string {
	out := make([]rune, 0, len(code))
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r-'a'+'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-':
			out = append(out, r)
		}
	}
	return string(out)
}
