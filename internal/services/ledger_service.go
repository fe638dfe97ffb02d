package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rentvest/backend/internal/apperr"
	"github.com/rentvest/backend/internal/metrics"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
	"github.com/rentvest/backend/internal/worker"
)

// ChangeNotifier is poked after every transaction write so feed subscribers
// see the change.
type ChangeNotifier interface {
	Notify()
}

// LedgerService applies approve/reject decisions to pending transactions.
// Balance effects run inside a single atomic block; a precondition failure
// aborts the whole operation.
type LedgerService struct {
	store repo.Store
	txns  repo.Transactions
	audit repo.AuditLogs
	wp    *worker.Pool
	feed  ChangeNotifier
}

func NewLedgerService(store repo.Store, txns repo.Transactions, audit repo.AuditLogs, wp *worker.Pool, feed ChangeNotifier) *LedgerService {
	return &LedgerService{store: store, txns: txns, audit: audit, wp: wp, feed: feed}
}

// WithdrawalRequest is a user-submitted payout request. It has no balance
// effect until an admin approves it.
type WithdrawalRequest struct {
	AccountID       string
	Amount          int64
	PaymentMethod   models.PaymentMethod
	Phone           string
	BeneficiaryName string
	CryptoAddress   string
}

func (s *LedgerService) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (models.Transaction, error) {
	if req.Amount <= 0 {
		return models.Transaction{}, apperr.New(apperr.Validation, "invalid_amount", "amount must be positive")
	}
	switch req.PaymentMethod {
	case models.MethodMobileMoney:
		if models.NormalizePhone(req.Phone) == "" || req.BeneficiaryName == "" {
			return models.Transaction{}, apperr.New(apperr.Validation, "missing_beneficiary", "mobile money withdrawals need a phone and beneficiary name")
		}
	case models.MethodCrypto:
		if req.CryptoAddress == "" {
			return models.Transaction{}, apperr.New(apperr.Validation, "missing_address", "crypto withdrawals need an address")
		}
	default:
		return models.Transaction{}, apperr.New(apperr.Validation, "invalid_method", "unsupported payment method")
	}

	t, err := s.txns.Create(ctx, models.Transaction{
		AccountID:       req.AccountID,
		Type:            models.TxnWithdrawal,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		Status:          models.TxnPending,
		Phone:           models.NormalizePhone(req.Phone),
		BeneficiaryName: req.BeneficiaryName,
		CryptoAddress:   req.CryptoAddress,
	})
	if err != nil {
		return models.Transaction{}, apperr.Wrap(apperr.Unknown, "store", "withdrawal write failed", err)
	}
	s.auditAsync(t.ID, "submitted", "withdrawal request")
	s.feed.Notify()
	return t, nil
}

// ClaimDeposit records a manual mobile-money deposit awaiting admin approval.
func (s *LedgerService) ClaimDeposit(ctx context.Context, accountID string, amount int64, phone string) (models.Transaction, error) {
	if amount <= 0 {
		return models.Transaction{}, apperr.New(apperr.Validation, "invalid_amount", "amount must be positive")
	}
	t, err := s.txns.Create(ctx, models.Transaction{
		AccountID:     accountID,
		Type:          models.TxnDeposit,
		Amount:        amount,
		PaymentMethod: models.MethodMobileMoney,
		Status:        models.TxnPending,
		Phone:         models.NormalizePhone(phone),
	})
	if err != nil {
		return models.Transaction{}, apperr.Wrap(apperr.Unknown, "store", "deposit write failed", err)
	}
	s.auditAsync(t.ID, "submitted", "manual deposit claim")
	s.feed.Notify()
	return t, nil
}

// Approve moves a pending transaction to success, crediting a deposit or
// debiting a withdrawal.
func (s *LedgerService) Approve(ctx context.Context, txID string) (models.Transaction, error) {
	var out models.Transaction
	err := s.store.Atomic(ctx, func(tx repo.Tx) error {
		t, err := tx.TransactionForUpdate(ctx, txID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.NotFound, "transaction_not_found", "transaction does not exist")
		}
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "transaction read failed", err)
		}
		if t.Terminal() {
			return apperr.New(apperr.StateConflict, "transaction_already_processed", "transaction is not pending")
		}

		switch t.Type {
		case models.TxnDeposit:
			if err := s.applyDeposit(ctx, tx, t); err != nil {
				return err
			}
		case models.TxnWithdrawal:
			if err := s.applyWithdrawal(ctx, tx, t); err != nil {
				return err
			}
		default:
			return apperr.New(apperr.StateConflict, "wrong_transaction_type", "transaction type cannot be approved")
		}

		if err := tx.SetTransactionStatus(ctx, t.ID, models.TxnSuccess, t.AdminNotes); err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "status update failed", err)
		}
		out = t
		out.Status = models.TxnSuccess
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	metrics.ApprovalsTotal.WithLabelValues(string(out.Type)).Inc()
	s.auditAsync(out.ID, "approved", fmt.Sprintf("%s of %d via %s", out.Type, out.Amount, out.PaymentMethod))
	s.feed.Notify()
	return out, nil
}

func (s *LedgerService) applyDeposit(ctx context.Context, tx repo.Tx, t models.Transaction) error {
	_, err := tx.AccountForUpdate(ctx, t.AccountID)
	if errors.Is(err, repo.ErrNotFound) {
		// first deposit from an unregistered payer creates the account
		_, err := tx.InsertAccount(ctx, models.Account{
			ID:           t.AccountID,
			Phone:        models.NormalizePhone(t.Phone),
			Role:         models.RoleUser,
			Balance:      t.Amount,
			ReferralCode: models.NewReferralCode(),
		})
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "account create failed", err)
		}
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.Unknown, "store", "account read failed", err)
	}
	if err := tx.AdjustBalance(ctx, t.AccountID, t.Amount); err != nil {
		return apperr.Wrap(apperr.Unknown, "store", "balance credit failed", err)
	}
	return nil
}

func (s *LedgerService) applyWithdrawal(ctx context.Context, tx repo.Tx, t models.Transaction) error {
	a, err := tx.AccountForUpdate(ctx, t.AccountID)
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.New(apperr.NotFound, "account_not_found", "owning account does not exist")
	}
	if err != nil {
		return apperr.Wrap(apperr.Unknown, "store", "account read failed", err)
	}
	if a.Balance < t.Amount {
		return apperr.Newf(apperr.InsufficientFunds, "insufficient_funds",
			"balance %d is below withdrawal amount %d", a.Balance, t.Amount)
	}
	if err := tx.AdjustBalance(ctx, t.AccountID, -t.Amount); err != nil {
		return apperr.Wrap(apperr.Unknown, "store", "balance debit failed", err)
	}
	return nil
}

// Reject moves a pending transaction to rejected. No balance effect.
func (s *LedgerService) Reject(ctx context.Context, txID, reason string) (models.Transaction, error) {
	var out models.Transaction
	err := s.store.Atomic(ctx, func(tx repo.Tx) error {
		t, err := tx.TransactionForUpdate(ctx, txID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.NotFound, "transaction_not_found", "transaction does not exist")
		}
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "transaction read failed", err)
		}
		if t.Terminal() {
			return apperr.New(apperr.StateConflict, "transaction_already_processed", "transaction is not pending")
		}
		if err := tx.SetTransactionStatus(ctx, t.ID, models.TxnRejected, reason); err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "status update failed", err)
		}
		out = t
		out.Status = models.TxnRejected
		out.AdminNotes = reason
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	metrics.RejectionsTotal.Inc()
	s.auditAsync(out.ID, "rejected", reason)
	s.feed.Notify()
	return out, nil
}

func (s *LedgerService) auditAsync(entityID, action, details string) {
	s.wp.Submit(func() {
		id := entityID
		var det map[string]any
		if details != "" {
			det = map[string]any{"message": details}
		}
		_ = s.audit.Create(context.Background(), models.AuditLog{
			EntityType: "transaction",
			EntityID:   &id,
			Action:     action,
			Details:    det,
		})
	})
}
