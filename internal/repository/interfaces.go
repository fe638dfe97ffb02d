package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rentvest/backend/internal/models"
)

// ErrNotFound is returned by all repositories when no row matches.
var ErrNotFound = errors.New("not found")

type Accounts interface {
	Create(ctx context.Context, a models.Account) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	GetByPhone(ctx context.Context, phone string) (models.Account, error)
	GetByReferralCode(ctx context.Context, code string) (models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}

// TxnFilters narrows ListAll. Zero values mean "no filter". Free-text search
// is applied by the caller after the query runs.
type TxnFilters struct {
	Status        models.TransactionStatus
	Type          models.TransactionType
	PaymentMethod models.PaymentMethod
}

type Transactions interface {
	Create(ctx context.Context, t models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	GetByGatewayRef(ctx context.Context, ref string) (models.Transaction, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	ListAll(ctx context.Context, f TxnFilters) ([]models.Transaction, error)
}

type PendingPayments interface {
	Create(ctx context.Context, p models.PendingPayment) error
	Get(ctx context.Context, orderID string) (models.PendingPayment, error)
}

type Referrals interface {
	ListByReferrer(ctx context.Context, referrerID string) ([]models.ReferralCommission, error)
	ExistsForReferred(ctx context.Context, referredAccountID string) (bool, error)
}

type Rentals interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]models.RentalProduct, error)
	GetProduct(ctx context.Context, id string) (models.RentalProduct, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.Rental, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Store runs fn inside a single atomic read-modify-write. The implementation
// provides serializable isolation; reads made through the Tx are not valid
// outside fn.
type Store interface {
	Atomic(ctx context.Context, fn func(Tx) error) error
}

// Tx is the mutation surface available inside Store.Atomic. *ForUpdate reads
// lock the row for the remainder of the atomic block.
type Tx interface {
	TransactionForUpdate(ctx context.Context, id string) (models.Transaction, error)
	InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)
	SetTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, notes string) error

	AccountForUpdate(ctx context.Context, id string) (models.Account, error)
	InsertAccount(ctx context.Context, a models.Account) (models.Account, error)
	// AdjustBalance adds delta (may be negative) to the withdrawable balance.
	AdjustBalance(ctx context.Context, accountID string, delta int64) error
	// CreditDeposit adds amount to deposit_balance and total_deposited.
	CreditDeposit(ctx context.Context, accountID string, amount int64) error
	// InvestDeposit moves amount out of deposit_balance into total_invested.
	InvestDeposit(ctx context.Context, accountID string, amount int64) error

	InsertRental(ctx context.Context, r models.Rental) (models.Rental, error)
	DeletePendingPayment(ctx context.Context, orderID string) error
	InsertReferralCommission(ctx context.Context, c models.ReferralCommission) (models.ReferralCommission, error)

	GiftClaimed(ctx context.Context, accountID, code string) (bool, error)
	InsertClaimedGift(ctx context.Context, g models.ClaimedGift) (models.ClaimedGift, error)
}

// OTPStore holds short-lived verification codes keyed by normalized phone.
type OTPStore interface {
	Get(ctx context.Context, phone string) (models.OTPRecord, error)
	Put(ctx context.Context, rec models.OTPRecord, ttl time.Duration) error
	// IncrAttempts atomically increments and returns the attempt counter.
	IncrAttempts(ctx context.Context, phone string) (int, error)
	Delete(ctx context.Context, phone string) error
}
