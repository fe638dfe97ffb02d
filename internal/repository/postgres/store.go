package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

type store struct{ pool *pgxpool.Pool }

// maxTxAttempts bounds the serialization-failure retry loop. Serializable
// transactions that lose a row-lock race abort with SQLSTATE 40001 and are
// safe to rerun.
const maxTxAttempts = 3

// Atomic runs fn inside one serializable database transaction, retrying on
// serialization failure. Any other error from fn rolls the whole block back.
func (s *store) Atomic(ctx context.Context, fn func(repo.Tx) error) error {
	return withSerializableRetry(func() error { return s.runTx(ctx, fn) })
}

func (s *store) runTx(ctx context.Context, fn func(repo.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(&storeTx{tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func withSerializableRetry(run func() error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if err = run(); !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

// isSerializationFailure matches SQLSTATE 40001 (serialization_failure) and
// 40P01 (deadlock_detected), both of which abort the transaction but leave
// it safe to rerun.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

type storeTx struct{ tx pgx.Tx }

func (s *storeTx) TransactionForUpdate(ctx context.Context, id string) (models.Transaction, error) {
	return scanTxn(s.tx.QueryRow(ctx,
		`SELECT `+txnCols+` FROM transactions WHERE id=$1 FOR UPDATE`, id))
}

func (s *storeTx) InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return scanTxn(s.tx.QueryRow(ctx,
		`INSERT INTO transactions(id, account_id, type, amount, payment_method, status, phone, beneficiary_name, crypto_address, gateway_ref, admin_notes)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING `+txnCols,
		t.ID, t.AccountID, t.Type, t.Amount, t.PaymentMethod, t.Status, t.Phone, t.BeneficiaryName, t.CryptoAddress, t.GatewayRef, t.AdminNotes,
	))
}

func (s *storeTx) SetTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, notes string) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE transactions SET status=$2, admin_notes=$3, updated_at=now() WHERE id=$1`,
		id, status, notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *storeTx) AccountForUpdate(ctx context.Context, id string) (models.Account, error) {
	return scanAccount(s.tx.QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1 FOR UPDATE`, id))
}

func (s *storeTx) InsertAccount(ctx context.Context, a models.Account) (models.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.tx.Exec(ctx,
		`INSERT INTO accounts(id, phone, role, balance, deposit_balance, total_deposited, total_invested, referral_code, referred_by, password_hash)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.Phone, a.Role, a.Balance, a.DepositBalance, a.TotalDeposited, a.TotalInvested, a.ReferralCode, a.ReferredBy, a.PasswordHash,
	)
	if err != nil {
		return models.Account{}, err
	}
	return scanAccount(s.tx.QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1`, a.ID))
}

func (s *storeTx) AdjustBalance(ctx context.Context, accountID string, delta int64) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at=now() WHERE id=$1`,
		accountID, delta,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *storeTx) CreditDeposit(ctx context.Context, accountID string, amount int64) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE accounts
		    SET deposit_balance = deposit_balance + $2,
		        total_deposited = total_deposited + $2,
		        updated_at = now()
		  WHERE id=$1`,
		accountID, amount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *storeTx) InvestDeposit(ctx context.Context, accountID string, amount int64) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE accounts
		    SET deposit_balance = deposit_balance - $2,
		        total_invested  = total_invested + $2,
		        updated_at = now()
		  WHERE id=$1`,
		accountID, amount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *storeTx) InsertRental(ctx context.Context, r models.Rental) (models.Rental, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	err := s.tx.QueryRow(ctx,
		`INSERT INTO rentals(id, account_id, product_id, price, expires_at)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING id, account_id, product_id, price, started_at, expires_at`,
		r.ID, r.AccountID, r.ProductID, r.Price, r.ExpiresAt,
	).Scan(&r.ID, &r.AccountID, &r.ProductID, &r.Price, &r.StartedAt, &r.ExpiresAt)
	return r, err
}

func (s *storeTx) DeletePendingPayment(ctx context.Context, orderID string) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM pending_payments WHERE order_id=$1`, orderID)
	return err
}

func (s *storeTx) InsertReferralCommission(ctx context.Context, c models.ReferralCommission) (models.ReferralCommission, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := s.tx.QueryRow(ctx,
		`INSERT INTO referral_commissions(id, referrer_id, referred_account_id, deposit_amount, commission)
		 VALUES($1,$2,$3,$4,$5)
		 ON CONFLICT (referred_account_id) DO NOTHING
		 RETURNING id, referrer_id, referred_account_id, deposit_amount, commission, created_at`,
		c.ID, c.ReferrerID, c.ReferredAccountID, c.DepositAmount, c.Commission,
	).Scan(&c.ID, &c.ReferrerID, &c.ReferredAccountID, &c.DepositAmount, &c.Commission, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// a commission already exists for this referred account
		return models.ReferralCommission{}, repo.ErrNotFound
	}
	return c, err
}

func (s *storeTx) GiftClaimed(ctx context.Context, accountID, code string) (bool, error) {
	var exists bool
	err := s.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM claimed_gifts WHERE account_id=$1 AND code=$2)`,
		accountID, code,
	).Scan(&exists)
	return exists, err
}

func (s *storeTx) InsertClaimedGift(ctx context.Context, g models.ClaimedGift) (models.ClaimedGift, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	err := s.tx.QueryRow(ctx,
		`INSERT INTO claimed_gifts(id, account_id, code, amount)
		 VALUES($1,$2,$3,$4)
		 RETURNING id, account_id, code, amount, claimed_at`,
		g.ID, g.AccountID, g.Code, g.Amount,
	).Scan(&g.ID, &g.AccountID, &g.Code, &g.Amount, &g.ClaimedAt)
	return g, err
}
