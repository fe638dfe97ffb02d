package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

type accountsRepo struct{ pool *pgxpool.Pool }

const accountCols = `id, phone, role, balance, deposit_balance, total_deposited, total_invested, referral_code, referred_by, password_hash, created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Phone, &a.Role, &a.Balance, &a.DepositBalance, &a.TotalDeposited, &a.TotalInvested, &a.ReferralCode, &a.ReferredBy, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, repo.ErrNotFound
	}
	return a, err
}

func (r *accountsRepo) Create(ctx context.Context, a models.Account) (models.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts(id, phone, role, balance, deposit_balance, total_deposited, total_invested, referral_code, referred_by, password_hash)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.Phone, a.Role, a.Balance, a.DepositBalance, a.TotalDeposited, a.TotalInvested, a.ReferralCode, a.ReferredBy, a.PasswordHash,
	)
	if err != nil {
		return models.Account{}, err
	}
	return r.GetByID(ctx, a.ID)
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1`, id))
}

func (r *accountsRepo) GetByPhone(ctx context.Context, phone string) (models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE phone=$1`, phone))
}

func (r *accountsRepo) GetByReferralCode(ctx context.Context, code string) (models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE referral_code=$1`, code))
}

func (r *accountsRepo) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountCols+` FROM accounts ORDER BY created_at DESC LIMIT 500`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
