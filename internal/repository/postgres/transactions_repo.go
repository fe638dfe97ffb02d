package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

const txnCols = `id, account_id, type, amount, payment_method, status, phone, beneficiary_name, crypto_address, gateway_ref, admin_notes, submitted_at, updated_at`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.PaymentMethod, &t.Status, &t.Phone, &t.BeneficiaryName, &t.CryptoAddress, &t.GatewayRef, &t.AdminNotes, &t.SubmittedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, repo.ErrNotFound
	}
	return t, err
}

func (r *transactionsRepo) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return scanTxn(r.pool.QueryRow(ctx,
		`INSERT INTO transactions(id, account_id, type, amount, payment_method, status, phone, beneficiary_name, crypto_address, gateway_ref, admin_notes)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING `+txnCols,
		t.ID, t.AccountID, t.Type, t.Amount, t.PaymentMethod, t.Status, t.Phone, t.BeneficiaryName, t.CryptoAddress, t.GatewayRef, t.AdminNotes,
	))
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return scanTxn(r.pool.QueryRow(ctx,
		`SELECT `+txnCols+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionsRepo) GetByGatewayRef(ctx context.Context, ref string) (models.Transaction, error) {
	return scanTxn(r.pool.QueryRow(ctx,
		`SELECT `+txnCols+` FROM transactions WHERE gateway_ref=$1 ORDER BY submitted_at DESC LIMIT 1`, ref))
}

func (r *transactionsRepo) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+txnCols+` FROM transactions WHERE account_id=$1 ORDER BY submitted_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxns(rows)
}

func (r *transactionsRepo) ListAll(ctx context.Context, f repo.TxnFilters) ([]models.Transaction, error) {
	q := `SELECT ` + txnCols + ` FROM transactions WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		// "success" must also match rows still carrying the legacy value
		if f.Status == models.TxnSuccess {
			q += ` AND status IN ('success','approved')`
		} else {
			args = append(args, f.Status)
			q += ` AND status=$` + itoa(len(args))
		}
	}
	if f.Type != "" {
		args = append(args, f.Type)
		q += ` AND type=$` + itoa(len(args))
	}
	if f.PaymentMethod != "" {
		args = append(args, f.PaymentMethod)
		q += ` AND payment_method=$` + itoa(len(args))
	}
	q += ` ORDER BY submitted_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxns(rows)
}

func collectTxns(rows pgx.Rows) ([]models.Transaction, error) {
	var out []models.Transaction
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func itoa(n int) string { return strconv.Itoa(n) }
