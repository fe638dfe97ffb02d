package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

type pendingPaymentsRepo struct{ pool *pgxpool.Pool }

func (r *pendingPaymentsRepo) Create(ctx context.Context, p models.PendingPayment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO pending_payments(order_id, account_id, amount, phone) VALUES($1,$2,$3,$4)`,
		p.OrderID, p.AccountID, p.Amount, p.Phone,
	)
	return err
}

func (r *pendingPaymentsRepo) Get(ctx context.Context, orderID string) (models.PendingPayment, error) {
	var p models.PendingPayment
	err := r.pool.QueryRow(ctx,
		`SELECT order_id, account_id, amount, phone, created_at FROM pending_payments WHERE order_id=$1`,
		orderID,
	).Scan(&p.OrderID, &p.AccountID, &p.Amount, &p.Phone, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PendingPayment{}, repo.ErrNotFound
	}
	return p, err
}
