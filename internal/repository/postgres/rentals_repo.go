package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

type rentalsRepo struct{ pool *pgxpool.Pool }

func (r *rentalsRepo) ListProducts(ctx context.Context, activeOnly bool) ([]models.RentalProduct, error) {
	q := `SELECT id, name, price, daily_return, duration_days, active, created_at FROM rental_products`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY price ASC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RentalProduct
	for rows.Next() {
		var p models.RentalProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DailyReturn, &p.DurationDays, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *rentalsRepo) GetProduct(ctx context.Context, id string) (models.RentalProduct, error) {
	var p models.RentalProduct
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, daily_return, duration_days, active, created_at FROM rental_products WHERE id=$1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.DailyReturn, &p.DurationDays, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RentalProduct{}, repo.ErrNotFound
	}
	return p, err
}

func (r *rentalsRepo) ListByAccount(ctx context.Context, accountID string) ([]models.Rental, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, product_id, price, started_at, expires_at
		   FROM rentals WHERE account_id=$1 ORDER BY started_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Rental
	for rows.Next() {
		var rent models.Rental
		if err := rows.Scan(&rent.ID, &rent.AccountID, &rent.ProductID, &rent.Price, &rent.StartedAt, &rent.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, rent)
	}
	return out, rows.Err()
}
