package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentvest/backend/internal/models"
)

type referralsRepo struct{ pool *pgxpool.Pool }

func (r *referralsRepo) ListByReferrer(ctx context.Context, referrerID string) ([]models.ReferralCommission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, referrer_id, referred_account_id, deposit_amount, commission, created_at
		   FROM referral_commissions
		  WHERE referrer_id=$1
		  ORDER BY created_at DESC`,
		referrerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReferralCommission
	for rows.Next() {
		var c models.ReferralCommission
		if err := rows.Scan(&c.ID, &c.ReferrerID, &c.ReferredAccountID, &c.DepositAmount, &c.Commission, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *referralsRepo) ExistsForReferred(ctx context.Context, referredAccountID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM referral_commissions WHERE referred_account_id=$1)`,
		referredAccountID,
	).Scan(&exists)
	return exists, err
}
