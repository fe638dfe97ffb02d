package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	repo "github.com/rentvest/backend/internal/repository"
)

type Repositories struct {
	Accounts        repo.Accounts
	Transactions    repo.Transactions
	PendingPayments repo.PendingPayments
	Referrals       repo.Referrals
	Rentals         repo.Rentals
	AuditLogs       repo.AuditLogs
	Store           repo.Store
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Accounts:        &accountsRepo{pool},
		Transactions:    &transactionsRepo{pool},
		PendingPayments: &pendingPaymentsRepo{pool},
		Referrals:       &referralsRepo{pool},
		Rentals:         &rentalsRepo{pool},
		AuditLogs:       &auditLogsRepo{pool},
		Store:           &store{pool},
	}
}
