package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/rentvest/backend/internal/api/handlers"
	"github.com/rentvest/backend/internal/api/httpx"
	"github.com/rentvest/backend/internal/auth"
	"github.com/rentvest/backend/internal/config"
	"github.com/rentvest/backend/internal/metrics"
	"github.com/rentvest/backend/internal/middleware"
	"github.com/rentvest/backend/internal/models"
	"github.com/rentvest/backend/internal/services"
)

type RouterDeps struct {
	Cfg        config.Config
	TM         *auth.TokenManager
	AuthH      *handlers.AuthHandler
	PaymentH   *handlers.PaymentHandler
	TxnH       *handlers.TransactionHandler
	RentalH    *handlers.RentalHandler
	AccountSvc *services.AccountService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(d.Cfg.RateRPS), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	authmw := middleware.NewAuthMiddleware(d.TM)

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- public ----------
		r.Post("/auth/otp/send", d.AuthH.SendOTP)
		r.Post("/auth/otp/verify", d.AuthH.VerifyOTP)
		r.Post("/auth/refresh", d.AuthH.Refresh)
		r.Post("/auth/admin/login", d.AuthH.AdminLogin)
		r.Post("/admin/bootstrap", d.AuthH.Bootstrap)
		r.Post("/payments/webhook", d.PaymentH.Webhook)
		r.Get("/rentals/products", d.RentalH.Products)

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth)

			r.Get("/accounts/me", d.AuthH.Me)
			r.Get("/accounts/me/transactions", d.TxnH.ListMine)
			r.Get("/accounts/me/transactions/stream", d.TxnH.StreamMine)

			r.Post("/payments/initiate", d.PaymentH.Initiate)
			r.Post("/payments/verify", d.PaymentH.Verify)

			r.Post("/withdrawals", d.TxnH.RequestWithdrawal)
			r.Post("/deposits/claim", d.TxnH.ClaimDeposit)

			r.Get("/rentals", d.RentalH.ListMine)
			r.Post("/rentals", d.RentalH.Invest)
			r.Post("/gifts/claim", d.RentalH.ClaimGift)
			r.Get("/referrals", d.RentalH.MyReferrals)
		})

		// ---------- admin ----------
		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth, middleware.RequireRole(string(models.RoleAdmin)))

			r.Get("/transactions", d.TxnH.ListAll)
			r.Post("/admin/transactions/{id}/approve", d.TxnH.Approve)
			r.Post("/admin/transactions/{id}/reject", d.TxnH.Reject)

			r.Get("/admin/accounts", func(w http.ResponseWriter, r *http.Request) {
				accounts, err := d.AccountSvc.List(r.Context())
				if err != nil {
					httpx.Error(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, accounts)
			})
		})
	})

	return r
}
