package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rentvest/backend/internal/api"
	"github.com/rentvest/backend/internal/api/handlers"
	"github.com/rentvest/backend/internal/auth"
	"github.com/rentvest/backend/internal/config"
	"github.com/rentvest/backend/internal/db"
	"github.com/rentvest/backend/internal/gateway"
	"github.com/rentvest/backend/internal/logger"
	"github.com/rentvest/backend/internal/metrics"
	rds "github.com/rentvest/backend/internal/redis"
	"github.com/rentvest/backend/internal/repository/postgres"
	"github.com/rentvest/backend/internal/repository/redisotp"
	"github.com/rentvest/backend/internal/services"
	"github.com/rentvest/backend/internal/sms"
	"github.com/rentvest/backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	rdb, err := rds.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Error("redis connect", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	otpStore := redisotp.New(rdb)
	wp := worker.NewPool(4)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, 15*time.Minute, 7*24*time.Hour)
	smsClient := sms.NewClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender)
	gwClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.AppBaseURL)

	feedSvc := services.NewFeedService(repos.Transactions)
	accountSvc := services.NewAccountService(repos.Accounts, cfg)
	otpSvc := services.NewOTPService(otpStore, smsClient)
	ledgerSvc := services.NewLedgerService(repos.Store, repos.Transactions, repos.AuditLogs, wp, feedSvc)
	referralSvc := services.NewReferralService(repos.Accounts, repos.Referrals, repos.Store)
	paymentSvc := services.NewPaymentService(repos.PendingPayments, repos.Accounts, repos.Transactions, repos.Store, gwClient, referralSvc, wp, feedSvc)
	rentalSvc := services.NewRentalService(repos.Rentals, repos.Store)

	r := api.NewRouter(api.RouterDeps{
		Cfg:        cfg,
		TM:         tm,
		AuthH:      handlers.NewAuthHandler(otpSvc, accountSvc, tm),
		PaymentH:   handlers.NewPaymentHandler(paymentSvc),
		TxnH:       handlers.NewTransactionHandler(ledgerSvc, feedSvc),
		RentalH:    handlers.NewRentalHandler(rentalSvc, referralSvc),
		AccountSvc: accountSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
