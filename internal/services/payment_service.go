package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rentvest/backend/internal/apperr"
	"github.com/rentvest/backend/internal/gateway"
	"github.com/rentvest/backend/internal/metrics"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
	"github.com/rentvest/backend/internal/worker"
)

// GatewayAPI is the slice of the payment gateway client the service uses.
type GatewayAPI interface {
	CreateOrder(ctx context.Context, amount int64, phone string) (gateway.Order, error)
	OrderStatus(ctx context.Context, orderID string) (string, error)
}

// WebhookPayload is the gateway-defined callback body.
type WebhookPayload struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
}

type InitiateResult struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

type PaymentService struct {
	pending  repo.PendingPayments
	accounts repo.Accounts
	txns     repo.Transactions
	store    repo.Store
	gw       GatewayAPI
	referral *ReferralService
	wp       *worker.Pool
	feed     ChangeNotifier
}

func NewPaymentService(pending repo.PendingPayments, accounts repo.Accounts, txns repo.Transactions, store repo.Store, gw GatewayAPI, referral *ReferralService, wp *worker.Pool, feed ChangeNotifier) *PaymentService {
	return &PaymentService{pending: pending, accounts: accounts, txns: txns, store: store, gw: gw, referral: referral, wp: wp, feed: feed}
}

// Initiate opens a gateway payment session for the account and records the
// pending payment until the webhook resolves it.
func (s *PaymentService) Initiate(ctx context.Context, accountID string, amount int64, phone string) (InitiateResult, error) {
	if amount <= 0 {
		return InitiateResult{}, apperr.New(apperr.Validation, "invalid_amount", "amount must be positive")
	}
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return InitiateResult{}, apperr.New(apperr.NotFound, "account_not_found", "account does not exist")
		}
		return InitiateResult{}, apperr.Wrap(apperr.Unknown, "store", "account read failed", err)
	}

	phone = models.NormalizePhone(phone)
	order, err := s.gw.CreateOrder(ctx, amount, phone)
	if err != nil {
		return InitiateResult{}, err
	}

	err = s.pending.Create(ctx, models.PendingPayment{
		OrderID:   order.OrderID,
		AccountID: accountID,
		Amount:    amount,
		Phone:     phone,
	})
	if err != nil {
		return InitiateResult{}, apperr.Wrap(apperr.Unknown, "store", "pending payment write failed", err)
	}

	metrics.PaymentsInitiated.Inc()
	return InitiateResult{OrderID: order.OrderID, RedirectURL: order.RedirectURL}, nil
}

// Verify reports the gateway-side status of the caller's order.
func (s *PaymentService) Verify(ctx context.Context, accountID, orderID string) (string, error) {
	owner, err := s.orderOwner(ctx, orderID)
	if err != nil {
		return "", err
	}
	if owner != accountID {
		return "", apperr.New(apperr.NotFound, "unknown_order", "no such order")
	}
	return s.gw.OrderStatus(ctx, orderID)
}

// orderOwner resolves which account opened an order: the pending payment
// while the order is open, the settled transaction after the webhook has
// consumed it. Orders we never issued resolve to NotFound.
func (s *PaymentService) orderOwner(ctx context.Context, orderID string) (string, error) {
	p, err := s.pending.Get(ctx, orderID)
	if err == nil {
		return p.AccountID, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return "", apperr.Wrap(apperr.Unknown, "store", "pending payment read failed", err)
	}
	t, err := s.txns.GetByGatewayRef(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", apperr.New(apperr.NotFound, "unknown_order", "no such order")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Unknown, "store", "transaction read failed", err)
	}
	return t.AccountID, nil
}

// HandleWebhook resolves a pending payment into a transaction. An order id
// with no pending record is reported as an error and dropped; redelivery is
// the gateway's responsibility.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload WebhookPayload) error {
	p, err := s.pending.Get(ctx, payload.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		metrics.WebhooksTotal.WithLabelValues("unknown_order").Inc()
		return apperr.New(apperr.NotFound, "unknown_order", "no pending payment for order")
	}
	if err != nil {
		return apperr.Wrap(apperr.Unknown, "store", "pending payment read failed", err)
	}
	if payload.Amount != 0 && payload.Amount != p.Amount {
		slog.Warn("webhook amount differs from pending payment",
			"order_id", p.OrderID, "webhook_amount", payload.Amount, "pending_amount", p.Amount)
	}

	method := models.PaymentMethod(payload.PaymentMethod)
	if method == "" {
		method = models.MethodGateway
	}

	switch payload.Status {
	case "successful":
		err := s.store.Atomic(ctx, func(tx repo.Tx) error {
			if _, err := tx.InsertTransaction(ctx, models.Transaction{
				AccountID:     p.AccountID,
				Type:          models.TxnDeposit,
				Amount:        p.Amount,
				PaymentMethod: method,
				Status:        models.TxnSuccess,
				Phone:         p.Phone,
				GatewayRef:    p.OrderID,
			}); err != nil {
				return err
			}
			if err := tx.CreditDeposit(ctx, p.AccountID, p.Amount); err != nil {
				return err
			}
			return tx.DeletePendingPayment(ctx, p.OrderID)
		})
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "deposit settlement failed", err)
		}
		metrics.WebhooksTotal.WithLabelValues("successful").Inc()
		s.feed.Notify()

		accountID, amount := p.AccountID, p.Amount
		s.wp.Submit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.referral.PayFirstDepositCommission(ctx, accountID, amount); err != nil {
				slog.Error("referral commission", "account_id", accountID, "err", err)
			}
		})
		return nil

	case "failed":
		err := s.store.Atomic(ctx, func(tx repo.Tx) error {
			if _, err := tx.InsertTransaction(ctx, models.Transaction{
				AccountID:     p.AccountID,
				Type:          models.TxnDeposit,
				Amount:        p.Amount,
				PaymentMethod: method,
				Status:        models.TxnFailed,
				Phone:         p.Phone,
				GatewayRef:    p.OrderID,
			}); err != nil {
				return err
			}
			return tx.DeletePendingPayment(ctx, p.OrderID)
		})
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "store", "failed payment record failed", err)
		}
		metrics.WebhooksTotal.WithLabelValues("failed").Inc()
		s.feed.Notify()
		return nil

	default:
		// intermediate statuses are acknowledged and ignored
		metrics.WebhooksTotal.WithLabelValues("ignored").Inc()
		return nil
	}
}
