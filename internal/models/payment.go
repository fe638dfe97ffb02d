package models

import "time"

// PendingPayment links a gateway order to an account until the webhook
// resolves it into a Transaction.
type PendingPayment struct {
	OrderID   string    `json:"order_id"`
	AccountID string    `json:"account_id"`
	Amount    int64     `json:"amount"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
