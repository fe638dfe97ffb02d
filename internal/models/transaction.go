package models

import "time"

type TransactionType string

const (
	TxnDeposit    TransactionType = "deposit"
	TxnWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TxnPending  TransactionStatus = "pending"
	TxnSuccess  TransactionStatus = "success"
	TxnRejected TransactionStatus = "rejected"
	TxnFailed   TransactionStatus = "failed"

	// legacy value still present in rows written by the old back-office
	txnLegacyApproved TransactionStatus = "approved"
)

type PaymentMethod string

const (
	MethodGateway     PaymentMethod = "gateway"
	MethodMobileMoney PaymentMethod = "mobile_money"
	MethodCrypto      PaymentMethod = "crypto"
)

type Transaction struct {
	ID              string            `json:"id"`
	AccountID       string            `json:"account_id"`
	Type            TransactionType   `json:"type"`
	Amount          int64             `json:"amount"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	Status          TransactionStatus `json:"status"`
	Phone           string            `json:"phone,omitempty"`
	BeneficiaryName string            `json:"beneficiary_name,omitempty"`
	CryptoAddress   string            `json:"crypto_address,omitempty"`
	GatewayRef      string            `json:"gateway_ref,omitempty"`
	AdminNotes      string            `json:"admin_notes,omitempty"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NormalizeStatus maps the legacy "approved" value to "success". Stored rows
// keep whatever they were written with until the next write touches them.
func NormalizeStatus(s TransactionStatus) TransactionStatus {
	if s == txnLegacyApproved {
		return TxnSuccess
	}
	return s
}

// Terminal reports whether the transaction can no longer be approved or
// rejected.
func (t Transaction) Terminal() bool {
	return NormalizeStatus(t.Status) != TxnPending
}
