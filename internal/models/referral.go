package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReferralCode returns a short unique code handed to every account at
// creation.
func NewReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}

// ReferralCommission records the one-time bonus paid to a referrer when the
// account they referred makes its first successful gateway deposit.
type ReferralCommission struct {
	ID                string    `json:"id"`
	ReferrerID        string    `json:"referrer_id"`
	ReferredAccountID string    `json:"referred_account_id"`
	DepositAmount     int64     `json:"deposit_amount"`
	Commission        int64     `json:"commission"`
	CreatedAt         time.Time `json:"created_at"`
}
