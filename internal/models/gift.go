package models

import "time"

// ClaimedGift marks a promo code as consumed by an account. One claim per
// (account, code).
type ClaimedGift struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Code      string    `json:"code"`
	Amount    int64     `json:"amount"`
	ClaimedAt time.Time `json:"claimed_at"`
}
