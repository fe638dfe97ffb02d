package models

import "time"

// OTPRecord is keyed by normalized phone number, independently of accounts.
type OTPRecord struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	SentAt    time.Time `json:"sent_at"`
	Attempts  int       `json:"attempts"`
}
