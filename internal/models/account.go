package models

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Account struct {
	ID             string    `json:"id"`
	Phone          string    `json:"phone"`
	Role           Role      `json:"role"`
	Balance        int64     `json:"balance"`
	DepositBalance int64     `json:"deposit_balance"`
	TotalDeposited int64     `json:"total_deposited"`
	TotalInvested  int64     `json:"total_invested"`
	ReferralCode   string    `json:"referral_code"`
	ReferredBy     *string   `json:"referred_by,omitempty"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NormalizePhone strips separator characters, keeping digits and a single
// leading "+".
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (a *Account) Validate() error {
	if len(NormalizePhone(a.Phone)) < 8 {
		return errors.New("invalid phone number")
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	return nil
}
