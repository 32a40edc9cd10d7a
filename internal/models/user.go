package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the system
type User struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	TelegramID            int64           `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username              *string         `gorm:"size:255" json:"username,omitempty"`
	FirstName             *string         `gorm:"size:255" json:"first_name,omitempty"`
	LastName              *string         `gorm:"size:255" json:"last_name,omitempty"`
	Balance               decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0;check:chk_users_balance_non_negative,balance >= 0" json:"balance"`
	ReferredBy            *uint           `gorm:"index" json:"referred_by,omitempty"`
	Referrer              *User           `gorm:"foreignKey:ReferredBy" json:"-"`
	TotalReferralEarnings decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_referral_earnings"`
	TotalDeposits         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_deposits"`
	ReferralCode          *string         `gorm:"uniqueIndex;size:20" json:"referral_code,omitempty"`
	RegisteredAt          time.Time       `gorm:"autoCreateTime" json:"registered_at"`
	LastActive            time.Time       `json:"last_active"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// DisplayName joins first and last name, falling back to the username.
func (u *User) DisplayName() string {
	var parts []string
	if u.FirstName != nil && *u.FirstName != "" {
		parts = append(parts, *u.FirstName)
	}
	if u.LastName != nil && *u.LastName != "" {
		parts = append(parts, *u.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return "User"
}
