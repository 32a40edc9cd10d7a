package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralAggregate holds running totals for one referrer/referred pair
type ReferralAggregate struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	ReferrerID       uint            `gorm:"not null;uniqueIndex:idx_referral_pair" json:"referrer_id"`
	Referrer         *User           `gorm:"foreignKey:ReferrerID" json:"-"`
	ReferredID       uint            `gorm:"not null;uniqueIndex:idx_referral_pair" json:"referred_id"`
	Referred         *User           `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
	TotalDeposits    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_deposits"`
	CommissionEarned decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"commission_earned"`
	CreatedAt        time.Time       `json:"created_at"`
	LastActivity     time.Time       `json:"last_activity"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
}

func (ReferralAggregate) TableName() string {
	return "referral_aggregates"
}
