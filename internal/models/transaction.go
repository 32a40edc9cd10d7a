package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType classifies a balance mutation
type LedgerEntryType string

const (
	LedgerEntryDeposit            LedgerEntryType = "deposit"
	LedgerEntryReferralCommission LedgerEntryType = "referral_commission"
)

// LedgerEntry records a single balance mutation with the balance around it
type LedgerEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Type          LedgerEntryType `gorm:"size:50;not null;index" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_after"`
	OrderID       string          `gorm:"size:32;index" json:"order_id"`
	Reference     string          `gorm:"size:36;uniqueIndex" json:"reference"`
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for LedgerEntry model
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
