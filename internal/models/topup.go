package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopUpStatus is the lifecycle state of a top-up request
type TopUpStatus string

const (
	TopUpStatusPending         TopUpStatus = "pending"
	TopUpStatusReceiptUploaded TopUpStatus = "receipt_uploaded"
	TopUpStatusWaitingAdmin    TopUpStatus = "waiting_admin"
	TopUpStatusApproved        TopUpStatus = "approved"
	TopUpStatusRejected        TopUpStatus = "rejected"
)

// IsTerminal reports whether no further transitions are allowed
func (s TopUpStatus) IsTerminal() bool {
	return s == TopUpStatusApproved || s == TopUpStatusRejected
}

// PaymentMethod is the channel the user pays through
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

// TopUpRequest is one attempt to add funds to a user's balance
type TopUpRequest struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         string          `gorm:"uniqueIndex;size:32;not null" json:"order_id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"-"`
	TelegramID      int64           `gorm:"index" json:"telegram_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Method          PaymentMethod   `gorm:"size:50;not null" json:"method"`
	Status          TopUpStatus     `gorm:"size:50;not null;default:pending;index" json:"status"`
	UserName        string          `gorm:"size:255" json:"user_name"`
	UserUsername    *string         `gorm:"size:255" json:"user_username,omitempty"`
	ReceiptPath     *string         `gorm:"size:500" json:"receipt_path,omitempty"`
	ReceiptFilename *string         `gorm:"size:255" json:"receipt_filename,omitempty"`
	ReceiptMimetype *string         `gorm:"size:100" json:"receipt_mimetype,omitempty"`
	ReceiptSize     *int64          `json:"receipt_size,omitempty"`
	AdminID         *int64          `json:"admin_id,omitempty"`
	AdminComment    *string         `gorm:"size:500" json:"admin_comment,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UploadedAt      *time.Time      `json:"uploaded_at,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}

// TableName specifies the table name for TopUpRequest model
func (TopUpRequest) TableName() string {
	return "topup_requests"
}
