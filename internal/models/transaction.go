package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
)

// Valid reports whether s is one of the known transaction states.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

type Transaction struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UserID        uint              `gorm:"index" json:"user_id"`
	User          User              `json:"user"`
	RobuxAmount   int               `json:"robux_amount"`
	Price         decimal.Decimal   `gorm:"type:numeric(14,2)" json:"price"`
	PaymentMethod string            `json:"payment_method"`
	MerchantRef   *string           `gorm:"uniqueIndex" json:"merchant_ref,omitempty"`
	CheckoutURL   string            `json:"checkout_url,omitempty"`
	Status        TransactionStatus `gorm:"index;default:pending" json:"status"`
	PaymentProof  string            `json:"payment_proof,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
