package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single expense recorded against the spending
// budget. Transactions are immutable once created; there is no update or
// delete path.
type Transaction struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID      *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	TransactionTime time.Time       `gorm:"not null;index" json:"transaction_time"`
	Notes           string          `json:"notes"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
