package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod represents the pay cadence a budget is built around.
type BudgetPeriod string

const (
	BudgetPeriodWeekly   BudgetPeriod = "weekly"
	BudgetPeriodBiweekly BudgetPeriod = "biweekly"
	BudgetPeriodMonthly  BudgetPeriod = "monthly"
)

// Valid reports whether p is one of the known periods.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodWeekly, BudgetPeriodBiweekly, BudgetPeriodMonthly:
		return true
	}
	return false
}

// Budget represents a user's spending plan for one period. The daily
// allowance is never stored: it is re-derived on every read from the
// remaining budget and the remaining days of the period.
type Budget struct {
	Base
	UserID           string          `gorm:"type:uuid;not null;index" json:"user_id"`
	MonthlyIncome    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthly_income"`
	FixedExpenses    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"fixed_expenses"`
	SavingsTarget    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"savings_target"`
	SpendingBudget   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"spending_budget"`
	PaymentFrequency BudgetPeriod    `gorm:"not null" json:"payment_frequency"`
	StartDate        time.Time       `gorm:"not null;index" json:"start_date"`
	EndDate          time.Time       `gorm:"not null;index" json:"end_date"`
}
