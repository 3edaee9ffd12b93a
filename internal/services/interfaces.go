package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"glidepath/internal/models"
	"glidepath/internal/pagination"
	"glidepath/internal/wizard"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	CategoryID *string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, categoryID *string, amount decimal.Decimal, transactionTime time.Time, notes string) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	SumInRange(userID string, from, to time.Time) (decimal.Decimal, error)
}

// BudgetSummary is the current budget together with the figures derived from
// it: spending so far this period and the glide-path daily allowance.
type BudgetSummary struct {
	Budget         models.Budget   `json:"budget"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	DaysInPeriod   int             `json:"days_in_period"`
	ElapsedDays    int             `json:"elapsed_days"`
	RemainingDays  int             `json:"remaining_days"`
	DailyAllowance decimal.Decimal `json:"daily_allowance"`
}

// BudgetServicer defines the contract for budget-related business logic. It
// also persists finished wizard sessions (wizard.Saver).
type BudgetServicer interface {
	wizard.Saver
	GetCurrentBudget(ctx context.Context, userID string) (*models.Budget, error)
	GetBudgetSummary(ctx context.Context, userID string) (*BudgetSummary, error)
	UpdateCurrentBudget(ctx context.Context, userID string, monthlyIncome, fixedExpenses, savingsTarget *decimal.Decimal) (*models.Budget, error)
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	Currency             *string
	Theme                *models.Theme
	NotificationsEnabled *bool
	ExportFormat         *models.ExportFormat
}

// SettingsState is the externally observable settings snapshot for one user.
type SettingsState struct {
	Settings models.Settings `json:"settings"`
	Saving   bool            `json:"saving"`
	Error    string          `json:"error,omitempty"`
}

// SettingsServicer defines the contract for settings synchronization.
type SettingsServicer interface {
	Load(ctx context.Context, userID string) SettingsState
	Update(ctx context.Context, userID string, patch SettingsPatch) SettingsState
	State(userID string) SettingsState
	ResetError(userID string)
}
