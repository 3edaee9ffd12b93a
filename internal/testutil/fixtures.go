package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"glidepath/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction at the given time.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, amount decimal.Decimal, at time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:          userID,
		Amount:          amount,
		TransactionTime: at,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a monthly budget covering [start, end] with a
// $3000 income, $1500 fixed expenses, and a $500 savings target.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, start, end time.Time) *models.Budget {
	t.Helper()

	income := decimal.NewFromInt(3000)
	fixed := decimal.NewFromInt(1500)
	savings := decimal.NewFromInt(500)
	budget := &models.Budget{
		UserID:           userID,
		MonthlyIncome:    income,
		FixedExpenses:    fixed,
		SavingsTarget:    savings,
		SpendingBudget:   income.Sub(fixed).Sub(savings),
		PaymentFrequency: models.BudgetPeriodMonthly,
		StartDate:        start,
		EndDate:          end,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestSettings creates a settings row with the defaults.
func CreateTestSettings(t *testing.T, db *gorm.DB, userID string) *models.Settings {
	t.Helper()

	settings := models.DefaultSettings(userID)
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("failed to create test settings: %v", err)
	}
	return &settings
}
