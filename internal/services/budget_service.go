package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"glidepath/internal/allowance"
	"glidepath/internal/cache"
	apperrors "glidepath/internal/errors"
	"glidepath/internal/models"
	"glidepath/internal/wizard"
)

// budgetService handles budget-related business logic. Spending aggregation
// is delegated to the transaction service.
type budgetService struct {
	db           *gorm.DB
	cache        *cache.Cache
	transactions TransactionServicer
	now          func() time.Time
}

// NewBudgetService creates a new BudgetServicer. c may be nil to disable
// read caching; now may be nil to use the wall clock.
func NewBudgetService(db *gorm.DB, c *cache.Cache, transactions TransactionServicer, now func() time.Time) BudgetServicer {
	if now == nil {
		now = time.Now
	}
	return &budgetService{db: db, cache: c, transactions: transactions, now: now}
}

func currentBudgetKey(userID string) string {
	return "budgets:current:" + userID
}

// GetCurrentBudget returns the budget whose period covers the current date.
// The lookup reads through the cache; a fresh result is cached with live
// updates enabled so in-period amount changes patch it in place.
func (s *budgetService) GetCurrentBudget(ctx context.Context, userID string) (*models.Budget, error) {
	key := currentBudgetKey(userID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if budget, ok := cached.(*models.Budget); ok {
				// A cached budget can outlive its own period; serve it only
				// while today is still inside the window.
				if !s.now().Before(budget.StartDate) && !s.now().After(budget.EndDate) {
					return budget, nil
				}
				s.cache.Delete(key)
			}
		}
	}

	budget, err := s.lookupCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, budget, cache.Options{Realtime: true})
	}
	return budget, nil
}

func (s *budgetService) lookupCurrent(ctx context.Context, userID string) (*models.Budget, error) {
	now := s.now()
	var budget models.Budget
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, now, now).
		Order("start_date DESC").
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetBudgetSummary returns the current budget with spending aggregated over
// the period and the daily allowance re-derived from what remains. The
// allowance is intentionally not floored at zero; a negative value means the
// user is over pace.
func (s *budgetService) GetBudgetSummary(ctx context.Context, userID string) (*BudgetSummary, error) {
	budget, err := s.GetCurrentBudget(ctx, userID)
	if err != nil {
		return nil, err
	}

	spent, err := s.transactions.SumInRange(userID, budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, err
	}

	daysInPeriod := allowance.DaysInPeriod(budget.StartDate, budget.EndDate)
	elapsedDays := allowance.ElapsedDays(budget.StartDate, s.now())
	remainingDays := daysInPeriod - elapsedDays
	if remainingDays < 1 {
		remainingDays = 1
	}
	daily := allowance.CurrentDailyAllowance(budget.SpendingBudget, spent, daysInPeriod, elapsedDays)

	return &BudgetSummary{
		Budget:         *budget,
		TotalSpent:     spent,
		Remaining:      budget.SpendingBudget.Sub(spent),
		DaysInPeriod:   daysInPeriod,
		ElapsedDays:    elapsedDays,
		RemainingDays:  remainingDays,
		DailyAllowance: daily.Round(2),
	}, nil
}

// UpdateCurrentBudget changes the amounts of the budget covering today. The
// period boundaries are never touched; a new period always gets a new row.
func (s *budgetService) UpdateCurrentBudget(ctx context.Context, userID string, monthlyIncome, fixedExpenses, savingsTarget *decimal.Decimal) (*models.Budget, error) {
	budget, err := s.lookupCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}

	income := budget.MonthlyIncome
	fixed := budget.FixedExpenses
	savings := budget.SavingsTarget
	if monthlyIncome != nil {
		income = *monthlyIncome
	}
	if fixedExpenses != nil {
		fixed = *fixedExpenses
	}
	if savingsTarget != nil {
		savings = *savingsTarget
	}
	if err := validateBudgetFigures(income, fixed, savings); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"monthly_income":  income.Round(2),
		"fixed_expenses":  fixed.Round(2),
		"savings_target":  savings.Round(2),
		"spending_budget": allowance.SpendingBudget(income, fixed, savings).Round(2),
	}
	if err := s.db.WithContext(ctx).Model(budget).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// SaveFromWizard persists a finished wizard session: update the current
// budget if one covers today, otherwise create a new period. This is a
// lookup-then-write, not an atomic upsert; the wizard invokes it exactly
// once per Finish.
func (s *budgetService) SaveFromWizard(ctx context.Context, userID string, state wizard.State) (*models.Budget, error) {
	if err := validateBudgetFigures(state.MonthlyIncome, state.FixedExpenses, state.SavingsTarget); err != nil {
		return nil, err
	}

	existing, err := s.lookupCurrent(ctx, userID)
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"monthly_income":    state.MonthlyIncome.Round(2),
			"fixed_expenses":    state.FixedExpenses.Round(2),
			"savings_target":    state.SavingsTarget.Round(2),
			"spending_budget":   state.SpendingBudget.Round(2),
			"payment_frequency": state.IncomeFrequency,
		}
		if err := s.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return existing, nil

	case errors.Is(err, apperrors.ErrBudgetNotFound):
		start, end := allowance.PeriodBounds(s.now(), state.IncomeFrequency)
		budget := &models.Budget{
			UserID:           userID,
			MonthlyIncome:    state.MonthlyIncome.Round(2),
			FixedExpenses:    state.FixedExpenses.Round(2),
			SavingsTarget:    state.SavingsTarget.Round(2),
			SpendingBudget:   state.SpendingBudget.Round(2),
			PaymentFrequency: state.IncomeFrequency,
			StartDate:        start,
			EndDate:          end,
		}
		if err := s.db.WithContext(ctx).Create(budget).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return budget, nil

	default:
		return nil, err
	}
}

func validateBudgetFigures(income, fixed, savings decimal.Decimal) error {
	if !income.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Monthly income must be greater than zero")
	}
	if fixed.IsNegative() || savings.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Expenses and savings cannot be negative")
	}
	if fixed.Add(savings).GreaterThan(income) {
		return apperrors.WithMessage(apperrors.ErrValidation, "Fixed expenses and savings cannot exceed monthly income")
	}
	return nil
}
