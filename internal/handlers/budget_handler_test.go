package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "glidepath/internal/errors"
	"glidepath/internal/models"
	"glidepath/internal/services"
	"glidepath/internal/wizard"
)

type mockBudgetService struct {
	getCurrentFn func(ctx context.Context, userID string) (*models.Budget, error)
	getSummaryFn func(ctx context.Context, userID string) (*services.BudgetSummary, error)
	updateFn     func(ctx context.Context, userID string, income, fixed, savings *decimal.Decimal) (*models.Budget, error)
}

func (m *mockBudgetService) GetCurrentBudget(ctx context.Context, userID string) (*models.Budget, error) {
	if m.getCurrentFn != nil {
		return m.getCurrentFn(ctx, userID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetBudgetSummary(ctx context.Context, userID string) (*services.BudgetSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(ctx, userID)
	}
	return &services.BudgetSummary{}, nil
}

func (m *mockBudgetService) UpdateCurrentBudget(ctx context.Context, userID string, income, fixed, savings *decimal.Decimal) (*models.Budget, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, income, fixed, savings)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) SaveFromWizard(ctx context.Context, userID string, state wizard.State) (*models.Budget, error) {
	return &models.Budget{}, nil
}

func setupBudgetRouter(svc services.BudgetServicer) *gin.Engine {
	handler := NewBudgetHandler(svc)
	r := gin.New()
	group := r.Group("/budget", injectUserID("user-1"))
	group.GET("/current", handler.GetCurrentBudget)
	group.PUT("/current", handler.UpdateCurrentBudget)
	group.GET("/summary", handler.GetBudgetSummary)
	return r
}

func TestBudgetHandler_GetCurrentBudget(t *testing.T) {
	t.Run("returns the budget", func(t *testing.T) {
		svc := &mockBudgetService{
			getCurrentFn: func(_ context.Context, userID string) (*models.Budget, error) {
				budget := &models.Budget{
					UserID:         userID,
					SpendingBudget: decimal.RequireFromString("1000"),
				}
				budget.ID = "budget-1"
				return budget, nil
			},
		}
		rec := doRequest(setupBudgetRouter(svc), http.MethodGet, "/budget/current", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		budget := result["budget"].(map[string]interface{})
		if budget["id"] != "budget-1" {
			t.Errorf("expected budget-1, got %v", budget["id"])
		}
	})

	t.Run("returns 404 when none covers today", func(t *testing.T) {
		svc := &mockBudgetService{
			getCurrentFn: func(context.Context, string) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		rec := doRequest(setupBudgetRouter(svc), http.MethodGet, "/budget/current", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}

func TestBudgetHandler_GetBudgetSummary(t *testing.T) {
	t.Run("returns derived figures", func(t *testing.T) {
		svc := &mockBudgetService{
			getSummaryFn: func(context.Context, string) (*services.BudgetSummary, error) {
				return &services.BudgetSummary{
					TotalSpent:     decimal.RequireFromString("150"),
					Remaining:      decimal.RequireFromString("850"),
					DaysInPeriod:   31,
					ElapsedDays:    14,
					RemainingDays:  17,
					DailyAllowance: decimal.RequireFromString("50"),
				}, nil
			},
		}
		rec := doRequest(setupBudgetRouter(svc), http.MethodGet, "/budget/summary", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["daily_allowance"] != "50" {
			t.Errorf("expected daily allowance 50, got %v", result["daily_allowance"])
		}
		if result["days_in_period"] != float64(31) {
			t.Errorf("expected 31 days, got %v", result["days_in_period"])
		}
	})
}

func TestBudgetHandler_UpdateCurrentBudget(t *testing.T) {
	t.Run("passes only supplied amounts", func(t *testing.T) {
		var gotIncome, gotFixed, gotSavings *decimal.Decimal
		svc := &mockBudgetService{
			updateFn: func(_ context.Context, _ string, income, fixed, savings *decimal.Decimal) (*models.Budget, error) {
				gotIncome, gotFixed, gotSavings = income, fixed, savings
				return &models.Budget{}, nil
			},
		}
		rec := doRequest(setupBudgetRouter(svc), http.MethodPut, "/budget/current",
			`{"fixed_expenses":"1200"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotIncome != nil || gotSavings != nil {
			t.Error("expected omitted amounts passed as nil")
		}
		if gotFixed == nil || !gotFixed.Equal(decimal.RequireFromString("1200")) {
			t.Errorf("expected fixed 1200, got %v", gotFixed)
		}
	})

	t.Run("rejects an empty update", func(t *testing.T) {
		rec := doRequest(setupBudgetRouter(&mockBudgetService{}), http.MethodPut, "/budget/current", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("propagates validation failure", func(t *testing.T) {
		svc := &mockBudgetService{
			updateFn: func(context.Context, string, *decimal.Decimal, *decimal.Decimal, *decimal.Decimal) (*models.Budget, error) {
				return nil, apperrors.WithMessage(apperrors.ErrValidation, "Fixed expenses and savings cannot exceed monthly income")
			},
		}
		rec := doRequest(setupBudgetRouter(svc), http.MethodPut, "/budget/current",
			`{"fixed_expenses":"9999"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})
}
