package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "glidepath/internal/errors"
	"glidepath/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// UpdateBudgetRequest represents the request payload for updating the current
// budget's amounts. Period boundaries cannot be changed.
type UpdateBudgetRequest struct {
	MonthlyIncome *decimal.Decimal `json:"monthly_income"`
	FixedExpenses *decimal.Decimal `json:"fixed_expenses"`
	SavingsTarget *decimal.Decimal `json:"savings_target"`
}

// GetCurrentBudget handles retrieving the budget covering the current date.
// @Summary     Get current budget
// @Description Get the budget whose period covers today
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Current budget"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No budget covers today"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/current [get]
func (h *BudgetHandler) GetCurrentBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetCurrentBudget(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudgetSummary handles retrieving the current budget with derived
// figures: spending so far and the glide-path daily allowance.
// @Summary     Get budget summary
// @Description Get the current budget with spending and the re-derived daily allowance
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BudgetSummary "Budget summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No budget covers today"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/summary [get]
func (h *BudgetHandler) GetBudgetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetBudgetSummary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// UpdateCurrentBudget handles amount-only updates to the current budget.
// @Summary     Update current budget
// @Description Update the amounts of the budget covering today
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateBudgetRequest true "Updated amounts"
// @Success     200 {object} map[string]interface{} "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No budget covers today"
// @Failure     422 {object} ErrorResponse "Figures fail validation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/current [put]
func (h *BudgetHandler) UpdateCurrentBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.MonthlyIncome == nil && req.FixedExpenses == nil && req.SavingsTarget == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one amount is required"))
		return
	}

	budget, err := h.budgetService.UpdateCurrentBudget(c.Request.Context(), userID, req.MonthlyIncome, req.FixedExpenses, req.SavingsTarget)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}
