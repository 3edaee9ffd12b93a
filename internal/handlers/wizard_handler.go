package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "glidepath/internal/errors"
	"glidepath/internal/models"
	"glidepath/internal/wizard"
)

// WizardHandler drives the budget setup flow over HTTP. Each user has at most
// one in-progress session; the endpoints map one-to-one onto wizard actions.
type WizardHandler struct {
	manager *wizard.Manager
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(manager *wizard.Manager) *WizardHandler {
	return &WizardHandler{manager: manager}
}

// WizardIncomeRequest carries the income step's input.
type WizardIncomeRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Frequency string          `json:"frequency" binding:"required,budget_period"`
}

// WizardSpendingRequest carries the spending step's input.
type WizardSpendingRequest struct {
	FixedExpenses decimal.Decimal `json:"fixed_expenses"`
	SavingsTarget decimal.Decimal `json:"savings_target"`
}

// Start begins a fresh setup session, discarding any previous one.
// @Summary     Start budget setup
// @Tags        wizard
// @Produce     json
// @Security    BearerAuth
// @Success     201 {object} wizard.State "New session state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wizard [post]
func (h *WizardHandler) Start(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session := h.manager.Start(userID)
	c.JSON(http.StatusCreated, gin.H{"state": session.State()})
}

// GetState returns the in-progress session's state.
// @Summary     Get setup state
// @Tags        wizard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} wizard.State "Session state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No setup in progress"
// @Router      /wizard [get]
func (h *WizardHandler) GetState(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.State()})
}

// SubmitIncome applies the income step.
// @Summary     Submit income
// @Tags        wizard
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WizardIncomeRequest true "Income amount and pay frequency"
// @Success     200 {object} wizard.State "Session state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No setup in progress"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /wizard/income [post]
func (h *WizardHandler) SubmitIncome(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req WizardIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	h.apply(c, session, wizard.SubmitIncome{
		Amount:    req.Amount,
		Frequency: models.BudgetPeriod(req.Frequency),
	})
}

// SubmitSpending applies the spending step.
// @Summary     Submit fixed expenses and savings target
// @Tags        wizard
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WizardSpendingRequest true "Fixed expenses and savings target"
// @Success     200 {object} wizard.State "Session state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No setup in progress"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /wizard/spending [post]
func (h *WizardHandler) SubmitSpending(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req WizardSpendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	h.apply(c, session, wizard.SubmitSpending{
		FixedExpenses: req.FixedExpenses,
		SavingsTarget: req.SavingsTarget,
	})
}

// Back returns to the previous step.
// @Summary     Go back one step
// @Tags        wizard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} wizard.State "Session state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No setup in progress"
// @Failure     409 {object} ErrorResponse "Already on the first step"
// @Router      /wizard/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.apply(c, session, wizard.Back{})
}

// Finish persists the derived budget and completes the flow. On failure the
// session stays on the review step for retry.
// @Summary     Finish budget setup
// @Tags        wizard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} wizard.State "Completed state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No setup in progress"
// @Failure     409 {object} ErrorResponse "Not on the review step"
// @Failure     500 {object} ErrorResponse "Persisting the budget failed"
// @Router      /wizard/finish [post]
func (h *WizardHandler) Finish(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	session, err := h.manager.Get(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := session.Apply(c.Request.Context(), wizard.Finish{}); err != nil {
		respondWithError(c, err)
		return
	}

	// The flow is done; the transient state is discarded.
	state := session.State()
	h.manager.Cancel(userID)
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// Cancel discards the in-progress session.
// @Summary     Cancel budget setup
// @Tags        wizard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Session discarded"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wizard [delete]
func (h *WizardHandler) Cancel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.manager.Cancel(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Budget setup cancelled"})
}

func (h *WizardHandler) session(c *gin.Context) (*wizard.Session, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	session, err := h.manager.Get(userID)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	return session, true
}

func (h *WizardHandler) apply(c *gin.Context, session *wizard.Session, action wizard.Action) {
	if err := session.Apply(c.Request.Context(), action); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.State()})
}
