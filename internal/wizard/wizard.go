// Package wizard implements the three-step budget setup flow:
// income -> spending -> review. The flow is strictly linear with a Back
// transition on the later steps; every transition before Finish is a pure
// state update, and Finish persists the derived budget exactly once.
package wizard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"glidepath/internal/allowance"
	apperrors "glidepath/internal/errors"
	"glidepath/internal/models"
)

// Step identifies the wizard's current screen.
type Step string

const (
	StepIncome   Step = "income"
	StepSpending Step = "spending"
	StepReview   Step = "review"
	StepDone     Step = "done"
)

// State is the accumulated wizard input plus the figures derived from it.
// It is transient: discarded on completion or cancellation.
type State struct {
	Step            Step                `json:"step"`
	IncomeAmount    decimal.Decimal     `json:"income_amount"`
	IncomeFrequency models.BudgetPeriod `json:"income_frequency"`
	MonthlyIncome   decimal.Decimal     `json:"monthly_income"`
	FixedExpenses   decimal.Decimal     `json:"fixed_expenses"`
	SavingsTarget   decimal.Decimal     `json:"savings_target"`
	SpendingBudget  decimal.Decimal     `json:"spending_budget"`
	DailyAllowance  decimal.Decimal     `json:"daily_allowance"`
	Error           string              `json:"error,omitempty"`
}

// Action is the closed set of wizard inputs. Dispatch is a type switch, so
// an unknown action cannot be expressed by callers of this package.
type Action interface {
	isAction()
}

// SubmitIncome advances income -> spending.
type SubmitIncome struct {
	Amount    decimal.Decimal
	Frequency models.BudgetPeriod
}

// SubmitSpending advances spending -> review.
type SubmitSpending struct {
	FixedExpenses decimal.Decimal
	SavingsTarget decimal.Decimal
}

// Back returns to the previous step.
type Back struct{}

// Finish persists the budget and completes the flow.
type Finish struct{}

func (SubmitIncome) isAction()   {}
func (SubmitSpending) isAction() {}
func (Back) isAction()           {}
func (Finish) isAction()         {}

// Saver persists the budget derived by a finished wizard. The budget service
// implements it with a get-current-then-update-else-create lookup.
type Saver interface {
	SaveFromWizard(ctx context.Context, userID string, state State) (*models.Budget, error)
}

// Session is one user's in-progress wizard run.
type Session struct {
	userID string
	saver  Saver
	state  State
}

// NewSession starts a session at the income step.
func NewSession(userID string, saver Saver) *Session {
	return &Session{
		userID: userID,
		saver:  saver,
		state:  State{Step: StepIncome},
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	return s.state
}

// Apply dispatches one action. Guard failures return a validation AppError
// and leave the state on the current step; only Finish has side effects, and
// a Finish failure keeps the session on review so it can be retried.
func (s *Session) Apply(ctx context.Context, action Action) error {
	var err error
	switch a := action.(type) {
	case SubmitIncome:
		err = s.submitIncome(a)
	case SubmitSpending:
		err = s.submitSpending(a)
	case Back:
		err = s.back()
	case Finish:
		err = s.finish(ctx)
	}

	if err != nil {
		s.state.Error = err.Error()
	} else {
		s.state.Error = ""
	}
	return err
}

func (s *Session) submitIncome(a SubmitIncome) error {
	if s.state.Step != StepIncome {
		return apperrors.ErrWizardWrongStep
	}
	if !a.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Income amount must be greater than zero")
	}
	if !a.Frequency.Valid() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Payment frequency must be weekly, biweekly, or monthly")
	}

	s.state.IncomeAmount = a.Amount
	s.state.IncomeFrequency = a.Frequency
	s.state.MonthlyIncome = allowance.NormalizeToMonthly(a.Amount, a.Frequency)
	s.state.Step = StepSpending
	return nil
}

func (s *Session) submitSpending(a SubmitSpending) error {
	if s.state.Step != StepSpending {
		return apperrors.ErrWizardWrongStep
	}
	if a.FixedExpenses.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Fixed expenses cannot be negative")
	}
	if a.SavingsTarget.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Savings target cannot be negative")
	}

	income := s.state.MonthlyIncome
	if a.FixedExpenses.GreaterThan(income) {
		return apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf(
			"Fixed expenses ($%s) exceed your monthly income ($%s)",
			a.FixedExpenses.StringFixed(2), income.StringFixed(2)))
	}
	committed := a.FixedExpenses.Add(a.SavingsTarget)
	if committed.GreaterThan(income) {
		maxSavings := income.Sub(a.FixedExpenses)
		return apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf(
			"Fixed expenses and savings exceed your monthly income by $%s. Maximum savings allowed: $%s",
			committed.Sub(income).StringFixed(2), maxSavings.StringFixed(2)))
	}

	s.state.FixedExpenses = a.FixedExpenses
	s.state.SavingsTarget = a.SavingsTarget
	s.state.SpendingBudget = allowance.SpendingBudget(income, a.FixedExpenses, a.SavingsTarget)
	s.state.DailyAllowance = allowance.DailyAllowance(s.state.SpendingBudget)
	s.state.Step = StepReview
	return nil
}

func (s *Session) back() error {
	switch s.state.Step {
	case StepSpending:
		s.state.Step = StepIncome
	case StepReview:
		s.state.Step = StepSpending
	default:
		return apperrors.ErrWizardWrongStep
	}
	return nil
}

func (s *Session) finish(ctx context.Context) error {
	if s.state.Step != StepReview {
		return apperrors.ErrWizardWrongStep
	}
	if _, err := s.saver.SaveFromWizard(ctx, s.userID, s.state); err != nil {
		return err
	}
	s.state.Step = StepDone
	return nil
}
