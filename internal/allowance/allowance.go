// Package allowance implements the budget arithmetic: normalizing income to a
// monthly basis, deriving the discretionary spending budget, and computing the
// daily allowance both as an initial estimate and as a glide path over a live
// period. All functions are pure and total over decimal inputs.
package allowance

import (
	"time"

	"github.com/shopspring/decimal"

	"glidepath/internal/models"
)

// AverageDaysInMonth is 365.25/12, used for the initial daily-allowance
// estimate before a concrete budget period exists.
var AverageDaysInMonth = decimal.RequireFromString("30.4375")

var (
	weeksPerYear    = decimal.NewFromInt(52)
	fortnightsPerYr = decimal.NewFromInt(26)
	monthsPerYear   = decimal.NewFromInt(12)
)

// NormalizeToMonthly converts an amount paid at the given cadence to its
// monthly equivalent. Monthly amounts pass through unchanged.
func NormalizeToMonthly(amount decimal.Decimal, period models.BudgetPeriod) decimal.Decimal {
	switch period {
	case models.BudgetPeriodWeekly:
		return amount.Mul(weeksPerYear).Div(monthsPerYear)
	case models.BudgetPeriodBiweekly:
		return amount.Mul(fortnightsPerYr).Div(monthsPerYear)
	default:
		return amount
	}
}

// SpendingBudget returns the discretionary budget after fixed expenses and the
// savings target are reserved, clamped at zero. Overcommitted inputs should be
// rejected upstream by the wizard; the clamp keeps the stored figure sane if
// they slip through.
func SpendingBudget(monthlyIncome, fixedExpenses, savingsTarget decimal.Decimal) decimal.Decimal {
	budget := monthlyIncome.Sub(fixedExpenses).Sub(savingsTarget)
	if budget.IsNegative() {
		return decimal.Zero
	}
	return budget
}

// DailyAllowance returns the flat daily allowance for a spending budget using
// the average month length. Used only before a concrete period exists.
func DailyAllowance(spendingBudget decimal.Decimal) decimal.Decimal {
	return spendingBudget.Div(AverageDaysInMonth)
}

// CurrentDailyAllowance re-derives the daily allowance from what is left of
// the budget and of the period. The result is deliberately not floored at
// zero: a negative allowance is the over-pace signal.
func CurrentDailyAllowance(spendingBudget, totalSpentInPeriod decimal.Decimal, daysInPeriod, elapsedDays int) decimal.Decimal {
	remaining := spendingBudget.Sub(totalSpentInPeriod)
	remainingDays := daysInPeriod - elapsedDays
	if remainingDays < 1 {
		remainingDays = 1
	}
	return remaining.Div(decimal.NewFromInt(int64(remainingDays)))
}

// PeriodBounds returns the start and end of the budget period containing now.
// Monthly periods span the calendar month; weekly and biweekly periods are
// anchored at now's date. Both bounds are inclusive: the start is midnight of
// the first day and the end is the last instant of the final day.
func PeriodBounds(now time.Time, period models.BudgetPeriod) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var end time.Time
	switch period {
	case models.BudgetPeriodWeekly:
		end = day.AddDate(0, 0, 7)
	case models.BudgetPeriodBiweekly:
		end = day.AddDate(0, 0, 14)
	default:
		day = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = day.AddDate(0, 1, 0)
	}

	return day, end.Add(-time.Nanosecond)
}

// DaysInPeriod returns the number of calendar days the period spans,
// counting both endpoints. Days are counted from date components, not
// wall-clock hours, so DST transitions inside the period don't skew the count.
func DaysInPeriod(start, end time.Time) int {
	return dateDiffDays(start, end) + 1
}

// ElapsedDays returns the number of whole days of the period already behind
// now. On the period's first day it returns zero.
func ElapsedDays(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return dateDiffDays(start, now)
}

// dateDiffDays counts calendar days between the dates of a and b, ignoring
// the time of day and any zone-offset changes between them.
func dateDiffDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
