package report

import (
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

// Level classifies spending against the monthly budget.
type Level string

const (
	LevelNone     Level = "ok"
	LevelWarning  Level = "warning"
	LevelExceeded Level = "exceeded"
)

var warningRatio = decimal.NewFromFloat(0.8)

// BudgetLevel returns the alert level of total against budget. A budget that
// is not positive never alerts.
func BudgetLevel(total, budget decimal.Decimal) Level {
	if !budget.IsPositive() {
		return LevelNone
	}
	if total.GreaterThanOrEqual(budget) {
		return LevelExceeded
	}
	if total.GreaterThanOrEqual(budget.Mul(warningRatio)) {
		return LevelWarning
	}
	return LevelNone
}

// Summary is the budget card of the home view.
type Summary struct {
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   float64         `json:"percent"`
	Level     Level           `json:"level"`
	Currency  string          `json:"currency"`
}

// PercentSpent returns spent as a percentage of budget, or 0 without a budget.
func PercentSpent(spent, budget decimal.Decimal) float64 {
	if !budget.IsPositive() {
		return 0
	}
	return spent.Div(budget).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}

// BudgetSummary summarises spending of the current month against the profile.
func BudgetSummary(profile models.Profile, spent decimal.Decimal) Summary {
	return Summary{
		Budget:    profile.Budget,
		Spent:     spent,
		Remaining: profile.Budget.Sub(spent),
		Percent:   PercentSpent(spent, profile.Budget),
		Level:     BudgetLevel(spent, profile.Budget),
		Currency:  profile.Currency,
	}
}

// Insights are the quick facts shown under the ledger.
type Insights struct {
	TopCategory  models.Category `json:"top_category,omitempty"`
	DailyAverage decimal.Decimal `json:"daily_average"`
	LastExpense  *models.Expense `json:"last_expense,omitempty"`
}

// MonthInsights computes insights for the current month at now. The daily
// average spreads the month's total over every day of the month.
func MonthInsights(expenses []models.Expense, now time.Time) Insights {
	group := Month(expenses, models.Today(now))
	if len(group.Expenses) == 0 {
		return Insights{DailyAverage: decimal.Zero}
	}

	days := decimal.NewFromInt(int64(models.Today(now).LastOfMonth().Day()))
	insights := Insights{
		DailyAverage: group.Total.DivRound(days, 2),
		LastExpense:  &group.Expenses[0],
	}
	if shares := Shares(ByCategory(group.Expenses), group.Total); len(shares) > 0 {
		insights.TopCategory = shares[0].Category
	}
	return insights
}
