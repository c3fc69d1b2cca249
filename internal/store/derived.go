package store

import (
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
	"expensetracker/internal/report"
)

// TotalExpenses sums the expenses dated in the calendar month of now.
func (st State) TotalExpenses(now time.Time) decimal.Decimal {
	return report.Total(report.InMonth(st.Expenses, models.Today(now)))
}

// RemainingBalance is the budget minus this month's total. It goes negative
// once the budget is exceeded.
func (st State) RemainingBalance(now time.Time) decimal.Decimal {
	return st.Profile.Budget.Sub(st.TotalExpenses(now))
}

// ExpensesByCategory sums this month's expenses per category, omitting
// categories without any.
func (st State) ExpensesByCategory(now time.Time) map[models.Category]decimal.Decimal {
	return report.ByCategory(report.InMonth(st.Expenses, models.Today(now)))
}

// IsProfileComplete reports whether the profile has a name and a budget.
func (st State) IsProfileComplete() bool {
	return st.Profile.IsComplete()
}

// PercentSpent is this month's total as a percentage of the budget.
func (st State) PercentSpent(now time.Time) float64 {
	return report.PercentSpent(st.TotalExpenses(now), st.Profile.Budget)
}

// TotalExpenses evaluates State.TotalExpenses at the store's clock.
func (s *Store) TotalExpenses() decimal.Decimal {
	return s.State().TotalExpenses(s.now())
}

// RemainingBalance evaluates State.RemainingBalance at the store's clock.
func (s *Store) RemainingBalance() decimal.Decimal {
	return s.State().RemainingBalance(s.now())
}

// ExpensesByCategory evaluates State.ExpensesByCategory at the store's clock.
func (s *Store) ExpensesByCategory() map[models.Category]decimal.Decimal {
	return s.State().ExpensesByCategory(s.now())
}

// IsProfileComplete reports whether the current profile is complete.
func (s *Store) IsProfileComplete() bool {
	return s.State().IsProfileComplete()
}
