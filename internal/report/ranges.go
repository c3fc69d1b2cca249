// Package report derives statistics, ledgers and export documents from an
// in-memory expense list. Nothing here touches storage; every function is a
// pure computation over its arguments.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

// Range selects the window of a statistics view.
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// Ranges returns the supported ranges.
func Ranges() []Range {
	return []Range{RangeWeek, RangeMonth, RangeYear}
}

// ParseRange parses a range name. An empty string selects the month view.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case "":
		return RangeMonth, nil
	case RangeWeek, RangeMonth, RangeYear:
		return Range(s), nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Bounds returns the inclusive date window of r around now.
func Bounds(r Range, now time.Time) (from, to models.Date) {
	today := models.Today(now)
	switch r {
	case RangeWeek:
		return today.AddDays(-7), today
	case RangeYear:
		return models.NewDate(today.Year(), time.January, 1), models.NewDate(today.Year(), time.December, 31)
	default:
		return today.FirstOfMonth(), today.LastOfMonth()
	}
}

// Filter returns the expenses dated within [from, to]. The input is not
// modified.
func Filter(expenses []models.Expense, from, to models.Date) []models.Expense {
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.Between(from, to) {
			out = append(out, e)
		}
	}
	return out
}

// InMonth returns the expenses dated in the calendar month of month.
func InMonth(expenses []models.Expense, month models.Date) []models.Expense {
	return Filter(expenses, month.FirstOfMonth(), month.LastOfMonth())
}

// Total sums the amounts of expenses.
func Total(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// ByCategory sums amounts per category. Categories without expenses are
// absent from the result.
func ByCategory(expenses []models.Expense) map[models.Category]decimal.Decimal {
	out := make(map[models.Category]decimal.Decimal)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}
