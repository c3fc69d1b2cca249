package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

// previousMonths is how far back the ledger looks.
const previousMonths = 12

// MonthGroup is one month of expenses, newest date first.
type MonthGroup struct {
	Month    string           `json:"month"`
	Key      string           `json:"key"`
	Expenses []models.Expense `json:"expenses"`
	Total    decimal.Decimal  `json:"total"`
}

// Ledger is the home view: this month's expenses plus every earlier month of
// the past year that has any.
type Ledger struct {
	Current  MonthGroup   `json:"current"`
	Previous []MonthGroup `json:"previous"`
}

// MonthLabel formats month as "January 2026".
func MonthLabel(month models.Date) string {
	return month.Format("January 2006")
}

// MonthKey formats month as "2026-01".
func MonthKey(month models.Date) string {
	return month.Format("2006-01")
}

// ParseMonth parses a "2026-01" key into the first day of that month.
func ParseMonth(key string) (models.Date, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return models.Date{}, err
	}
	return models.DateOf(t), nil
}

// SortByDateDesc returns a copy of expenses ordered newest date first. Equal
// dates keep their input order.
func SortByDateDesc(expenses []models.Expense) []models.Expense {
	sorted := make([]models.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})
	return sorted
}

// Month groups the expenses of the calendar month containing month.
func Month(expenses []models.Expense, month models.Date) MonthGroup {
	first := month.FirstOfMonth()
	inMonth := SortByDateDesc(InMonth(expenses, first))
	return MonthGroup{
		Month:    MonthLabel(first),
		Key:      MonthKey(first),
		Expenses: inMonth,
		Total:    Total(inMonth),
	}
}

// BuildLedger builds the ledger at now.
func BuildLedger(expenses []models.Expense, now time.Time) Ledger {
	thisMonth := models.Today(now).FirstOfMonth()

	ledger := Ledger{
		Current:  Month(expenses, thisMonth),
		Previous: []MonthGroup{},
	}
	for i := 1; i <= previousMonths; i++ {
		group := Month(expenses, models.DateOf(thisMonth.AddDate(0, -i, 0)))
		if len(group.Expenses) > 0 {
			ledger.Previous = append(ledger.Previous, group)
		}
	}
	return ledger
}
