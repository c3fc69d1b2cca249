package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

// Bucket is one bar of a statistics chart.
type Bucket struct {
	Label string          `json:"label"`
	From  models.Date     `json:"from"`
	To    models.Date     `json:"to"`
	Total decimal.Decimal `json:"total"`
}

// Buckets splits the window of r into chart bars:
//   - week: seven daily bars ending today, oldest first, labelled Mon..Sun
//   - month: one bar per started week of the month, labelled "Week N"
//   - year: twelve monthly bars labelled Jan..Dec
//
// Every bar is present even when nothing was spent in it.
func Buckets(r Range, expenses []models.Expense, now time.Time) []Bucket {
	today := models.Today(now)

	var buckets []Bucket
	switch r {
	case RangeWeek:
		buckets = make([]Bucket, 0, 7)
		for i := 6; i >= 0; i-- {
			day := today.AddDays(-i)
			buckets = append(buckets, Bucket{Label: day.Weekday().String()[:3], From: day, To: day})
		}
	case RangeYear:
		buckets = make([]Bucket, 0, 12)
		for m := time.January; m <= time.December; m++ {
			first := models.NewDate(today.Year(), m, 1)
			buckets = append(buckets, Bucket{Label: m.String()[:3], From: first, To: first.LastOfMonth()})
		}
	default:
		first, last := today.FirstOfMonth(), today.LastOfMonth()
		weeks := (last.Day() + 6) / 7
		buckets = make([]Bucket, 0, weeks)
		for i := 0; i < weeks; i++ {
			from := first.AddDays(i * 7)
			to := from.AddDays(6)
			if to.After(last.Time) {
				to = last
			}
			buckets = append(buckets, Bucket{Label: fmt.Sprintf("Week %d", i+1), From: from, To: to})
		}
	}

	for i := range buckets {
		buckets[i].Total = Total(Filter(expenses, buckets[i].From, buckets[i].To))
	}
	return buckets
}
