package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

// CategoryShare is one slice of the category breakdown.
type CategoryShare struct {
	Category models.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Percent  float64         `json:"percent"`
	Color    string          `json:"color"`
}

// Stats is the statistics view for one range.
type Stats struct {
	Range      Range           `json:"range"`
	From       models.Date     `json:"from"`
	To         models.Date     `json:"to"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	ByCategory []CategoryShare `json:"by_category"`
	Buckets    []Bucket        `json:"buckets"`
}

// chartPalette colours the category breakdown in category order.
var chartPalette = map[models.Category]string{
	models.CategoryFood:       "#FF6384",
	models.CategoryUtility:    "#36A2EB",
	models.CategoryStationary: "#FFCE56",
	models.CategoryGrocery:    "#4BC0C0",
	models.CategoryClothing:   "#9966FF",
	models.CategoryTransport:  "#FF9F40",
	models.CategoryOthers:     "#C9CBCF",
}

// Statistics computes the statistics view of r at now.
func Statistics(r Range, expenses []models.Expense, now time.Time) Stats {
	from, to := Bounds(r, now)
	inRange := Filter(expenses, from, to)
	total := Total(inRange)

	return Stats{
		Range:      r,
		From:       from,
		To:         to,
		Total:      total,
		Count:      len(inRange),
		ByCategory: Shares(ByCategory(inRange), total),
		Buckets:    Buckets(r, inRange, now),
	}
}

// Shares turns a category mapping into slices ordered largest first, ties
// broken by category order.
func Shares(byCategory map[models.Category]decimal.Decimal, total decimal.Decimal) []CategoryShare {
	shares := make([]CategoryShare, 0, len(byCategory))
	for _, c := range models.Categories() {
		amount, ok := byCategory[c]
		if !ok {
			continue
		}
		share := CategoryShare{Category: c, Total: amount, Color: chartPalette[c]}
		if total.IsPositive() {
			share.Percent = amount.Div(total).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		shares = append(shares, share)
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Total.GreaterThan(shares[j].Total)
	})
	return shares
}
