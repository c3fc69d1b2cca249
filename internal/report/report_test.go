package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"expensetracker/internal/models"
)

// now is Wednesday 18 March 2026, mid-afternoon.
var now = time.Date(2026, time.March, 18, 15, 30, 0, 0, time.UTC)

func expense(amount string, category models.Category, date models.Date, description string) models.Expense {
	return models.Expense{
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Date:        date,
		Description: description,
	}
}

func day(m time.Month, d int) models.Date {
	return models.NewDate(2026, m, d)
}

func fixture() []models.Expense {
	return []models.Expense{
		expense("10", models.CategoryFood, day(time.March, 18), "Lunch"),
		expense("5.50", models.CategoryTransport, day(time.March, 11), ""),
		expense("20", models.CategoryFood, day(time.March, 2), "Groceries run"),
		expense("100", models.CategoryClothing, day(time.February, 20), "Coat"),
		expense("7", models.CategoryOthers, models.NewDate(2025, time.March, 18), "Last year"),
		expense("3", models.CategoryUtility, models.NewDate(2025, time.December, 31), "Bill"),
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		wantErr bool
	}{
		{"", RangeMonth, false},
		{"week", RangeWeek, false},
		{"year", RangeYear, false},
		{"decade", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		r        Range
		from, to string
	}{
		{RangeWeek, "2026-03-11", "2026-03-18"},
		{RangeMonth, "2026-03-01", "2026-03-31"},
		{RangeYear, "2026-01-01", "2026-12-31"},
	}
	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			from, to := Bounds(tt.r, now)
			assert.Equal(t, tt.from, from.String())
			assert.Equal(t, tt.to, to.String())
		})
	}
}

func TestFilterIsInclusive(t *testing.T) {
	from, to := Bounds(RangeWeek, now)
	got := Filter(fixture(), from, to)
	require.Len(t, got, 2)
	assert.Equal(t, "Lunch", got[0].Description)
	assert.Equal(t, "2026-03-11", got[1].Date.String())
}

func TestByCategory_OmitsEmptyAndSumsToTotal(t *testing.T) {
	inMonth := InMonth(fixture(), models.Today(now))
	byCategory := ByCategory(inMonth)

	assert.Len(t, byCategory, 2)
	assert.NotContains(t, byCategory, models.CategoryClothing)
	assert.True(t, byCategory[models.CategoryFood].Equal(decimal.NewFromInt(30)))

	sum := decimal.Zero
	for _, v := range byCategory {
		sum = sum.Add(v)
	}
	assert.True(t, sum.Equal(Total(inMonth)))
}

func TestBuckets(t *testing.T) {
	t.Run("week has seven daily buckets ending today", func(t *testing.T) {
		buckets := Buckets(RangeWeek, fixture(), now)
		require.Len(t, buckets, 7)
		assert.Equal(t, "Thu", buckets[0].Label)
		assert.Equal(t, "2026-03-12", buckets[0].From.String())
		assert.Equal(t, "Wed", buckets[6].Label)
		assert.Equal(t, "2026-03-18", buckets[6].To.String())
		assert.True(t, buckets[6].Total.Equal(decimal.NewFromInt(10)))
	})

	t.Run("month has one bucket per started week", func(t *testing.T) {
		buckets := Buckets(RangeMonth, fixture(), now)
		require.Len(t, buckets, 5)
		assert.Equal(t, "Week 1", buckets[0].Label)
		assert.Equal(t, "Week 5", buckets[4].Label)
		assert.Equal(t, "2026-03-29", buckets[4].From.String())
		assert.Equal(t, "2026-03-31", buckets[4].To.String())
		assert.True(t, buckets[0].Total.Equal(decimal.NewFromInt(20)))
		assert.True(t, buckets[1].Total.Equal(decimal.RequireFromString("5.5")))
		assert.True(t, buckets[2].Total.Equal(decimal.NewFromInt(10)))
	})

	t.Run("february outside leap years has four buckets", func(t *testing.T) {
		feb := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
		assert.Len(t, Buckets(RangeMonth, nil, feb), 4)
	})

	t.Run("year always has twelve buckets", func(t *testing.T) {
		buckets := Buckets(RangeYear, nil, now)
		require.Len(t, buckets, 12)
		assert.Equal(t, "Jan", buckets[0].Label)
		assert.Equal(t, "Dec", buckets[11].Label)
		for _, b := range buckets {
			assert.True(t, b.Total.IsZero())
		}
	})
}

func TestStatistics(t *testing.T) {
	stats := Statistics(RangeYear, fixture(), now)
	assert.Equal(t, 4, stats.Count)
	assert.True(t, stats.Total.Equal(decimal.RequireFromString("135.5")))
	require.NotEmpty(t, stats.ByCategory)
	assert.Equal(t, models.CategoryClothing, stats.ByCategory[0].Category)
	assert.Equal(t, "#9966FF", stats.ByCategory[0].Color)
	assert.True(t, stats.Buckets[1].Total.Equal(decimal.NewFromInt(100)))
}

func TestBuildLedger(t *testing.T) {
	ledger := BuildLedger(fixture(), now)

	assert.Equal(t, "March 2026", ledger.Current.Month)
	require.Len(t, ledger.Current.Expenses, 3)
	assert.Equal(t, "Lunch", ledger.Current.Expenses[0].Description)
	assert.Equal(t, "2026-03-02", ledger.Current.Expenses[2].Date.String())

	var months []string
	for _, g := range ledger.Previous {
		months = append(months, g.Month)
	}
	assert.Equal(t, []string{"February 2026", "December 2025", "March 2025"}, months)
	assert.Equal(t, "2025-03", ledger.Previous[2].Key)
}

func TestBudgetLevel(t *testing.T) {
	budget := decimal.NewFromInt(1000)
	tests := []struct {
		total string
		want  Level
	}{
		{"0", LevelNone},
		{"799.99", LevelNone},
		{"800", LevelWarning},
		{"999.99", LevelWarning},
		{"1000", LevelExceeded},
		{"1050", LevelExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			assert.Equal(t, tt.want, BudgetLevel(decimal.RequireFromString(tt.total), budget))
		})
	}

	assert.Equal(t, LevelNone, BudgetLevel(decimal.NewFromInt(5000), decimal.Zero))
}

func TestBudgetSummary(t *testing.T) {
	profile := models.Profile{Budget: decimal.NewFromInt(200), Currency: "EUR"}
	summary := BudgetSummary(profile, decimal.NewFromInt(250))

	assert.True(t, summary.Remaining.Equal(decimal.NewFromInt(-50)))
	assert.Equal(t, 125.0, summary.Percent)
	assert.Equal(t, LevelExceeded, summary.Level)
	assert.Equal(t, "EUR", summary.Currency)
}

func TestMonthInsights(t *testing.T) {
	insights := MonthInsights(fixture(), now)
	assert.Equal(t, models.CategoryFood, insights.TopCategory)
	assert.Equal(t, "1.15", insights.DailyAverage.StringFixed(2))
	require.NotNil(t, insights.LastExpense)
	assert.Equal(t, "Lunch", insights.LastExpense.Description)

	empty := MonthInsights(nil, now)
	assert.Nil(t, empty.LastExpense)
	assert.True(t, empty.DailyAverage.IsZero())
}

func TestExportMonth(t *testing.T) {
	export := ExportMonth(fixture(), day(time.March, 1), "USD")

	assert.Equal(t, "March 2026", export.Month)
	assert.Equal(t, "USD 35.50", export.Total)
	require.Len(t, export.Rows, 3)
	assert.Equal(t, ExportRow{Date: "18/03/2026", Category: "Food", Description: "Lunch", Amount: "USD 10.00"}, export.Rows[0])
	assert.Equal(t, "-", export.Rows[1].Description)
	assert.Equal(t, "USD 5.50", export.Rows[1].Amount)

	assert.Equal(t, "expense-report-march 2026.xlsx", export.FileName(FormatXLSX))
	assert.Equal(t, "expense-report-march 2026.pdf", export.FileName(FormatPDF))
}

func TestExport_Write(t *testing.T) {
	export := ExportMonth(fixture(), day(time.March, 1), "GBP")

	t.Run("xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.Write(&buf, FormatXLSX))

		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"Expenses"}, f.GetSheetList())
		rows, err := f.GetRows("Expenses")
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, exportHeader, rows[0])
		assert.Equal(t, []string{"18/03/2026", "Food", "Lunch", "GBP 10.00"}, rows[1])
	})

	t.Run("pdf", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.Write(&buf, FormatPDF))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.Write(&buf, FormatCSV))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"02/03/2026", "Food", "Groceries run", "GBP 20.00"}, records[3])
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, export.Write(&bytes.Buffer{}, Format("docx")))
	})
}

func TestExport_WriteCSVQuotesFormulas(t *testing.T) {
	export := Export{Rows: []ExportRow{
		{Date: "01/03/2026", Category: "Food", Description: "=HYPERLINK(\"http://x\",\"y\")", Amount: "GBP 1.00"},
		{Date: "02/03/2026", Category: "Food", Description: "+1+2", Amount: "GBP 1.00"},
		{Date: "03/03/2026", Category: "Food", Description: "-2+3", Amount: "GBP 1.00"},
		{Date: "04/03/2026", Category: "Food", Description: "@SUM(A1)", Amount: "GBP 1.00"},
		{Date: "05/03/2026", Category: "Food", Description: "-", Amount: "GBP 1.00"},
		{Date: "06/03/2026", Category: "Food", Description: "Lunch = 2 items", Amount: "GBP 1.00"},
	}}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)

	var descriptions []string
	for _, record := range records[1:] {
		descriptions = append(descriptions, record[2])
	}
	assert.Equal(t, []string{
		"'=HYPERLINK(\"http://x\",\"y\")",
		"'+1+2",
		"'-2+3",
		"'@SUM(A1)",
		"-",
		"Lunch = 2 items",
	}, descriptions)
	assert.Equal(t, "GBP 1.00", records[1][3])
}
