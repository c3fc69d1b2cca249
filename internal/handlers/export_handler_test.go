package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"expensetracker/internal/models"
	"expensetracker/internal/testutil"
)

func TestExportHandler_Download(t *testing.T) {
	app := setupApp(t)
	app.signInWithExpenses(t,
		testutil.NewExpense("12.5", models.CategoryFood, models.NewDate(2026, 3, 4), ""),
		testutil.NewExpense("7", models.CategoryTransport, models.NewDate(2026, 3, 9), ""),
		testutil.NewExpense("99", models.CategoryOthers, models.NewDate(2026, 2, 9), ""),
	)

	t.Run("defaults to this month as xlsx", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/v1/export", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="expense-report-march 2026.xlsx"` {
			t.Errorf("unexpected Content-Disposition %q", got)
		}

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("not a workbook: %v", err)
		}
		defer func() { _ = f.Close() }()
		rows, err := f.GetRows("Expenses")
		if err != nil {
			t.Fatalf("reading rows: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(rows))
		}
		if rows[1][0] != "09/03/2026" || rows[1][3] != "USD 7.00" {
			t.Errorf("expected newest first, got %v", rows[1])
		}
	})

	t.Run("csv of another month", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/v1/export?month=2026-02&format=csv", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("unexpected content type %q", ct)
		}
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		if len(lines) != 2 || !strings.Contains(lines[1], "USD 99.00") {
			t.Errorf("unexpected csv: %q", rec.Body.String())
		}
	})

	t.Run("pdf", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/v1/export?format=pdf", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
			t.Error("expected a PDF document")
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/v1/export?format=docx", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertFieldError(t, parseJSON(t, rec), "format")
	})
}
