package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"expensetracker/internal/models"
	"expensetracker/internal/testutil"
)

func TestExpenseHandler_Create(t *testing.T) {
	t.Run("returns 201 and appends the expense", func(t *testing.T) {
		app := setupApp(t)
		app.signIn(t, "1000")

		rec := app.request(http.MethodPost, "/api/v1/expenses",
			`{"amount":"12.50","category":"Food","date":"2026-03-10","description":"  Lunch  "}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		expense := parseJSON(t, rec)["expense"].(map[string]interface{})
		if id, _ := expense["id"].(string); id == "" {
			t.Error("expected the stored row with its ID")
		}
		if expense["description"] != "Lunch" {
			t.Errorf("expected trimmed description, got %v", expense["description"])
		}

		st := app.workspace(t).Store.State()
		if len(st.Expenses) != 1 || st.Expenses[0].Amount.String() != "12.5" {
			t.Errorf("unexpected local expenses: %+v", st.Expenses)
		}
	})

	t.Run("defaults the date to today", func(t *testing.T) {
		app := setupApp(t)
		app.signIn(t, "1000")

		rec := app.request(http.MethodPost, "/api/v1/expenses", `{"amount":5,"category":"Transport"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		expense := parseJSON(t, rec)["expense"].(map[string]interface{})
		if expense["date"] != "2026-03-18" {
			t.Errorf("expected today's date, got %v", expense["date"])
		}
	})

	t.Run("validates the form", func(t *testing.T) {
		app := setupApp(t)
		app.signIn(t, "1000")

		tests := []struct {
			name  string
			body  string
			field string
		}{
			{name: "zero_amount", body: `{"amount":0,"category":"Food"}`, field: "amount"},
			{name: "negative_amount", body: `{"amount":-3,"category":"Food"}`, field: "amount"},
			{name: "unknown_category", body: `{"amount":3,"category":"Rent"}`, field: "category"},
			{name: "future_date", body: `{"amount":3,"category":"Food","date":"2999-01-01"}`, field: "date"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := app.request(http.MethodPost, "/api/v1/expenses", tt.body)
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
				}
				assertFieldError(t, parseJSON(t, rec), tt.field)
			})
		}

		if n := len(app.workspace(t).Store.State().Expenses); n != 0 {
			t.Errorf("invalid forms must not add expenses, got %d", n)
		}
	})

	t.Run("returns 403 until the profile is complete", func(t *testing.T) {
		app := setupApp(t)
		app.signIn(t, "")

		rec := app.request(http.MethodPost, "/api/v1/expenses", `{"amount":5,"category":"Food"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PROFILE_INCOMPLETE")
	})

	t.Run("returns 401 when signed out", func(t *testing.T) {
		app := setupApp(t)
		rec := app.request(http.MethodPost, "/api/v1/expenses", `{"amount":5,"category":"Food"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_List(t *testing.T) {
	app := setupApp(t)
	user := testutil.CreateTestUser(t, app.db)
	testutil.CreateTestProfile(t, app.db, user.ID, "1000")
	testutil.CreateTestExpense(t, app.db, user.ID, "10", models.CategoryFood, models.NewDate(2026, 2, 1))
	testutil.CreateTestExpense(t, app.db, user.ID, "20", models.CategoryGrocery, models.NewDate(2026, 3, 15))
	testutil.CreateTestExpense(t, app.db, user.ID, "30", models.CategoryFood, models.NewDate(2026, 3, 2))

	rec := app.request(http.MethodPost, "/api/v1/auth/signin",
		fmt.Sprintf(`{"email":%q,"password":%q}`, user.Email, testutil.TestPassword))
	if rec.Code != http.StatusOK {
		t.Fatalf("sign in failed: %d", rec.Code)
	}

	t.Run("newest date first", func(t *testing.T) {
		result := parseJSON(t, app.request(http.MethodGet, "/api/v1/expenses", ""))
		data := result["data"].([]interface{})
		if len(data) != 3 {
			t.Fatalf("expected 3 expenses, got %d", len(data))
		}
		var dates []interface{}
		for _, d := range data {
			dates = append(dates, d.(map[string]interface{})["date"])
		}
		want := []interface{}{"2026-03-15", "2026-03-02", "2026-02-01"}
		for i := range want {
			if dates[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, dates)
			}
		}
	})

	t.Run("paginates", func(t *testing.T) {
		result := parseJSON(t, app.request(http.MethodGet, "/api/v1/expenses?page=2&page_size=2", ""))
		if result["total_items"].(float64) != 3 || result["total_pages"].(float64) != 2 {
			t.Errorf("unexpected page metadata: %v", result)
		}
		if n := len(result["data"].([]interface{})); n != 1 {
			t.Errorf("expected 1 item on page 2, got %d", n)
		}
	})

	t.Run("filters by month and category", func(t *testing.T) {
		result := parseJSON(t, app.request(http.MethodGet, "/api/v1/expenses?month=2026-03&category=Food", ""))
		if result["total_items"].(float64) != 1 {
			t.Errorf("expected 1 match, got %v", result["total_items"])
		}
	})

	t.Run("rejects a bad month", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/api/v1/expenses?month=March", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertFieldError(t, parseJSON(t, rec), "month")
	})
}

func TestExpenseHandler_Delete(t *testing.T) {
	app := setupApp(t)
	app.signIn(t, "1000")

	rec := app.request(http.MethodPost, "/api/v1/expenses", `{"amount":5,"category":"Food"}`)
	id := parseJSON(t, rec)["expense"].(map[string]interface{})["id"].(string)

	t.Run("deletes", func(t *testing.T) {
		rec := app.request(http.MethodDelete, "/api/v1/expenses/"+id, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if n := len(app.workspace(t).Store.State().Expenses); n != 0 {
			t.Errorf("expected the expense to be removed locally, got %d", n)
		}
	})

	t.Run("returns 404 for an unknown id", func(t *testing.T) {
		rec := app.request(http.MethodDelete, "/api/v1/expenses/"+id, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "EXPENSE_NOT_FOUND")
	})
}
