package testutil_test

import (
	"testing"

	"expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "profiles", "expenses"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	testutil.CreateTestUser(t, first)

	second := testutil.SetupTestDB(t)
	var count int64
	second.Table("users").Count(&count)
	if count != 0 {
		t.Errorf("expected a fresh database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	profile := testutil.CreateTestProfile(t, db, user.ID, "500")
	if !profile.IsComplete() {
		t.Error("fixture profile should be complete")
	}

	expense := testutil.CreateTestExpense(t, db, user.ID, "12.50", models.CategoryFood, models.NewDate(2026, 3, 14))
	if expense.Amount.String() != "12.5" {
		t.Errorf("expected amount 12.5, got %s", expense.Amount)
	}

	var stored models.Expense
	if err := db.First(&stored, "id = ?", expense.ID).Error; err != nil {
		t.Fatalf("failed to reload expense: %v", err)
	}
	if stored.Date.String() != "2026-03-14" {
		t.Errorf("expected date 2026-03-14, got %s", stored.Date)
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrExpenseNotFound, "EXPENSE_NOT_FOUND")
	testutil.AssertNoError(t, nil)
}
