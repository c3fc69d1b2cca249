package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"expensetracker/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProfile creates a complete profile for userID with the given budget.
func CreateTestProfile(t *testing.T, db *gorm.DB, userID string, budget string) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		UserID:   userID,
		Name:     fmt.Sprintf("Tester %d", nextID()),
		Budget:   decimal.RequireFromString(budget),
		Currency: models.DefaultCurrency,
		Theme:    models.ThemeLight,
		Version:  1,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return profile
}

// CreateTestExpense creates an expense for userID.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, amount string, category models.Category, date models.Date) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:      userID,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Date:        date,
		Description: fmt.Sprintf("%s %d", category, nextID()),
	}
	// Spread creation times so newest-first ordering is deterministic.
	expense.CreatedAt = time.Now().Add(time.Duration(nextID()) * time.Millisecond)
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// NewExpense builds an unsaved expense.
func NewExpense(amount string, category models.Category, date models.Date, description string) models.Expense {
	return models.Expense{
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Date:        date,
		Description: description,
	}
}
