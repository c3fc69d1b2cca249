package models

import (
	"time"

	"expensetracker/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Theme is the colour scheme a profile prefers.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// DefaultCurrency is assigned to new profiles.
const DefaultCurrency = "USD"

// Profile holds the per-user settings. There is at most one row per user.
// Version is an optimistic-concurrency token: a write carrying a version older
// than the stored one is rejected.
type Profile struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id,omitempty"`
	UserID    string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Budget    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"budget"`
	Currency  string          `gorm:"size:3;not null" json:"currency"`
	Theme     Theme           `gorm:"size:5;not null" json:"theme"`
	Version   int64           `gorm:"not null" json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new profiles
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}

// DefaultProfile returns the profile a new user starts with.
func DefaultProfile(owner string) Profile {
	return Profile{
		UserID:   owner,
		Name:     "",
		Budget:   decimal.Zero,
		Currency: DefaultCurrency,
		Theme:    ThemeLight,
	}
}

// IsComplete reports whether the profile has a name and a positive budget.
// Incomplete profiles cannot add expenses or view statistics.
func (p Profile) IsComplete() bool {
	return p.Name != "" && p.Budget.IsPositive()
}
