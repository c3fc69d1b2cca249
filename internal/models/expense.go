package models

import (
	"github.com/shopspring/decimal"
)

// Expense is one recorded outlay. Its currency is the owning profile's.
// Expenses are never edited; they are created and deleted.
type Expense struct {
	Base
	UserID      string          `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Category    Category        `gorm:"size:20;not null" json:"category"`
	Date        Date            `gorm:"type:date;not null" json:"date"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
}

// Label returns the description, or the category when there is none.
func (e Expense) Label() string {
	if e.Description != "" {
		return e.Description
	}
	return string(e.Category)
}
