// Package store holds the application state of one signed-in client and the
// operations that change it. Every mutation is written to the gateway first
// and only reduced into local state once the gateway has accepted it.
package store

import (
	"expensetracker/internal/models"
)

// State is the application state. Values returned by Store.State are copies;
// mutating them does not affect the store.
type State struct {
	Profile  models.Profile   `json:"profile"`
	Expenses []models.Expense `json:"expenses"`
	Identity *models.Identity `json:"user"`
	Loading  bool             `json:"loading"`
}

// InitialState is the state of a client nobody is signed in to.
func InitialState() State {
	return State{
		Profile:  models.DefaultProfile(""),
		Expenses: []models.Expense{},
	}
}

// Action is a state transition. The set of actions is closed.
type Action interface {
	isAction()
}

// ProfileReplaced replaces the whole profile.
type ProfileReplaced struct{ Profile models.Profile }

// ExpenseAppended adds an expense at the end of the list.
type ExpenseAppended struct{ Expense models.Expense }

// ExpenseRemoved removes the expense with the given ID, if present.
type ExpenseRemoved struct{ ID string }

// ExpensesReplaced replaces the whole expense list. A nil list empties it.
type ExpensesReplaced struct{ Expenses []models.Expense }

// ThemeFlipped switches the profile to the other theme.
type ThemeFlipped struct{}

// CurrencySet changes the profile currency.
type CurrencySet struct{ Currency string }

// IdentityReplaced records who is signed in; nil means nobody.
type IdentityReplaced struct{ Identity *models.Identity }

// LoadingSet toggles the loading flag.
type LoadingSet struct{ Loading bool }

func (ProfileReplaced) isAction()  {}
func (ExpenseAppended) isAction()  {}
func (ExpenseRemoved) isAction()   {}
func (ExpensesReplaced) isAction() {}
func (ThemeFlipped) isAction()     {}
func (CurrencySet) isAction()      {}
func (IdentityReplaced) isAction() {}
func (LoadingSet) isAction()       {}

// Reduce applies a to s and returns the new state. It never mutates the
// slices of s; an action that changes nothing returns s as is.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ProfileReplaced:
		s.Profile = a.Profile
	case ExpenseAppended:
		expenses := make([]models.Expense, len(s.Expenses), len(s.Expenses)+1)
		copy(expenses, s.Expenses)
		s.Expenses = append(expenses, a.Expense)
	case ExpenseRemoved:
		idx := -1
		for i, e := range s.Expenses {
			if e.ID == a.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return s
		}
		expenses := make([]models.Expense, 0, len(s.Expenses)-1)
		expenses = append(expenses, s.Expenses[:idx]...)
		s.Expenses = append(expenses, s.Expenses[idx+1:]...)
	case ExpensesReplaced:
		expenses := make([]models.Expense, len(a.Expenses))
		copy(expenses, a.Expenses)
		s.Expenses = expenses
	case ThemeFlipped:
		s.Profile.Theme = s.Profile.Theme.Opposite()
	case CurrencySet:
		s.Profile.Currency = a.Currency
	case IdentityReplaced:
		s.Identity = a.Identity
	case LoadingSet:
		s.Loading = a.Loading
	}
	return s
}

// sameExpenses reports whether a and b are the same list. Reduce always
// allocates a new backing array when the list changes.
func sameExpenses(a, b []models.Expense) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func sameProfile(a, b models.Profile) bool {
	return a.ID == b.ID &&
		a.UserID == b.UserID &&
		a.Name == b.Name &&
		a.Budget.Equal(b.Budget) &&
		a.Currency == b.Currency &&
		a.Theme == b.Theme &&
		a.Version == b.Version
}

func changed(prev, next State) bool {
	return !sameProfile(prev.Profile, next.Profile) ||
		!sameExpenses(prev.Expenses, next.Expenses) ||
		prev.Identity != next.Identity ||
		prev.Loading != next.Loading
}
