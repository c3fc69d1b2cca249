package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/gateway"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
	"expensetracker/internal/notify"
)

const (
	msgProfileSaved      = "Profile updated successfully!"
	msgProfileSaveFailed = "Failed to save profile"
	msgExpenseAdded      = "Expense added successfully!"
	msgExpenseAddFailed  = "Failed to add expense"
	msgExpenseDeleted    = "Expense deleted successfully!"
	msgExpenseDelFailed  = "Failed to delete expense"
)

// Listener observes state changes. It runs after the change is applied,
// outside the store's lock, and must not block.
type Listener func(prev, next State)

// Store is the state container of one client.
type Store struct {
	gw       gateway.Gateway
	notifier notify.Notifier
	now      func() time.Time

	mu        sync.RWMutex
	state     State
	nextID    int
	listeners map[int]Listener
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used by the derived values.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store in the initial state.
func New(gw gateway.Gateway, notifier notify.Notifier, opts ...Option) *Store {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	s := &Store{
		gw:        gw,
		notifier:  notifier,
		now:       time.Now,
		state:     InitialState(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Expenses = make([]models.Expense, len(s.state.Expenses))
	copy(st.Expenses, s.state.Expenses)
	return st
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Dispatch reduces a into the state and notifies listeners when anything
// changed.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	s.state = next
	if !changed(prev, next) {
		s.mu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(prev, next)
	}
}

// write describes one write-through mutation. call performs the remote write
// and returns the action to reduce plus an optional event payload.
type write struct {
	success string
	failure string
	topic   string
	call    func(ctx context.Context) (Action, map[string]any, error)
}

// writeThrough runs the remote call and only on success reduces its action.
// Failures leave state untouched and are reported with w.failure.
func (s *Store) writeThrough(ctx context.Context, w write) error {
	action, payload, err := w.call(ctx)
	if err != nil {
		logger.Get().Warnw(w.failure, "error", err)
		s.notifier.Notify(ctx, notify.Error(w.failure))
		return err
	}

	s.Dispatch(action)

	n := notify.Success(w.success)
	if w.topic != "" {
		owner := ""
		if identity := s.identity(); identity != nil {
			owner = identity.ID
		}
		n = n.WithEvent(w.topic, owner, payload)
	}
	s.notifier.Notify(ctx, n)
	return nil
}

func (s *Store) identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Identity
}

// SaveProfile upserts profile for the signed-in user and replaces the local
// profile with the saved row. A stale Version fails with ErrConflict.
func (s *Store) SaveProfile(ctx context.Context, profile models.Profile) error {
	identity := s.identity()
	if identity == nil {
		return apperrors.ErrNotSignedIn
	}

	return s.writeThrough(ctx, write{
		success: msgProfileSaved,
		failure: msgProfileSaveFailed,
		call: func(ctx context.Context) (Action, map[string]any, error) {
			profile.UserID = identity.ID
			saved, err := s.gw.UpsertProfile(ctx, profile)
			if err != nil {
				return nil, nil, err
			}
			saved.UserID = identity.ID
			return ProfileReplaced{Profile: *saved}, nil, nil
		},
	})
}

// ToggleTheme saves the profile with the opposite theme.
func (s *Store) ToggleTheme(ctx context.Context) error {
	profile := s.State().Profile
	profile.Theme = profile.Theme.Opposite()
	return s.SaveProfile(ctx, profile)
}

// SetCurrency saves the profile with a new currency.
func (s *Store) SetCurrency(ctx context.Context, code string) error {
	if !models.IsSupportedCurrency(code) {
		return apperrors.WithFields(apperrors.ErrInvalidInput, map[string]string{"currency": "Unsupported currency"})
	}
	profile := s.State().Profile
	profile.Currency = code
	return s.SaveProfile(ctx, profile)
}

// ExpenseInput holds the user-supplied fields of a new expense.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Category    models.Category
	Date        models.Date
	Description string
}

// AddExpense inserts a new expense owned by the signed-in user and appends
// the stored row, with its assigned ID, to the list.
func (s *Store) AddExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	identity := s.identity()
	if identity == nil {
		return nil, apperrors.ErrNotSignedIn
	}

	var created *models.Expense
	err := s.writeThrough(ctx, write{
		success: msgExpenseAdded,
		failure: msgExpenseAddFailed,
		topic:   notify.TopicExpenseAdded,
		call: func(ctx context.Context) (Action, map[string]any, error) {
			row, err := s.gw.InsertExpense(ctx, models.Expense{
				UserID:      identity.ID,
				Amount:      in.Amount,
				Category:    in.Category,
				Date:        in.Date,
				Description: in.Description,
			})
			if err != nil {
				return nil, nil, err
			}
			created = row
			return ExpenseAppended{Expense: *row}, map[string]any{
				"id":       row.ID,
				"amount":   row.Amount.String(),
				"category": string(row.Category),
				"date":     row.Date.String(),
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteExpense deletes the expense with id and removes it from the list.
// Unknown IDs are still sent to the gateway and its error is returned.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return s.writeThrough(ctx, write{
		success: msgExpenseDeleted,
		failure: msgExpenseDelFailed,
		topic:   notify.TopicExpenseDeleted,
		call: func(ctx context.Context) (Action, map[string]any, error) {
			if err := s.gw.DeleteExpense(ctx, id); err != nil {
				return nil, nil, err
			}
			return ExpenseRemoved{ID: id}, map[string]any{"id": id}, nil
		},
	})
}

// LoadUserData fetches the profile, creating a default one when missing, and
// the expense list concurrently, then replaces local state with them. A
// failure in one half does not stop the other; the first error is returned.
func (s *Store) LoadUserData(ctx context.Context) error {
	identity := s.identity()
	if identity == nil {
		return apperrors.ErrNotSignedIn
	}

	s.Dispatch(LoadingSet{Loading: true})
	defer s.Dispatch(LoadingSet{Loading: false})

	var (
		profile  *models.Profile
		expenses []models.Expense
		g        errgroup.Group
	)
	g.Go(func() error {
		p, err := s.loadProfile(ctx, identity)
		if err != nil {
			logger.Get().Errorw("failed to load profile", "error", err, "user_id", identity.ID)
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		list, err := s.gw.ListExpenses(ctx, identity.ID)
		if err != nil {
			logger.Get().Errorw("failed to load expenses", "error", err, "user_id", identity.ID)
			return err
		}
		expenses = list
		return nil
	})
	err := g.Wait()

	if current := s.identity(); current == nil || current.ID != identity.ID {
		logger.Get().Infow("discarding user data loaded for a previous session", "user_id", identity.ID)
		return err
	}
	if profile != nil {
		s.Dispatch(ProfileReplaced{Profile: *profile})
	}
	if expenses != nil {
		s.Dispatch(ExpensesReplaced{Expenses: expenses})
	}
	return err
}

// loadProfile fetches the owner's profile, creating the default one named
// after the sign-up name when none exists yet.
func (s *Store) loadProfile(ctx context.Context, identity *models.Identity) (*models.Profile, error) {
	profile, err := s.gw.FetchProfile(ctx, identity.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, apperrors.ErrProfileNotFound) {
		return nil, err
	}

	defaults := models.DefaultProfile(identity.ID)
	defaults.Name = identity.Name
	profile, err = s.gw.CreateProfile(ctx, defaults)
	if err != nil {
		return nil, fmt.Errorf("creating default profile: %w", err)
	}
	return profile, nil
}

// HandleIdentity couples the store to session transitions. Signing in loads
// the user's data; signing out clears it locally without calling the gateway.
func (s *Store) HandleIdentity(ctx context.Context, prev, next *models.Identity) {
	if next == nil {
		s.Dispatch(IdentityReplaced{Identity: nil})
		s.Dispatch(ExpensesReplaced{Expenses: nil})
		s.Dispatch(ProfileReplaced{Profile: models.DefaultProfile("")})
		return
	}

	if prev != nil && prev.ID != next.ID {
		s.Dispatch(ExpensesReplaced{Expenses: nil})
		s.Dispatch(ProfileReplaced{Profile: models.DefaultProfile("")})
	}
	s.Dispatch(IdentityReplaced{Identity: next})
	if prev == nil || prev.ID != next.ID {
		if err := s.LoadUserData(ctx); err != nil {
			logger.Get().Warnw("user data load incomplete", "error", err, "user_id", next.ID)
		}
	}
}
