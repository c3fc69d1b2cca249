// Package gatewaytest provides an in-memory gateway.Gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/gateway"
	"expensetracker/internal/models"
)

// Fake is an in-memory gateway with a single account store. Set the *Err
// fields to make the matching operation fail; Calls counts every operation
// by name.
type Fake struct {
	mu        sync.Mutex
	passwords map[string]string
	users     map[string]*models.Identity
	profiles  map[string]models.Profile
	expenses  []models.Expense
	seq       int

	identity *models.Identity
	nextSub  int
	subs     map[int]gateway.IdentityHandler
	calls    map[string]int

	CurrentErr error
	SignUpErr  error
	SignInErr  error
	SignOutErr error
	FetchErr   error
	CreateErr  error
	UpsertErr  error
	ListErr    error
	InsertErr  error
	DeleteErr  error

	// Now stamps created rows; defaults to time.Now.
	Now func() time.Time
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		passwords: make(map[string]string),
		users:     make(map[string]*models.Identity),
		profiles:  make(map[string]models.Profile),
		subs:      make(map[int]gateway.IdentityHandler),
		calls:     make(map[string]int),
		Now:       time.Now,
	}
}

var _ gateway.Gateway = (*Fake)(nil)

// AddUser registers an account and returns its identity.
func (f *Fake) AddUser(email, password string) *models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(email, password, "")
}

func (f *Fake) addUserLocked(email, password, name string) *models.Identity {
	f.seq++
	identity := &models.Identity{ID: fmt.Sprintf("user-%d", f.seq), Email: email, Name: name, CreatedAt: f.Now()}
	f.users[email] = identity
	f.passwords[email] = password
	return identity
}

// SetIdentity changes the session and notifies subscribers, as an external
// sign-in or sign-out would.
func (f *Fake) SetIdentity(identity *models.Identity) {
	f.mu.Lock()
	f.identity = identity
	handlers := make([]gateway.IdentityHandler, 0, len(f.subs))
	for _, h := range f.subs {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(identity)
	}
}

// SeedProfile stores a profile directly.
func (f *Fake) SeedProfile(p models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.UserID] = p
}

// SeedExpense stores an expense directly, assigning an ID when missing.
func (f *Fake) SeedExpense(e models.Expense) models.Expense {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		f.seq++
		e.ID = fmt.Sprintf("expense-%d", f.seq)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = f.Now()
	}
	f.expenses = append(f.expenses, e)
	return e
}

// Calls returns how often the named operation ran.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of operations that ran.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes the call counters.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *Fake) me() (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.identity == nil {
		return nil, apperrors.ErrNotSignedIn
	}
	return f.identity, nil
}

func (f *Fake) CurrentIdentity(context.Context) (*models.Identity, error) {
	f.record("CurrentIdentity")
	if f.CurrentErr != nil {
		return nil, f.CurrentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity, nil
}

func (f *Fake) SubscribeIdentityChanges(handler gateway.IdentityHandler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = handler
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// Subscribers returns the number of identity subscribers.
func (f *Fake) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Fake) SessionToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.identity == nil {
		return ""
	}
	return "token-" + f.identity.ID
}

func (f *Fake) SignUp(_ context.Context, email, password, name string) error {
	f.record("SignUp")
	if f.SignUpErr != nil {
		return f.SignUpErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	if _, ok := f.users[email]; ok {
		return apperrors.ErrDuplicateEmail
	}
	f.addUserLocked(email, password, name)
	return nil
}

func (f *Fake) SignIn(_ context.Context, email, password string) error {
	f.record("SignIn")
	if f.SignInErr != nil {
		return f.SignInErr
	}
	f.mu.Lock()
	email = strings.ToLower(email)
	identity, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		f.mu.Unlock()
		return apperrors.ErrInvalidCredentials
	}
	f.mu.Unlock()

	f.SetIdentity(identity)
	return nil
}

func (f *Fake) SignOut(context.Context) error {
	f.record("SignOut")
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.SetIdentity(nil)
	return nil
}

func (f *Fake) FetchProfile(_ context.Context, owner string) (*models.Profile, error) {
	f.record("FetchProfile")
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	if _, err := f.me(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[owner]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	return &p, nil
}

func (f *Fake) CreateProfile(_ context.Context, defaults models.Profile) (*models.Profile, error) {
	f.record("CreateProfile")
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	me, err := f.me()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p := defaults
	p.ID = fmt.Sprintf("profile-%d", f.seq)
	p.UserID = me.ID
	p.Version = 1
	f.profiles[me.ID] = p
	return &p, nil
}

func (f *Fake) UpsertProfile(_ context.Context, profile models.Profile) (*models.Profile, error) {
	f.record("UpsertProfile")
	if f.UpsertErr != nil {
		return nil, f.UpsertErr
	}
	me, err := f.me()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.profiles[me.ID]
	if ok && profile.Version != 0 && profile.Version != existing.Version {
		return nil, apperrors.ErrConflict
	}
	p := profile
	p.UserID = me.ID
	p.ID = existing.ID
	p.Version = existing.Version + 1
	f.profiles[me.ID] = p
	return &p, nil
}

func (f *Fake) ListExpenses(_ context.Context, owner string) ([]models.Expense, error) {
	f.record("ListExpenses")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if _, err := f.me(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Expense{}
	for i := len(f.expenses) - 1; i >= 0; i-- {
		if f.expenses[i].UserID == owner {
			out = append(out, f.expenses[i])
		}
	}
	return out, nil
}

func (f *Fake) InsertExpense(_ context.Context, expense models.Expense) (*models.Expense, error) {
	f.record("InsertExpense")
	if f.InsertErr != nil {
		return nil, f.InsertErr
	}
	me, err := f.me()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	e := expense
	e.ID = fmt.Sprintf("expense-%d", f.seq)
	e.UserID = me.ID
	e.CreatedAt = f.Now()
	f.expenses = append(f.expenses, e)
	return &e, nil
}

func (f *Fake) DeleteExpense(_ context.Context, id string) error {
	f.record("DeleteExpense")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	me, err := f.me()
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.expenses {
		if e.ID == id && e.UserID == me.ID {
			f.expenses = append(f.expenses[:i:i], f.expenses[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrExpenseNotFound
}
