// Package gateway defines the remote data gateway: session lifecycle plus
// owner-scoped CRUD over profiles and expenses. Two implementations exist, one
// over the service's own database and one over a hosted Supabase project.
package gateway

import (
	"context"
	"sync"

	"expensetracker/internal/models"
)

// IdentityHandler is called with the new identity (nil when signed out)
// every time the session changes.
type IdentityHandler func(identity *models.Identity)

// Gateway is one authenticated connection to the remote data store. Every
// profile and expense operation is scoped to the connection's identity; the
// owner of written rows is always forced to it.
type Gateway interface {
	CurrentIdentity(ctx context.Context) (*models.Identity, error)
	SubscribeIdentityChanges(handler IdentityHandler) (unsubscribe func())
	SignUp(ctx context.Context, email, password, name string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error

	// FetchProfile returns errors.ErrProfileNotFound when the owner has no profile.
	FetchProfile(ctx context.Context, owner string) (*models.Profile, error)
	CreateProfile(ctx context.Context, defaults models.Profile) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile models.Profile) (*models.Profile, error)

	// ListExpenses returns the owner's expenses, newest created first.
	ListExpenses(ctx context.Context, owner string) ([]models.Expense, error)
	InsertExpense(ctx context.Context, expense models.Expense) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	// SessionToken returns the opaque token that restores this session, or "".
	SessionToken() string
}

// Connector opens gateway connections, one per client. A non-empty token
// restores the session it was issued for when it is still valid.
type Connector interface {
	Connect(ctx context.Context, token string) Gateway
}

var (
	_ Connector = (*DatabaseBackend)(nil)
	_ Connector = (*SupabaseBackend)(nil)
)

// authState holds a connection's session and broadcasts every change to its
// subscribers. Handlers run synchronously, outside the lock.
type authState struct {
	mu       sync.Mutex
	token    string
	identity *models.Identity
	nextID   int
	handlers map[int]IdentityHandler
}

func (a *authState) current() (string, *models.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token, a.identity
}

// restore sets the session without notifying anyone.
func (a *authState) restore(token string, identity *models.Identity) {
	a.mu.Lock()
	a.token = token
	a.identity = identity
	a.mu.Unlock()
}

func (a *authState) set(token string, identity *models.Identity) {
	a.mu.Lock()
	a.token = token
	a.identity = identity
	handlers := make([]IdentityHandler, 0, len(a.handlers))
	for _, h := range a.handlers {
		handlers = append(handlers, h)
	}
	a.mu.Unlock()

	for _, h := range handlers {
		h(identity)
	}
}

func (a *authState) clear() {
	a.set("", nil)
}

func (a *authState) subscribe(handler IdentityHandler) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.handlers == nil {
		a.handlers = make(map[int]IdentityHandler)
	}
	id := a.nextID
	a.nextID++
	a.handlers[id] = handler

	return func() {
		a.mu.Lock()
		delete(a.handlers, id)
		a.mu.Unlock()
	}
}
