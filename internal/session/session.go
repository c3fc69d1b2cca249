// Package session tracks who is signed in on one client connection. It
// mirrors the gateway's identity through a long-lived subscription and
// reports the outcome of every sign-up, sign-in and sign-out as a
// notification.
package session

import (
	"context"
	"errors"
	"sync"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/gateway"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
	"expensetracker/internal/notify"
)

const (
	msgSignedUp   = "Account created successfully! Please check your email for verification."
	msgSignedIn   = "Signed in successfully!"
	msgSignedOut  = "Signed out successfully!"
	msgUnexpected = "An unexpected error occurred"
)

// State is a point-in-time view of the session.
type State struct {
	Identity *models.Identity `json:"user"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
}

// Listener observes identity transitions. prev and next are never the same
// identity.
type Listener func(prev, next *models.Identity)

// Session is the session state of one client.
type Session struct {
	gw       gateway.Gateway
	notifier notify.Notifier

	mu        sync.Mutex
	identity  *models.Identity
	lastError string
	inFlight  int
	restoring bool
	nextID    int
	listeners map[int]Listener

	unsubscribe func()
}

// New creates a session bound to gw. It subscribes to the gateway's identity
// changes immediately and reports itself as loading until Start completes.
func New(gw gateway.Gateway, notifier notify.Notifier) *Session {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	s := &Session{
		gw:        gw,
		notifier:  notifier,
		restoring: true,
		listeners: make(map[int]Listener),
	}
	s.unsubscribe = gw.SubscribeIdentityChanges(s.setIdentity)
	return s
}

// Start restores a persisted session, if any. Failures are logged and leave
// the session signed out.
func (s *Session) Start(ctx context.Context) {
	identity, err := s.gw.CurrentIdentity(ctx)
	if err != nil {
		logger.Get().Warnw("failed to restore session", "error", err)
		identity = nil
	}
	s.setIdentity(identity)

	s.mu.Lock()
	s.restoring = false
	s.mu.Unlock()
}

// Close detaches the session from the gateway.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Identity: s.identity,
		Loading:  s.restoring || s.inFlight > 0,
		Error:    s.lastError,
	}
}

// Identity returns the signed-in identity, or nil.
func (s *Session) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Subscribe registers a listener for identity transitions and returns a
// function that removes it.
func (s *Session) Subscribe(l Listener) func() {
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

// SignUp requests a new account. The session stays signed out on success;
// the account may need verifying before it can sign in. name becomes the
// profile name on the first load.
func (s *Session) SignUp(ctx context.Context, email, password, name string) error {
	return s.attempt(ctx, msgSignedUp, func(ctx context.Context) error {
		return s.gw.SignUp(ctx, email, password, name)
	})
}

// SignIn requests a new session. The identity arrives through the gateway's
// change notification.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	return s.attempt(ctx, msgSignedIn, func(ctx context.Context) error {
		return s.gw.SignIn(ctx, email, password)
	})
}

// SignOut ends the session.
func (s *Session) SignOut(ctx context.Context) error {
	return s.attempt(ctx, msgSignedOut, s.gw.SignOut)
}

// attempt runs one auth request with the shared loading and error handling.
func (s *Session) attempt(ctx context.Context, success string, call func(context.Context) error) error {
	s.mu.Lock()
	s.lastError = ""
	s.inFlight++
	s.mu.Unlock()

	err := call(ctx)

	s.mu.Lock()
	s.inFlight--
	if err != nil {
		s.lastError = reason(err)
	}
	s.mu.Unlock()

	if err != nil {
		logger.Get().Infow("auth request failed", "error", err)
		s.notifier.Notify(ctx, notify.Error(reason(err)))
		return err
	}
	s.notifier.Notify(ctx, notify.Success(success))
	return nil
}

// reason returns the message to show for err.
func reason(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return msgUnexpected
}

// setIdentity is the gateway subscription handler.
func (s *Session) setIdentity(next *models.Identity) {
	s.mu.Lock()
	prev := s.identity
	if models.SameIdentity(prev, next) {
		s.identity = next
		s.mu.Unlock()
		return
	}
	s.identity = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(prev, next)
	}
}
