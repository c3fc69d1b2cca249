// Package workspace keeps one set of client state per browser: its gateway
// connection, session, application store and notification queue. Workspaces
// live in an LRU cache keyed by client ID and are closed when evicted.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"expensetracker/internal/gateway"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
	"expensetracker/internal/notify"
	"expensetracker/internal/session"
	"expensetracker/internal/store"
)

// Workspace is the state of one client.
type Workspace struct {
	ID            string
	Gateway       gateway.Gateway
	Session       *session.Session
	Store         *store.Store
	Notifications *notify.Queue
	Alerts        *store.AlertWatcher

	mu     sync.RWMutex
	theme  models.Theme
	unsubs []func()
}

// Theme returns the theme last applied from the profile.
func (w *Workspace) Theme() models.Theme {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.theme
}

func (w *Workspace) applyTheme(theme models.Theme) {
	w.mu.Lock()
	w.theme = theme
	w.mu.Unlock()
}

// Close detaches every subscription of the workspace.
func (w *Workspace) Close() {
	w.mu.Lock()
	unsubs := w.unsubs
	w.unsubs = nil
	w.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	w.Session.Close()
}

// Options configures a Registry.
type Options struct {
	Size               int
	TTL                time.Duration
	NotificationBuffer int
	AlertPolicy        store.AlertPolicy
	// Events receives every notification in addition to the client's queue,
	// e.g. an event publisher. May be nil.
	Events notify.Notifier
	Clock  func() time.Time
}

// Registry creates and caches workspaces.
type Registry struct {
	connector gateway.Connector
	tokens    TokenStore
	opts      Options

	// mu covers cache lookups only; opening a workspace happens outside it,
	// once per client ID through flight.
	mu     sync.Mutex
	cache  *expirable.LRU[string, *Workspace]
	flight singleflight.Group
}

// NewRegistry creates a registry. Workspaces idle for longer than opts.TTL
// are evicted; so is the least recently used one when opts.Size is exceeded.
func NewRegistry(connector gateway.Connector, tokens TokenStore, opts Options) *Registry {
	if opts.Size <= 0 {
		opts.Size = 1000
	}
	if opts.NotificationBuffer <= 0 {
		opts.NotificationBuffer = 50
	}
	if opts.AlertPolicy == "" {
		opts.AlertPolicy = store.AlertOnEdge
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}

	r := &Registry{connector: connector, tokens: tokens, opts: opts}
	r.cache = expirable.NewLRU[string, *Workspace](opts.Size, func(id string, w *Workspace) {
		logger.Get().Debugw("closing workspace", "client_id", id)
		w.Close()
	}, opts.TTL)
	return r
}

// Get returns the workspace of clientID, creating it when needed. A new
// workspace restores the client's stored session before it is returned.
func (r *Registry) Get(ctx context.Context, clientID string) *Workspace {
	return r.Resume(ctx, clientID, "")
}

// Resume is Get for a client that presented a session token. The token is
// only used when the workspace has to be created; it takes precedence over
// the stored one.
func (r *Registry) Resume(ctx context.Context, clientID, token string) *Workspace {
	if w, ok := r.lookup(clientID); ok {
		return w
	}

	v, _, _ := r.flight.Do(clientID, func() (any, error) {
		if w, ok := r.lookup(clientID); ok {
			return w, nil
		}
		// The workspace outlives the request that opened it.
		w := r.open(context.WithoutCancel(ctx), clientID, token)
		r.mu.Lock()
		r.cache.Add(clientID, w)
		r.mu.Unlock()
		return w, nil
	})
	return v.(*Workspace)
}

func (r *Registry) lookup(clientID string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.cache.Get(clientID)
	if ok {
		// Re-adding renews the idle expiry.
		r.cache.Add(clientID, w)
	}
	return w, ok
}

// Len returns the number of cached workspaces.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Remove closes and forgets the workspace of clientID.
func (r *Registry) Remove(clientID string) {
	r.cache.Remove(clientID)
}

// Close closes every workspace.
func (r *Registry) Close() {
	r.cache.Purge()
}

func (r *Registry) open(ctx context.Context, clientID, token string) *Workspace {
	log := logger.Get().With("client_id", clientID)

	if token == "" {
		stored, err := r.tokens.Get(ctx, clientID)
		if err != nil {
			log.Warnw("failed to read stored session", "error", err)
		}
		token = stored
	}

	gw := r.connector.Connect(ctx, token)
	queue := notify.NewQueue(r.opts.NotificationBuffer)
	notifier := notify.Multi{queue, notify.NewLogSink(log), r.opts.Events}

	w := &Workspace{
		ID:            clientID,
		Gateway:       gw,
		Session:       session.New(gw, notifier),
		Store:         store.New(gw, notifier, store.WithClock(r.opts.Clock)),
		Notifications: queue,
		Alerts:        store.NewAlertWatcher(notifier, r.opts.AlertPolicy, r.opts.Clock),
		theme:         models.ThemeLight,
	}

	w.unsubs = append(w.unsubs,
		w.Store.Subscribe(w.Alerts.Observe),
		w.Store.Subscribe(store.ThemeApplier(w.applyTheme)),
		w.Session.Subscribe(func(prev, next *models.Identity) {
			// Runs inside whichever gateway call changed the session, so it
			// cannot borrow that request's context.
			ctx := context.Background()
			r.persistToken(ctx, w, next)
			w.Store.HandleIdentity(ctx, prev, next)
		}),
	)

	w.Session.Start(ctx)
	return w
}

func (r *Registry) persistToken(ctx context.Context, w *Workspace, identity *models.Identity) {
	var err error
	if token := w.Gateway.SessionToken(); identity != nil && token != "" {
		err = r.tokens.Set(ctx, w.ID, token)
	} else {
		err = r.tokens.Delete(ctx, w.ID)
	}
	if err != nil {
		logger.Get().Warnw("failed to persist session token", "error", err, "client_id", w.ID)
	}
}
