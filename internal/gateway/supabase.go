package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
)

// SupabaseGateway talks to a hosted Supabase project: GoTrue for sessions and
// PostgREST for the profiles and expenses tables. Row-level security on the
// project scopes every query to the bearer token's user.
//
// The hosted schema has no version column, so profile writes there are
// last-writer-wins.
type SupabaseGateway struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	auth       authState
}

// NewSupabaseGateway creates a gateway for the project at baseURL. A non-empty
// token is kept as the session and verified on the first CurrentIdentity call.
func NewSupabaseGateway(baseURL, anonKey string, httpClient *http.Client, token string) *SupabaseGateway {
	g := &SupabaseGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: httpClient,
	}
	if token != "" {
		g.auth.restore(token, nil)
	}
	return g
}

// SupabaseBackend hands out per-client connections to one Supabase project.
type SupabaseBackend struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewSupabaseBackend creates a backend for the project at baseURL.
func NewSupabaseBackend(baseURL, anonKey string, httpClient *http.Client) *SupabaseBackend {
	return &SupabaseBackend{baseURL: baseURL, anonKey: anonKey, httpClient: httpClient}
}

// Connect opens a gateway connection restored from token.
func (b *SupabaseBackend) Connect(_ context.Context, token string) Gateway {
	return NewSupabaseGateway(b.baseURL, b.anonKey, b.httpClient, token)
}

// supabaseError covers the error bodies of both GoTrue and PostgREST.
type supabaseError struct {
	status           int
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	Err              string `json:"error"`
}

func (e *supabaseError) Error() string {
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.Err} {
		if m != "" {
			return m
		}
	}
	return fmt.Sprintf("unexpected status %d", e.status)
}

func (e *supabaseError) code() string {
	if s, ok := e.Code.(string); ok {
		return s
	}
	return e.ErrorCode
}

type supabaseUser struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	CreatedAt    time.Time        `json:"created_at"`
	UserMetadata supabaseMetadata `json:"user_metadata"`
}

// supabaseMetadata is the free-form data attached at sign-up.
type supabaseMetadata struct {
	FullName string `json:"full_name"`
}

func (u supabaseUser) identity() *models.Identity {
	return &models.Identity{ID: u.ID, Email: u.Email, Name: u.UserMetadata.FullName, CreatedAt: u.CreatedAt}
}

type supabaseSession struct {
	AccessToken string       `json:"access_token"`
	User        supabaseUser `json:"user"`
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header map[string]string
}

// do performs a request and decodes a 2xx JSON body into out (when non-nil).
// Non-2xx responses are returned as *supabaseError.
func (g *SupabaseGateway) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := g.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", g.anonKey)
	bearer := g.anonKey
	if token, _ := g.auth.current(); token != "" {
		bearer = token
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &supabaseError{status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", r.path, err)
	}
	return nil
}

// gatewayError turns a transport or API failure into an AppError carrying the
// remote message.
func gatewayError(err error) error {
	if apiErr, ok := err.(*supabaseError); ok {
		return apperrors.Wrap(apperrors.WithMessage(apperrors.ErrGateway, apiErr.Error()), err)
	}
	return apperrors.Wrap(apperrors.ErrGateway, err)
}

func (g *SupabaseGateway) CurrentIdentity(ctx context.Context) (*models.Identity, error) {
	token, identity := g.auth.current()
	if token == "" {
		return nil, nil
	}
	if identity != nil {
		return identity, nil
	}

	var user supabaseUser
	err := g.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user"}, &user)
	if apiErr, ok := err.(*supabaseError); ok && (apiErr.status == http.StatusUnauthorized || apiErr.status == http.StatusForbidden) {
		g.auth.clear()
		return nil, nil
	}
	if err != nil {
		return nil, gatewayError(err)
	}

	identity = user.identity()
	g.auth.restore(token, identity)
	return identity, nil
}

func (g *SupabaseGateway) SubscribeIdentityChanges(handler IdentityHandler) func() {
	return g.auth.subscribe(handler)
}

func (g *SupabaseGateway) SessionToken() string {
	token, _ := g.auth.current()
	return token
}

func (g *SupabaseGateway) SignUp(ctx context.Context, email, password, name string) error {
	err := g.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body: map[string]any{
			"email":    email,
			"password": password,
			"data":     supabaseMetadata{FullName: name},
		},
	}, nil)
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*supabaseError); ok {
		if apiErr.code() == "user_already_exists" || strings.Contains(strings.ToLower(apiErr.Error()), "already registered") {
			return apperrors.Wrap(apperrors.ErrDuplicateEmail, err)
		}
	}
	return gatewayError(err)
}

func (g *SupabaseGateway) SignIn(ctx context.Context, email, password string) error {
	var session supabaseSession
	err := g.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &session)
	if err != nil {
		if apiErr, ok := err.(*supabaseError); ok && apiErr.status == http.StatusBadRequest {
			return apperrors.Wrap(apperrors.WithMessage(apperrors.ErrInvalidCredentials, apiErr.Error()), err)
		}
		return gatewayError(err)
	}

	g.auth.set(session.AccessToken, session.User.identity())
	return nil
}

func (g *SupabaseGateway) SignOut(ctx context.Context) error {
	if token, _ := g.auth.current(); token == "" {
		return nil
	}
	if err := g.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout"}, nil); err != nil {
		return gatewayError(err)
	}
	g.auth.clear()
	return nil
}

// profileRow is the hosted profiles table shape.
type profileRow struct {
	ID        string          `json:"id,omitempty"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Budget    decimal.Decimal `json:"budget"`
	Currency  string          `json:"currency"`
	Theme     models.Theme    `json:"theme"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func newProfileRow(p models.Profile, owner string) profileRow {
	return profileRow{UserID: owner, Name: p.Name, Budget: p.Budget, Currency: p.Currency, Theme: p.Theme}
}

func (r profileRow) profile() *models.Profile {
	p := &models.Profile{
		ID:       r.ID,
		UserID:   r.UserID,
		Name:     r.Name,
		Budget:   r.Budget,
		Currency: r.Currency,
		Theme:    r.Theme,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		p.UpdatedAt = *r.UpdatedAt
	}
	return p
}

// expenseRow is the hosted expenses table shape.
type expenseRow struct {
	ID          string          `json:"id,omitempty"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    models.Category `json:"category"`
	Date        models.Date     `json:"date"`
	Description string          `json:"description"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

func (r expenseRow) expense() models.Expense {
	e := models.Expense{
		UserID:      r.UserID,
		Amount:      r.Amount,
		Category:    r.Category,
		Date:        r.Date,
		Description: r.Description,
	}
	e.ID = r.ID
	if r.CreatedAt != nil {
		e.CreatedAt = *r.CreatedAt
	}
	return e
}

func (g *SupabaseGateway) owner() (string, error) {
	token, identity := g.auth.current()
	if token == "" || identity == nil {
		return "", apperrors.ErrNotSignedIn
	}
	return identity.ID, nil
}

var singleObject = map[string]string{"Accept": "application/vnd.pgrst.object+json"}

func (g *SupabaseGateway) FetchProfile(ctx context.Context, owner string) (*models.Profile, error) {
	if _, err := g.owner(); err != nil {
		return nil, err
	}

	var row profileRow
	err := g.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/profiles",
		query:  url.Values{"user_id": {"eq." + owner}, "select": {"*"}},
		header: singleObject,
	}, &row)
	if apiErr, ok := err.(*supabaseError); ok && (apiErr.code() == "PGRST116" || apiErr.status == http.StatusNotAcceptable) {
		return nil, apperrors.ErrProfileNotFound
	}
	if err != nil {
		return nil, gatewayError(err)
	}
	return row.profile(), nil
}

func (g *SupabaseGateway) CreateProfile(ctx context.Context, defaults models.Profile) (*models.Profile, error) {
	owner, err := g.owner()
	if err != nil {
		return nil, err
	}

	var row profileRow
	err = g.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/profiles",
		body:   newProfileRow(defaults, owner),
		header: map[string]string{"Accept": singleObject["Accept"], "Prefer": "return=representation"},
	}, &row)
	if err != nil {
		return nil, gatewayError(err)
	}
	return row.profile(), nil
}

func (g *SupabaseGateway) UpsertProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	owner, err := g.owner()
	if err != nil {
		return nil, err
	}

	var row profileRow
	err = g.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/profiles",
		query:  url.Values{"on_conflict": {"user_id"}},
		body:   newProfileRow(profile, owner),
		header: map[string]string{
			"Accept": singleObject["Accept"],
			"Prefer": "resolution=merge-duplicates,return=representation",
		},
	}, &row)
	if err != nil {
		return nil, gatewayError(err)
	}
	return row.profile(), nil
}

func (g *SupabaseGateway) ListExpenses(ctx context.Context, owner string) ([]models.Expense, error) {
	if _, err := g.owner(); err != nil {
		return nil, err
	}

	var rows []expenseRow
	err := g.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/expenses",
		query:  url.Values{"user_id": {"eq." + owner}, "select": {"*"}, "order": {"created_at.desc"}},
	}, &rows)
	if err != nil {
		return nil, gatewayError(err)
	}

	expenses := make([]models.Expense, 0, len(rows))
	for _, r := range rows {
		expenses = append(expenses, r.expense())
	}
	return expenses, nil
}

func (g *SupabaseGateway) InsertExpense(ctx context.Context, expense models.Expense) (*models.Expense, error) {
	owner, err := g.owner()
	if err != nil {
		return nil, err
	}

	var row expenseRow
	err = g.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/expenses",
		body: expenseRow{
			UserID:      owner,
			Amount:      expense.Amount,
			Category:    expense.Category,
			Date:        expense.Date,
			Description: expense.Description,
		},
		header: map[string]string{"Accept": singleObject["Accept"], "Prefer": "return=representation"},
	}, &row)
	if err != nil {
		return nil, gatewayError(err)
	}
	e := row.expense()
	return &e, nil
}

func (g *SupabaseGateway) DeleteExpense(ctx context.Context, id string) error {
	if _, err := g.owner(); err != nil {
		return err
	}

	// PostgREST reports success when no row matches; only its own errors are
	// surfaced.
	err := g.do(ctx, request{
		method: http.MethodDelete,
		path:   "/rest/v1/expenses",
		query:  url.Values{"id": {"eq." + id}},
		header: map[string]string{"Prefer": "return=minimal"},
	}, nil)
	if err != nil {
		return gatewayError(err)
	}
	return nil
}
