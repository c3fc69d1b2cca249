package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/testutil"
)

var testTokens = TokenConfig{Secret: "test-secret", Expiry: time.Hour}

func setupBackend(t *testing.T) (*DatabaseBackend, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewDatabaseBackend(db, testTokens), db
}

func signedIn(t *testing.T, b *DatabaseBackend, user *models.User) Gateway {
	t.Helper()
	g := b.Connect(context.Background(), "")
	require.NoError(t, g.SignIn(context.Background(), user.Email, testutil.TestPassword))
	return g
}

func TestDatabaseGateway_SignUpAndSignIn(t *testing.T) {
	b, _ := setupBackend(t)
	ctx := context.Background()
	g := b.Connect(ctx, "")

	identity, err := g.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	require.NoError(t, g.SignUp(ctx, "Alice@Example.com", "supersecret", "Alice Liddell"))
	testutil.AssertAppError(t, g.SignUp(ctx, "alice@example.com", "other-password", "Alice"), "DUPLICATE_EMAIL")

	var seen []*models.Identity
	unsubscribe := g.SubscribeIdentityChanges(func(id *models.Identity) { seen = append(seen, id) })
	defer unsubscribe()

	testutil.AssertAppError(t, g.SignIn(ctx, "alice@example.com", "wrong-password"), "INVALID_CREDENTIALS")
	testutil.AssertAppError(t, g.SignIn(ctx, "nobody@example.com", "supersecret"), "INVALID_CREDENTIALS")
	require.NoError(t, g.SignIn(ctx, "alice@example.com", "supersecret"))

	identity, err = g.CurrentIdentity(ctx)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "Alice Liddell", identity.Name)
	assert.NotEmpty(t, g.SessionToken())

	require.NoError(t, g.SignOut(ctx))
	identity, err = g.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	require.Len(t, seen, 2)
	assert.Equal(t, "alice@example.com", seen[0].Email)
	assert.Nil(t, seen[1])
}

func TestDatabaseGateway_RestoreSession(t *testing.T) {
	b, db := setupBackend(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db)

	token := signedIn(t, b, user).SessionToken()

	t.Run("valid token", func(t *testing.T) {
		g := b.Connect(ctx, token)
		identity, err := g.CurrentIdentity(ctx)
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, user.ID, identity.ID)
	})

	t.Run("garbage token", func(t *testing.T) {
		g := b.Connect(ctx, "not-a-token")
		identity, err := g.CurrentIdentity(ctx)
		require.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("expired token", func(t *testing.T) {
		g := b.Connect(ctx, token)
		b.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { b.now = time.Now }()

		identity, err := g.CurrentIdentity(ctx)
		require.NoError(t, err)
		assert.Nil(t, identity)
		assert.Empty(t, g.SessionToken())
	})
}

func TestDatabaseGateway_RequiresSession(t *testing.T) {
	b, _ := setupBackend(t)
	ctx := context.Background()
	g := b.Connect(ctx, "")

	_, err := g.FetchProfile(ctx, "someone")
	testutil.AssertAppError(t, err, "NOT_SIGNED_IN")
	_, err = g.ListExpenses(ctx, "someone")
	testutil.AssertAppError(t, err, "NOT_SIGNED_IN")
	_, err = g.InsertExpense(ctx, testutil.NewExpense("5", models.CategoryFood, models.NewDate(2026, 1, 1), ""))
	testutil.AssertAppError(t, err, "NOT_SIGNED_IN")
	testutil.AssertAppError(t, g.DeleteExpense(ctx, "x"), "NOT_SIGNED_IN")
}

func TestDatabaseGateway_Profile(t *testing.T) {
	b, db := setupBackend(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db)
	g := signedIn(t, b, user)

	_, err := g.FetchProfile(ctx, user.ID)
	testutil.AssertAppError(t, err, "PROFILE_NOT_FOUND")

	created, err := g.CreateProfile(ctx, models.DefaultProfile("spoofed-owner"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, created.UserID)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, models.DefaultCurrency, created.Currency)

	t.Run("upsert bumps version", func(t *testing.T) {
		update := *created
		update.Name = "Alice"
		update.Budget = decimal.NewFromInt(1000)

		saved, err := g.UpsertProfile(ctx, update)
		require.NoError(t, err)
		assert.Equal(t, "Alice", saved.Name)
		assert.True(t, saved.Budget.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, int64(2), saved.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := *created
		stale.Name = "Stale"
		_, err := g.UpsertProfile(ctx, stale)
		testutil.AssertAppError(t, err, "CONFLICT")

		current, err := g.FetchProfile(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", current.Name)
	})

	t.Run("zero version skips the check", func(t *testing.T) {
		blind := models.Profile{Name: "Blind", Budget: decimal.NewFromInt(5), Currency: "EUR", Theme: models.ThemeDark}
		saved, err := g.UpsertProfile(ctx, blind)
		require.NoError(t, err)
		assert.Equal(t, "Blind", saved.Name)
		assert.Equal(t, models.ThemeDark, saved.Theme)
	})

	t.Run("other owners are invisible", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestProfile(t, db, other.ID, "50")

		_, err := g.FetchProfile(ctx, other.ID)
		testutil.AssertAppError(t, err, "PROFILE_NOT_FOUND")
	})
}

func TestDatabaseGateway_UpsertCreatesMissingProfile(t *testing.T) {
	b, db := setupBackend(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db)
	g := signedIn(t, b, user)

	saved, err := g.UpsertProfile(ctx, models.Profile{Name: "New", Budget: decimal.NewFromInt(10), Currency: "GBP", Theme: models.ThemeLight})
	require.NoError(t, err)
	assert.Equal(t, user.ID, saved.UserID)
	assert.Equal(t, int64(1), saved.Version)
}

func TestDatabaseGateway_Expenses(t *testing.T) {
	b, db := setupBackend(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	foreign := testutil.CreateTestExpense(t, db, other.ID, "99", models.CategoryOthers, models.NewDate(2026, 2, 1))
	g := signedIn(t, b, user)

	first, err := g.InsertExpense(ctx, testutil.NewExpense("12.50", models.CategoryFood, models.NewDate(2026, 2, 3), "Lunch"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, user.ID, first.UserID)

	spoofed := testutil.NewExpense("3", models.CategoryTransport, models.NewDate(2026, 2, 4), "")
	spoofed.UserID = other.ID
	second, err := g.InsertExpense(ctx, spoofed)
	require.NoError(t, err)
	assert.Equal(t, user.ID, second.UserID, "owner should be forced to the session user")

	list, err := g.ListExpenses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest created first")
	assert.Equal(t, "2026-02-03", list[1].Date.String())
	assert.True(t, list[1].Amount.Equal(decimal.RequireFromString("12.5")))

	foreignList, err := g.ListExpenses(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, foreignList)

	testutil.AssertAppError(t, g.DeleteExpense(ctx, foreign.ID), "EXPENSE_NOT_FOUND")
	require.NoError(t, g.DeleteExpense(ctx, first.ID))
	testutil.AssertAppError(t, g.DeleteExpense(ctx, first.ID), "EXPENSE_NOT_FOUND")

	list, err = g.ListExpenses(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDatabaseBackend_CreateUser(t *testing.T) {
	b, _ := setupBackend(t)
	ctx := context.Background()

	_, err := b.CreateUser(ctx, "", "x", "")
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	user, err := b.CreateUser(ctx, " Bob@Example.com ", "password", " Bob Builder ")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.Equal(t, "Bob Builder", user.FullName)
	assert.Equal(t, "Bob Builder", user.Identity().Name)
	assert.NotEqual(t, "password", user.Password)

	_, err = b.CreateUser(ctx, "bob@example.com", "password", "")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestAuthState_ConcurrentSubscribers(t *testing.T) {
	var a authState
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsubscribe := a.subscribe(func(*models.Identity) {
				mu.Lock()
				calls++
				mu.Unlock()
			})
			_ = unsubscribe
		}()
	}
	wg.Wait()

	a.set("t", &models.Identity{ID: "u"})
	assert.Equal(t, 10, calls)

	a.restore("", nil)
	assert.Equal(t, 10, calls, "restore must not notify")
}
