package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"expensetracker/internal/database"
	"expensetracker/internal/gateway"
	"expensetracker/internal/handlers"
	"expensetracker/internal/logger"
	"expensetracker/internal/middleware"
	"expensetracker/internal/uuid"
	"expensetracker/internal/validator"
	"expensetracker/internal/workspace"
)

const testPassword = "password123"

// testApp holds the full application stack for integration tests.
type testApp struct {
	backend  *gateway.DatabaseBackend
	tokens   *workspace.MemoryTokenStore
	registry *workspace.Registry
	Router   *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates the application stack over a fresh SQLite file, migrated
// the way the server does it on start.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	dbManager, err := database.NewManager(&database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "expenses.db"),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = dbManager.Close() })
	if err := dbManager.RunMigrations(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	app := &testApp{
		backend: gateway.NewDatabaseBackend(dbManager.DB(), gateway.TokenConfig{Secret: "integration-secret", Expiry: time.Hour}),
		tokens:  workspace.NewMemoryTokenStore(),
	}
	app.restart(t)
	return app
}

// restart drops every workspace, as a server restart would, keeping the
// database and the stored session tokens.
func (app *testApp) restart(t *testing.T) {
	t.Helper()
	if app.registry != nil {
		app.registry.Close()
	}
	app.registry = workspace.NewRegistry(app.backend, app.tokens, workspace.Options{Size: 16, TTL: time.Hour})
	t.Cleanup(app.registry.Close)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(nil))
	handlers.RegisterRoutes(router.Group("/api/v1"), app.registry, handlers.NewHandlers(nil))
	app.Router = router
}

// client is one browser or device talking to the app.
type client struct {
	app   *testApp
	ID    string
	Token string
}

func (app *testApp) newClient() *client {
	return &client{app: app, ID: uuid.NewClientID()}
}

// request makes an HTTP request as the client and returns the recorder.
func (c *client) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ClientIDHeader, c.ID)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	rec := httptest.NewRecorder()
	c.app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// signUp registers an account through the API.
func (c *client) signUp(t *testing.T, email string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Test User","email":%q,"password":%q}`, email, testPassword)
	expectStatus(t, c.request(http.MethodPost, "/api/v1/auth/signup", body), http.StatusCreated)
}

// signIn signs the client in and keeps the returned session token.
func (c *client) signIn(t *testing.T, email string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, testPassword)
	rec := c.request(http.MethodPost, "/api/v1/auth/signin", body)
	expectStatus(t, rec, http.StatusOK)
	token, _ := parseJSON(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("expected a session token from sign-in")
	}
	c.Token = token
}

// completeProfile saves a name and budget.
func (c *client) completeProfile(t *testing.T, name, budget string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"budget":%q}`, name, budget)
	expectStatus(t, c.request(http.MethodPut, "/api/v1/profile", body), http.StatusOK)
}

// addExpense records an expense dated today and returns its ID.
func (c *client) addExpense(t *testing.T, amount, category string) string {
	t.Helper()
	body := fmt.Sprintf(`{"amount":%q,"category":%q,"description":"integration"}`, amount, category)
	rec := c.request(http.MethodPost, "/api/v1/expenses", body)
	expectStatus(t, rec, http.StatusCreated)
	expense := parseJSON(t, rec)["expense"].(map[string]interface{})
	return expense["id"].(string)
}

// notifications drains the client's notification queue.
func (c *client) notifications(t *testing.T) []string {
	t.Helper()
	rec := c.request(http.MethodGet, "/api/v1/notifications", "")
	expectStatus(t, rec, http.StatusOK)
	var messages []string
	for _, n := range parseJSON(t, rec)["notifications"].([]interface{}) {
		messages = append(messages, n.(map[string]interface{})["message"].(string))
	}
	return messages
}
