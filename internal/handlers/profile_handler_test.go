package handlers

import (
	"net/http"
	"testing"
)

func TestProfileHandler_Update(t *testing.T) {
	t.Run("saves and completes the profile", func(t *testing.T) {
		app := setupApp(t)
		app.signIn(t, "")

		result := parseJSON(t, app.request(http.MethodGet, "/api/v1/profile", ""))
		if result["complete"] != false {
			t.Fatal("a fresh profile starts incomplete")
		}

		rec := app.request(http.MethodPut, "/api/v1/profile", `{"name":"  Ada  ","budget":"1500","currency":"EUR"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result = parseJSON(t, rec)
		profile := result["profile"].(map[string]interface{})
		if profile["name"] != "Ada" || profile["currency"] != "EUR" {
			t.Errorf("unexpected profile: %v", profile)
		}
		if result["complete"] != true {
			t.Error("expected the profile to be complete")
		}
	})

	t.Run("validates the form", func(t *testing.T) {
		app := setupApp(t)
		app.signIn(t, "1000")

		tests := []struct {
			name  string
			body  string
			field string
		}{
			{name: "blank_name", body: `{"name":"   ","budget":100}`, field: "name"},
			{name: "missing_budget", body: `{"name":"Ada"}`, field: "budget"},
			{name: "negative_budget", body: `{"name":"Ada","budget":-1}`, field: "budget"},
			{name: "unknown_currency", body: `{"name":"Ada","budget":100,"currency":"XYZ"}`, field: "currency"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := app.request(http.MethodPut, "/api/v1/profile", tt.body)
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
				}
				assertFieldError(t, parseJSON(t, rec), tt.field)
			})
		}
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		app := setupApp(t)
		app.signIn(t, "1000")

		rec := app.request(http.MethodPut, "/api/v1/profile", `{"name":"Ada","budget":100,"version":1}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = app.request(http.MethodPut, "/api/v1/profile", `{"name":"Bob","budget":100,"version":1}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "CONFLICT")

		if name := app.workspace(t).Store.State().Profile.Name; name != "Ada" {
			t.Errorf("a rejected save must leave the profile alone, got %q", name)
		}
	})
}

func TestProfileHandler_ToggleTheme(t *testing.T) {
	app := setupApp(t)
	app.signIn(t, "1000")

	rec := app.request(http.MethodPost, "/api/v1/profile/theme", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if theme := parseJSON(t, rec)["theme"]; theme != "dark" {
		t.Errorf("expected dark, got %v", theme)
	}

	rec = app.request(http.MethodPost, "/api/v1/profile/theme", "")
	if theme := parseJSON(t, rec)["theme"]; theme != "light" {
		t.Errorf("expected light, got %v", theme)
	}
}

func TestProfileHandler_SetCurrency(t *testing.T) {
	app := setupApp(t)
	app.signIn(t, "1000")

	rec := app.request(http.MethodPut, "/api/v1/profile/currency", `{"currency":"BDT"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	profile := parseJSON(t, rec)["profile"].(map[string]interface{})
	if profile["currency"] != "BDT" {
		t.Errorf("expected BDT, got %v", profile["currency"])
	}

	rec = app.request(http.MethodPut, "/api/v1/profile/currency", `{"currency":"DOGE"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	assertFieldError(t, parseJSON(t, rec), "currency")
}

func TestProfileHandler_Currencies(t *testing.T) {
	app := setupApp(t)
	rec := app.request(http.MethodGet, "/api/v1/currencies", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	currencies := parseJSON(t, rec)["currencies"].([]interface{})
	if len(currencies) != 9 {
		t.Errorf("expected 9 currencies, got %d", len(currencies))
	}
}
