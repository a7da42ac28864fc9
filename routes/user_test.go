package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12"
)

func buildAuthApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	os.Setenv("REFRESH_TOKEN_SECRET", "testrefreshsecret")
	if storage.Redis == nil {
		// Token issuance records the refresh token best-effort; no live
		// server is needed for these tests.
		storage.Redis = redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	}

	app := iris.New()
	app.Validator = validator.New()
	api := app.Party("/api")
	{
		api.Post("/register", Register)
		api.Post("/login", Login)
	}
	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func postJSON(t *testing.T, app *iris.Application, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestRegisterCreatesProfile(t *testing.T) {
	db := setupTestDB(t)
	app := buildAuthApp()

	resp := postJSON(t, app, "/api/register", `{
		"email": "new@example.com",
		"password": "secret123",
		"confirmPassword": "secret123",
		"role": "investor",
		"firstName": "Fatou",
		"lastName": "Ndiaye"
	}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: got %d, body %s", resp.Code, resp.Body.String())
	}

	var out struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("register must issue a token pair")
	}

	var user models.User
	if err := db.Where("email = ?", "new@example.com").First(&user).Error; err != nil {
		t.Fatalf("user row missing: %v", err)
	}
	if user.Password == "secret123" {
		t.Fatal("password stored in plaintext")
	}
	var investor models.Investor
	if err := db.Where("user_id = ?", user.ID).First(&investor).Error; err != nil {
		t.Fatalf("investor profile missing: %v", err)
	}
	if investor.FirstName != "Fatou" {
		t.Fatalf("profile first name = %q", investor.FirstName)
	}

	// Same email again
	resp = postJSON(t, app, "/api/register", `{
		"email": "new@example.com",
		"password": "secret123",
		"confirmPassword": "secret123",
		"role": "investor",
		"firstName": "Fatou",
		"lastName": "Ndiaye"
	}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate email: got %d, want 409", resp.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	setupTestDB(t)
	app := buildAuthApp()

	cases := []struct {
		name string
		body string
	}{
		{"password mismatch", `{"email": "a@b.com", "password": "secret123", "confirmPassword": "different1", "role": "investor", "firstName": "A", "lastName": "B"}`},
		{"missing names", `{"email": "a@b.com", "password": "secret123", "confirmPassword": "secret123", "role": "investor"}`},
		{"unknown role", `{"email": "a@b.com", "password": "secret123", "confirmPassword": "secret123", "role": "wizard", "firstName": "A", "lastName": "B"}`},
		{"short password", `{"email": "a@b.com", "password": "short", "confirmPassword": "short", "role": "investor", "firstName": "A", "lastName": "B"}`},
	}
	for _, tc := range cases {
		resp := postJSON(t, app, "/api/register", tc.body)
		if resp.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", tc.name, resp.Code)
		}
	}
}

func TestLogin(t *testing.T) {
	setupTestDB(t)
	app := buildAuthApp()

	resp := postJSON(t, app, "/api/register", `{
		"email": "login@example.com",
		"password": "secret123",
		"confirmPassword": "secret123",
		"role": "entrepreneur",
		"firstName": "Awa",
		"lastName": "Diallo"
	}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: got %d", resp.Code)
	}

	resp = postJSON(t, app, "/api/login", `{"email": "login@example.com", "password": "secret123"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("login: got %d, body %s", resp.Code, resp.Body.String())
	}

	resp = postJSON(t, app, "/api/login", `{"email": "login@example.com", "password": "wrongpass"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: got %d, want 401", resp.Code)
	}

	resp = postJSON(t, app, "/api/login", `{"email": "nobody@example.com", "password": "secret123"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: got %d, want 401", resp.Code)
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	db := setupTestDB(t)
	app := buildAuthApp()

	resp := postJSON(t, app, "/api/register", `{
		"email": "blocked@example.com",
		"password": "secret123",
		"confirmPassword": "secret123",
		"role": "entrepreneur",
		"firstName": "Awa",
		"lastName": "Diallo"
	}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: got %d", resp.Code)
	}
	db.Model(&models.User{}).Where("email = ?", "blocked@example.com").Update("is_blocked", true)

	resp = postJSON(t, app, "/api/login", `{"email": "blocked@example.com", "password": "secret123"}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("blocked login: got %d, want 403", resp.Code)
	}
}
