package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tastemap/globals"
	"tastemap/middleware"
	"tastemap/utils"
)

func TestMain(m *testing.M) {
	globals.JwtSecret = []byte("auth-test-secret")
	os.Exit(m.Run())
}

func testAccounts(t *testing.T) map[string]string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	accounts, err := ParseAccounts("Admin:" + string(hash) + ", ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return accounts
}

func TestParseAccountsRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"admin", "admin:notahash", ":$2a$04$abc"} {
		if _, err := ParseAccounts(raw); err == nil {
			t.Fatalf("%q should be rejected", raw)
		}
	}
	if accounts, err := ParseAccounts(""); err != nil || len(accounts) != 0 {
		t.Fatalf("empty list: %v %v", accounts, err)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	a := NewAuthenticator(testAccounts(t), time.Hour)

	token, expires, err := a.Login(context.Background(), "ADMIN", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if time.Until(expires) < 59*time.Minute {
		t.Fatalf("unexpected expiry %v", expires)
	}
	claims, err := middleware.ValidateJWT("Bearer " + token)
	if err != nil || claims.Username != "admin" || claims.Role[0] != middleware.RoleAdmin {
		t.Fatalf("validate: %+v %v", claims, err)
	}

	for _, pw := range []string{"wrong", ""} {
		if _, _, err := a.Login(context.Background(), "admin", pw); utils.StatusOf(err) != http.StatusUnauthorized {
			t.Fatalf("password %q: expected 401, got %v", pw, err)
		}
	}
	if _, _, err := a.Login(context.Background(), "mallory", "s3cret"); utils.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %v", err)
	}
}

func TestLoginHandler(t *testing.T) {
	h := NewHandler(NewAuthenticator(testAccounts(t), 0))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`)), nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"token"`) {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`)), nil)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid username or password") {
		t.Fatalf("bad login: %d %s", rec.Code, rec.Body)
	}
}
