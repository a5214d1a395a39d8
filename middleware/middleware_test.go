package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"tastemap/config"
	"tastemap/globals"
)

func TestMain(m *testing.M) {
	globals.JwtSecret = []byte("middleware-test-secret")
	os.Exit(m.Run())
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func claimsFor(role string, ttl time.Duration) *Claims {
	return &Claims{
		Username: "root",
		Role:     []string{role},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestAdminOnly(t *testing.T) {
	var seen string
	h := AdminOnly(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		seen = UsernameFromRequest(r)
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"no bearer prefix", sign(t, jwt.SigningMethodHS256, globals.JwtSecret, claimsFor(RoleAdmin, time.Hour)), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, globals.JwtSecret, claimsFor(RoleAdmin, -time.Hour)), http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), claimsFor(RoleAdmin, time.Hour)), http.StatusUnauthorized},
		{"wrong alg", "Bearer " + sign(t, jwt.SigningMethodHS512, globals.JwtSecret, claimsFor(RoleAdmin, time.Hour)), http.StatusUnauthorized},
		{"not admin", "Bearer " + sign(t, jwt.SigningMethodHS256, globals.JwtSecret, claimsFor("user", time.Hour)), http.StatusForbidden},
		{"admin", "Bearer " + sign(t, jwt.SigningMethodHS256, globals.JwtSecret, claimsFor(RoleAdmin, time.Hour)), http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodDelete, "/api/social", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
	if seen != "root" {
		t.Fatalf("username not propagated, got %q", seen)
	}
}

func TestUnsetSecretRejectsForgedTokens(t *testing.T) {
	saved := globals.JwtSecret
	t.Cleanup(func() { globals.JwtSecret = saved })

	t.Setenv("JWT_SECRET", "")
	globals.JwtSecret = []byte(config.Load().JWTSecret)

	reached := false
	h := AdminOnly(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		reached = true
	})
	for _, key := range []string{"change_me", "secret"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/social", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(key), claimsFor(RoleAdmin, time.Hour)))
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		if rec.Code != http.StatusUnauthorized || reached {
			t.Fatalf("key %q: status=%d reached=%v", key, rec.Code, reached)
		}
	}

	globals.JwtSecret = nil
	if _, err := ValidateJWT("Bearer " + sign(t, jwt.SigningMethodHS256, []byte("x"), claimsFor(RoleAdmin, time.Hour))); err == nil {
		t.Fatal("empty secret must reject every token")
	}
}
