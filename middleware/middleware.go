package middleware

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"tastemap/globals"
	"tastemap/utils"
)

const RoleAdmin = "admin"

// JWT claims
type Claims struct {
	Username string   `json:"username"`
	Role     []string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate requires a valid bearer token and stores its username and roles in the
// request context.
func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := ValidateJWT(r.Header.Get("Authorization"))
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or missing token")
			return
		}

		ctx := context.WithValue(r.Context(), globals.UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
		next(w, r.WithContext(ctx), ps)
	}
}

// AdminOnly is Authenticate plus a check for the admin role.
func AdminOnly(next httprouter.Handle) httprouter.Handle {
	return Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roles, _ := r.Context().Value(globals.RoleKey).([]string)
		if !slices.Contains(roles, RoleAdmin) {
			utils.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, ps)
	})
}

// ValidateJWT parses an "Authorization: Bearer <token>" header value.
func ValidateJWT(header string) (*Claims, error) {
	if len(globals.JwtSecret) == 0 {
		return nil, fmt.Errorf("no signing secret configured")
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil, fmt.Errorf("invalid token format")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("unauthorized: invalid token")
	}
	return claims, nil
}

// UsernameFromRequest returns the authenticated username, or "" outside Authenticate.
func UsernameFromRequest(r *http.Request) string {
	username, _ := r.Context().Value(globals.UsernameKey).(string)
	return username
}
