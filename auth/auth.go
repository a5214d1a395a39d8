package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	"tastemap/globals"
	"tastemap/middleware"
	"tastemap/utils"
)

const DefaultTokenTTL = 12 * time.Hour

// ParseAccounts reads "user:bcrypthash,user2:bcrypthash" into a map keyed by the
// lowercased username.
func ParseAccounts(raw string) (map[string]string, error) {
	accounts := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		user, hash, ok := strings.Cut(pair, ":")
		user = strings.ToLower(strings.TrimSpace(user))
		hash = strings.TrimSpace(hash)
		if !ok || user == "" || hash == "" {
			return nil, fmt.Errorf("admin account %q: want user:bcrypthash", pair)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("admin account %q: %w", user, err)
		}
		accounts[user] = hash
	}
	return accounts, nil
}

// Authenticator checks admin credentials and issues signed tokens.
type Authenticator struct {
	Accounts map[string]string
	TTL      time.Duration
	Now      func() time.Time
}

func NewAuthenticator(accounts map[string]string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{Accounts: accounts, TTL: ttl, Now: time.Now}
}

// Login returns a token for valid credentials. Usernames match case-insensitively.
func (a *Authenticator) Login(_ context.Context, username, password string) (string, time.Time, error) {
	user := strings.ToLower(strings.TrimSpace(username))
	hash, ok := a.Accounts[user]
	if !ok || password == "" {
		return "", time.Time{}, utils.Unauthorized("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", time.Time{}, utils.Unauthorized("Invalid username or password")
	}

	now := a.Now()
	expires := now.Add(a.TTL)
	claims := &middleware.Claims{
		Username: user,
		Role:     []string{middleware.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if len(globals.JwtSecret) == 0 {
		return "", time.Time{}, fmt.Errorf("sign token: no signing secret configured")
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}

type Handler struct {
	Auth *Authenticator
}

func NewHandler(a *Authenticator) *Handler {
	return &Handler{Auth: a}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithErr(w, err)
		return
	}

	token, expires, err := h.Auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{
		"token":     token,
		"username":  strings.ToLower(strings.TrimSpace(body.Username)),
		"expiresAt": expires,
	})
}
