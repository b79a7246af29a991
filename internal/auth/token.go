// internal/auth/token.go
//
// JWT + cookie handling.
//   - Tokens are HS256 with id/username claims and a configurable expiry.
//   - The token travels either as "Authorization: Bearer <token>" or in a cookie.
//   - Secure/SameSite=None cookies are used in production, Lax otherwise.

package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config drives token signing and cookie attributes.
type Config struct {
	Secret      string
	ExpiresDays int
	CookieName  string
	Production  bool
}

// Claims is what a valid token carries.
type Claims struct {
	ID       string
	Username string
}

// Sign creates a token for the user and returns it with its expiry.
func (c Config) Sign(id, username string) (string, time.Time, error) {
	days := c.ExpiresDays
	if days <= 0 {
		days = 14
	}
	now := time.Now()
	exp := now.Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString([]byte(c.Secret))
	return ss, exp, err
}

// Parse verifies a token and extracts its claims.
func (c Config) Parse(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(c.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return Claims{}, errors.New("invalid token")
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return Claims{}, errors.New("invalid token")
	}
	return Claims{ID: id, Username: username}, nil
}

// SetCookie writes the auth token cookie.
func (c Config) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, c.cookie(token, func(ck *http.Cookie) { ck.Expires = exp }))
}

// ClearCookie deletes the auth token cookie.
func (c Config) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", func(ck *http.Cookie) { ck.MaxAge = -1 }))
}

func (c Config) cookie(value string, opt func(*http.Cookie)) *http.Cookie {
	ck := &http.Cookie{
		Name:     c.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Production,
		SameSite: c.sameSite(),
	}
	opt(ck)
	return ck
}

func (c Config) sameSite() http.SameSite {
	if c.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// TokenFromRequest extracts a bearer token from the Authorization header or the auth cookie.
func (c Config) TokenFromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if ck, err := r.Cookie(c.CookieName); err == nil {
		return ck.Value
	}
	return ""
}
