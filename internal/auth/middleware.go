package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/robalobadob/evilhangman/internal/ids"
)

type ctxUserKey struct{}

// FromContext returns the signed-in user placed by Optional or Require, or nil.
func FromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxUserKey{}).(*Claims)
	return c
}

// Optional decorates requests with the user when a valid token is present.
// It never 401s; used for routes where guests are allowed.
func Optional(cfg Config, users *Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := cfg.TokenFromRequest(r); tok != "" {
				if c, err := cfg.Parse(tok); err == nil {
					if _, err := users.ByID(r.Context(), c.ID); err == nil {
						r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, &c))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a valid token for a user that still exists.
func Require(cfg Config, users *Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := cfg.TokenFromRequest(r)
			if tok == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			c, err := cfg.Parse(tok)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			if _, err := users.ByID(r.Context(), c.ID); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, &c)))
		})
	}
}

const anonCookieName = "hangman_anon"

// AnonCookie returns the guest identifier sent with r, or "" when there is none.
// Unlike AnonID it never issues a new one.
func AnonCookie(r *http.Request) string {
	if ck, err := r.Cookie(anonCookieName); err == nil {
		return ck.Value
	}
	return ""
}

// AnonID returns the guest identifier cookie, setting a new one if absent.
func (c Config) AnonID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(anonCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	id := ids.New()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Production,
		SameSite: c.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}
