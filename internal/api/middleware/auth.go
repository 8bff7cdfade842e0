package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/store"
	"github.com/notevault/notevault/internal/utils"
)

type contextKey string

const userKey contextKey = "user"

// TokenVerifier resolves a bearer token into a username.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Auth gates every note operation. It extracts the bearer token, verifies
// it, and resolves the username against the user store. All failures get the
// same 403 body; callers learn nothing about why.
//
// A valid token whose username no longer exists still passes the gate with a
// nil identity — downstream ownership checks then fail naturally. This is
// deliberate, documented behavior.
func Auth(tokens TokenVerifier, users store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			username, err := tokens.Verify(tokenStr)
			if err != nil || username == "" {
				unauthorized(w)
				return
			}

			user, err := users.UserByUsername(r.Context(), username)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom returns the authenticated user, which is nil when the gate let a
// valid token through for a username that no longer resolves.
func ActorFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// WithActor is a test hook for injecting an identity without a token.
func WithActor(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter) {
	utils.JSONMessage(w, http.StatusForbidden, "Unauthorized access")
}
