package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key could be read
// or shadowed by any package that knows the string. Only THIS package can
// create a contextKey, so only this package can read or write the Caller.
type contextKey string

const callerKey contextKey = "caller"

// Caller is whoever issued the current request: a resolved user, or anonymous.
//
// It is passed explicitly into every service method that needs to know who is
// asking, instead of living in a global "current user".
type Caller struct {
	User    *model.User // nil for anonymous callers
	Session *Session    // the session that authenticated User, nil for anonymous
}

// Anonymous is the zero Caller.
var Anonymous = Caller{}

// IsAuthenticated reports whether the caller resolved to a user.
func (c Caller) IsAuthenticated() bool {
	return c.User != nil
}

// UserID returns the caller's user id, or 0 for anonymous callers.
func (c Caller) UserID() int64 {
	if c.User == nil {
		return 0
	}
	return c.User.ID
}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext returns the Caller stored by LoadCaller.
// A context without one yields Anonymous.
func CallerFromContext(ctx context.Context) Caller {
	c, ok := ctx.Value(callerKey).(Caller)
	if !ok {
		return Anonymous
	}
	return c
}

// UserFinder is the slice of the user store LoadCaller needs.
type UserFinder interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// LoadCaller is a middleware that resolves the session cookie to a Caller and
// stores it in the request context.
//
// Unlike a RequireAuth-style middleware it never blocks the request: pages are
// public, and each gated handler decides for itself with RequireUser or
// RequireAdmin. A missing, invalid, expired or revoked token all resolve to
// Anonymous, as does a token for a user that no longer exists.
//
// COOKIE FLOW:
//  1. Set-Cookie: session=<jwt>; HttpOnly; SameSite=Lax (set on login/register)
//  2. The browser sends Cookie: session=<jwt> on subsequent requests
//  3. We read r.Cookie("session"), validate it and load the user
func LoadCaller(tokens *SessionTokens, users UserFinder, revoked Revoker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := resolveCaller(r, tokens, users, revoked, logger)
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func resolveCaller(r *http.Request, tokens *SessionTokens, users UserFinder, revoked Revoker, logger *slog.Logger) Caller {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		// http.ErrNoCookie: not an error, just anonymous
		return Anonymous
	}

	sess, err := tokens.Parse(cookie.Value)
	if err != nil {
		logger.Debug("ignoring session cookie", slog.String("reason", err.Error()))
		return Anonymous
	}

	isRevoked, err := revoked.IsRevoked(r.Context(), sess.ID)
	if err != nil {
		// Fail closed: if we can't tell, treat the caller as logged out.
		logger.Error("checking session revocation", slog.String("error", err.Error()))
		return Anonymous
	}
	if isRevoked {
		return Anonymous
	}

	user, err := users.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			logger.Error("loading session user",
				slog.Int64("user_id", sess.UserID),
				slog.String("error", err.Error()),
			)
		}
		return Anonymous
	}

	return Caller{User: user, Session: sess}
}
