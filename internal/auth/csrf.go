package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/rs/xid"
)

// CSRFFieldName is the cookie name, the hidden form field name and the query
// parameter carried by state-changing links.
const CSRFFieldName = "csrf_token"

const csrfKey contextKey = "csrf"

// CSRF is a double-submit-cookie middleware.
//
// HOW IT WORKS:
//  1. On any request without a token cookie we mint one (an xid) and set it.
//  2. Templates embed the same value in a hidden csrf_token input.
//  3. On POST the form value must equal the cookie value.
//
// A cross-site form can make the browser send our cookie, but it cannot read
// it, so it cannot put the matching value in the form body.
//
// reject answers a failed check. A nil reject writes a plain 403.
func CSRF(secure bool, reject http.Handler) func(http.Handler) http.Handler {
	if reject == nil {
		reject = http.HandlerFunc(plainForbidden)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := requestToken(r)

			if r.Method == http.MethodPost && !tokensMatch(token, r.PostFormValue(CSRFFieldName)) {
				reject.ServeHTTP(w, r)
				return
			}

			if token == "" {
				token = xid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFFieldName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), csrfKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCSRFQuery guards GET routes that change state, such as a delete
// link. The link must carry the cookie's token as ?csrf_token=. SameSite=Lax
// still sends cookies on top-level cross-site navigations, so the cookie
// alone proves nothing here.
func RequireCSRFQuery(reject http.Handler) func(http.Handler) http.Handler {
	if reject == nil {
		reject = http.HandlerFunc(plainForbidden)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokensMatch(requestToken(r), r.URL.Query().Get(CSRFFieldName)) {
				reject.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFTokenFromContext returns the token templates should embed.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey).(string)
	return token
}

// requestToken is the token cookie the browser sent, not one minted for
// this response.
func requestToken(r *http.Request) string {
	if c, err := r.Cookie(CSRFFieldName); err == nil {
		return c.Value
	}
	return ""
}

func tokensMatch(cookie, submitted string) bool {
	return cookie != "" && subtle.ConstantTimeCompare([]byte(cookie), []byte(submitted)) == 1
}

func plainForbidden(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Forbidden: invalid or missing CSRF token", http.StatusForbidden)
}
