// Package auth holds everything that decides WHO is calling and WHAT they may do:
// password hashing, signed session tokens, the per-request Caller, the
// single-admin policy, CSRF tokens and session revocation.
//
// SESSION FLOW:
//  1. Register or login succeeds → Issue() signs a JWT for the user id
//  2. The handler stores it in the HttpOnly "session" cookie
//  3. LoadCaller middleware reads the cookie on every request, validates it,
//     loads the user and puts a Caller in the request context
//  4. Logout clears the cookie and revokes the token id
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"sub":"1","jti":"<uuid>","iss":"portfolio-blog","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, SECRET_KEY)
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "session"

const issuer = "portfolio-blog"

// MinSecretLength is the shortest SECRET_KEY NewSessionTokens accepts.
const MinSecretLength = 16

// Session is an issued (or parsed) session token.
type Session struct {
	Token     string    // the signed JWT, as stored in the cookie
	ID        string    // jti claim; used to revoke this one token on logout
	UserID    int64     // sub claim
	ExpiresAt time.Time // exp claim
}

// SessionTokens signs and validates session JWTs with an HMAC secret.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionTokens creates a SessionTokens. ttl is how long an issued session
// stays valid; it also becomes the cookie's Max-Age.
func NewSessionTokens(secret string, ttl time.Duration) (*SessionTokens, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session lifetime must be positive")
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a new session for userID.
func (s *SessionTokens) Issue(userID int64) (*Session, error) {
	return s.issue(userID, s.ttl)
}

func (s *SessionTokens) issue(userID int64, d time.Duration) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(d),
	}

	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("auth: signing session: %w", err)
	}
	sess.Token = signed

	return sess, nil
}

// Parse verifies a session token and returns its contents.
//
// The library checks the signature, expiry and issuer. WithValidMethods pins
// HS256 so a token claiming "alg":"none" is rejected.
func (s *SessionTokens) Parse(tokenStr string) (*Session, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: session expired")
		}
		return nil, fmt.Errorf("auth: invalid session: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("auth: invalid session")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("auth: session has no valid subject")
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("auth: session has no id")
	}

	return &Session{
		Token:     tokenStr,
		ID:        claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SetSessionCookie stores sess in the HttpOnly session cookie.
// secure should be true whenever the site is served over HTTPS.
func SetSessionCookie(w http.ResponseWriter, sess *Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
