// AuthService is the business logic layer for accounts and sessions. It sits
// between the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ SessionTokens (JWT), PasswordService (bcrypt), Revoker
//
// KEY RESPONSIBILITIES:
//   - Register: hash the password, insert the user, issue a session
//   - Login: look the email up, verify the password, issue a session
//   - Logout: revoke the caller's session id

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/model"
	"github.com/sakif/portfolio-blog/internal/repository"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// Login failures. They are reported separately so the login page can tell the
// visitor which of the two fields was wrong.
var (
	ErrEmailNotFound = apperror.Unauthenticated("That email does not exist, please try again.")
	ErrWrongPassword = apperror.Unauthenticated("Password incorrect, please try again.")
)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - sessions   *auth.SessionTokens        → issue session JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - revoker    auth.Revoker               → remember logged-out sessions
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	sessions  *auth.SessionTokens
	passwords *auth.PasswordService
	revoker   auth.Revoker
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	sessions *auth.SessionTokens,
	passwords *auth.PasswordService,
	revoker auth.Revoker,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		revoker:   revoker,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session so the handler
// can set the cookie and redirect in one step.
type AuthResult struct {
	User    *model.User
	Session *auth.Session
}

// RegisterInput is what the sign-up form collects.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates an account and logs it in.
//
// The password is hashed before it reaches the store; the plaintext is never
// persisted. A taken email comes back from the store as
// apperror.ErrDuplicateEmail and is returned unchanged (no user is created).
//
// The first account ever registered becomes the site admin (see auth.IsAdmin).
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.Bool("admin", user.ID == auth.AdminUserID),
	)

	return s.issue(user)
}

// Login checks the credentials and issues a fresh session.
// Returns ErrEmailNotFound or ErrWrongPassword on bad credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !s.VerifyPassword(user, password) {
		s.logger.Info("login failed: wrong password", slog.Int64("user_id", user.ID))
		return nil, ErrWrongPassword
	}

	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	return s.issue(user)
}

// VerifyPassword reports whether candidate is user's password.
// bcrypt compares in constant time against a freshly computed hash.
func (s *AuthService) VerifyPassword(user *model.User, candidate string) bool {
	if user == nil {
		return false
	}
	return s.passwords.Matches(user.PasswordHash, candidate)
}

// Logout revokes the caller's session so a copied cookie can't be replayed.
// Anonymous callers are a no-op.
func (s *AuthService) Logout(ctx context.Context, caller auth.Caller) error {
	if caller.Session == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, caller.Session.ID, caller.Session.ExpiresAt); err != nil {
		return fmt.Errorf("service/auth: revoking session: %w", err)
	}
	s.logger.Info("user logged out", slog.Int64("user_id", caller.UserID()))
	return nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	sess, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Session: sess}, nil
}
