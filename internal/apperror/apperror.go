// Package apperror defines the error taxonomy shared by every layer.
//
// Repositories and services return these errors; handlers translate them to
// HTTP behaviour (re-render, redirect, 403, 404). Check them with errors.Is:
//
//	if errors.Is(err, apperror.ErrDuplicateEmail) { ... }
//
// ErrDuplicateEmail and ErrDuplicateTitle wrap ErrConflict, so a caller that
// only cares about "some uniqueness rule was broken" can match ErrConflict.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrDuplicateEmail  = fmt.Errorf("duplicate email: %w", ErrConflict)
	ErrDuplicateTitle  = fmt.Errorf("duplicate title: %w", ErrConflict)
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail reports that a user with this email is already registered.
// The handler sends the caller to the login page instead.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: fmt.Sprintf("an account with email %s already exists", email),
		Field:   "email",
	}
}

// DuplicateTitle reports that another post already uses this title.
func DuplicateTitle(title string) *AppError {
	return &AppError{
		Err:     ErrDuplicateTitle,
		Message: fmt.Sprintf("a post titled %q already exists", title),
		Field:   "title",
	}
}

// Unauthenticated means there is no logged-in caller. HTTP handlers redirect
// to the login page rather than returning an error status.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// FieldOf returns the offending form field carried by err, if any.
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
