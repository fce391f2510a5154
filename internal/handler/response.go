package handler

// ERROR MAPPING:
// Services return domain errors (package apperror). This file is where they
// become HTTP:
//
//	ErrUnauthenticated → flash + 303 to /login
//	ErrForbidden       → 403 page
//	ErrNotFound        → 404 page
//	ErrValidation      → 400 page (forms normally catch this first and re-render)
//	anything else      → 500 page; the cause is logged, never shown
//
// Duplicate email/title are handled by the individual handlers because each
// reacts differently (redirect to login vs. re-render the post form).

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/portfolio-blog/internal/apperror"
)

type errorData struct {
	Status  int
	Message string
}

// handleError renders (or redirects for) a service error.
func (v *Renderer) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	message := ""
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		setFlash(w, message, v.secureCookies)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, apperror.ErrForbidden):
		v.renderError(w, r, http.StatusForbidden, message)
	case errors.Is(err, apperror.ErrNotFound):
		v.renderError(w, r, http.StatusNotFound, "Sorry, that page doesn't exist.")
	case errors.Is(err, apperror.ErrValidation):
		v.renderError(w, r, http.StatusBadRequest, message)
	default:
		v.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		v.renderError(w, r, http.StatusInternalServerError, "Something went wrong on our side.")
	}
}

func (v *Renderer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	v.render(w, r, status, "error.html", Page{
		Title: http.StatusText(status),
		Data:  errorData{Status: status, Message: message},
	})
}

// NotFound renders the 404 page for unmatched routes.
func (v *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	v.renderError(w, r, http.StatusNotFound, "Sorry, that page doesn't exist.")
}

// msgBadCSRF is shown when a form or action link carries a missing or stale token.
const msgBadCSRF = "This form or link expired or came from another site. Go back, reload the page and try again."

// CSRFRejected renders the 403 page for a failed CSRF check.
func (v *Renderer) CSRFRejected(w http.ResponseWriter, r *http.Request) {
	v.renderError(w, r, http.StatusForbidden, msgBadCSRF)
}

// postID reads the {id} URL parameter. A malformed id is reported as not found.
func postID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("post", raw)
	}
	return id, nil
}

// redirect sends a 303 so the browser follows up with GET, not a re-POST.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
