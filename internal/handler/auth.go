package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/form"
	"github.com/sakif/portfolio-blog/internal/service"
)

// Flash messages shown on the login page.
const (
	msgAlreadyRegistered = "You've already signed up with that email, log in instead!"
	msgLoginToComment    = "You need to login or register to comment."
)

// AuthHandler manages registration, login and logout.
//
// SESSION COOKIE:
// On success the service returns an auth.Session; the handler stores its
// token in the HttpOnly "session" cookie. LoadCaller reads it back on every
// later request.
type AuthHandler struct {
	auth          AuthService
	view          *Renderer
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(authSvc AuthService, view *Renderer, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          authSvc,
		view:          view,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleRegisterPage shows the sign-up form.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.view.render(w, r, http.StatusOK, "register.html", Page{Title: "Register", Form: &form.RegisterForm{}})
}

// HandleRegister creates the account and logs it in.
//
// HTTP: POST /register
//
// A taken email doesn't create anything: the visitor is sent to the login page
// with a hint instead.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var f form.RegisterForm
	errs, err := form.Decode(r, &f)
	if err != nil {
		h.view.renderError(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}
	if errs.Any() {
		h.view.render(w, r, http.StatusUnprocessableEntity, "register.html",
			Page{Title: "Register", Form: &f, Errors: errs})
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    f.Email,
		Name:     f.Name,
		Password: f.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperror.ErrDuplicateEmail):
			setFlash(w, msgAlreadyRegistered, h.secureCookies)
			redirect(w, r, "/login")
		case errors.Is(err, apperror.ErrValidation):
			errs.Add(apperror.FieldOf(err), validationMessage(err))
			h.view.render(w, r, http.StatusUnprocessableEntity, "register.html",
				Page{Title: "Register", Form: &f, Errors: errs})
		default:
			h.view.handleError(w, r, err)
		}
		return
	}

	auth.SetSessionCookie(w, result.Session, h.secureCookies)
	redirect(w, r, "/")
}

// HandleLoginPage shows the login form.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.view.render(w, r, http.StatusOK, "login.html", Page{Title: "Log In", Form: &form.LoginForm{}})
}

// HandleLogin checks the credentials and sets the session cookie.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var f form.LoginForm
	errs, err := form.Decode(r, &f)
	if err != nil {
		h.view.renderError(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}
	if errs.Any() {
		h.view.render(w, r, http.StatusUnprocessableEntity, "login.html",
			Page{Title: "Log In", Form: &f, Errors: errs})
		return
	}

	result, err := h.auth.Login(r.Context(), f.Email, f.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotFound) || errors.Is(err, service.ErrWrongPassword) {
			var appErr *apperror.AppError
			errors.As(err, &appErr)
			setFlash(w, appErr.Message, h.secureCookies)
			redirect(w, r, "/login")
			return
		}
		h.view.handleError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, result.Session, h.secureCookies)
	redirect(w, r, "/")
}

// HandleLogout ends the session.
//
// HTTP: GET /logout
//
// The cookie is always cleared. Revoking the token id is best effort: if the
// revocation store is down the visitor is still logged out of this browser.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), auth.CallerFromContext(r.Context())); err != nil {
		h.logger.Error("logout: revoking session", slog.String("error", err.Error()))
	}
	auth.ClearSessionCookie(w, h.secureCookies)
	redirect(w, r, "/")
}

func validationMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Invalid value."
}
