// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and routes.
// It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB ──────────────┬→ AuthService ──→ AuthHandler
//	  SessionTokens, Revoker ─┘   BlogService ──→ PagesHandler, BlogHandler
//	  Mailer ───────────────────→ ContactService → ContactHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/config"
	"github.com/sakif/portfolio-blog/internal/handler"
	"github.com/sakif/portfolio-blog/internal/mail"
	"github.com/sakif/portfolio-blog/internal/middleware"
	sqliteRepo "github.com/sakif/portfolio-blog/internal/repository/sqlite"
	"github.com/sakif/portfolio-blog/internal/service"
	"github.com/sakif/portfolio-blog/web"
)

// shutdownTimeout bounds how long Start waits for in-flight requests.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection, the revocation store client and
// the contact service's background sends. Close releases all three.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	revoker auth.Revoker
	mailer  mail.Mailer
	contact *service.ContactService
}

// Option customises New. Tests use it to swap out external collaborators.
type Option func(*Server)

// WithMailer replaces the mailer New would build from the configuration.
func WithMailer(m mail.Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

// New creates a Server from cfg: it opens the database, connects to Redis if
// configured, builds the services and registers every route.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sqliteRepo.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	if err := s.setupRevoker(); err != nil {
		db.Close()
		return nil, err
	}

	if s.mailer == nil {
		if err := s.setupMailer(); err != nil {
			s.Close()
			return nil, err
		}
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRevoker connects to Redis when REDIS_URL is set. Without it, logout
// only clears the cookie.
func (s *Server) setupRevoker() error {
	if s.config.RedisURL == "" {
		s.revoker = auth.NopRevoker{}
		s.logger.Info("REDIS_URL not set, session revocation disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rev, err := auth.NewRedisRevokerFromURL(ctx, s.config.RedisURL)
	if err != nil {
		return fmt.Errorf("setting up session revocation: %w", err)
	}
	s.revoker = rev
	return nil
}

// setupMailer builds the SMTP mailer, or a logging stand-in when MY_EMAIL /
// APP_PASSWORD are missing so the contact form still works in development.
func (s *Server) setupMailer() error {
	if !s.config.MailEnabled() {
		s.logger.Warn("MY_EMAIL or APP_PASSWORD not set, contact emails will only be logged")
		s.mailer = mail.NewLogMailer(s.logger)
		return nil
	}

	m, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     s.config.SMTPHost,
		Port:     s.config.SMTPPort,
		Username: s.config.MyEmail,
		Password: s.config.AppPassword,
		Timeout:  s.config.MailTimeout,
	})
	if err != nil {
		return fmt.Errorf("setting up mailer: %w", err)
	}
	s.mailer = m
	return nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /                      → home, all posts
//	GET  /about                 → about page
//	GET  /contact   POST        → contact form
//	GET  /register  POST        → sign up
//	GET  /login     POST        → log in
//	GET  /logout                → log out
//	GET  /post/{id} POST        → read a post / add a comment (logged in)
//	GET  /new-post  POST        → create a post (admin)
//	GET  /edit-post/{id} POST   → edit a post (admin)
//	GET  /delete-post/{id}      → delete a post (admin, ?csrf_token= required)
//	GET  /static/*              → embedded CSS
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. LoadCaller: resolves the session cookie to a Caller
// 5. Logger: logs each request (after LoadCaller, so it can log the user id)
// 6. CSRF: rejects POSTs without a matching token
//
// The delete link is a GET, so it additionally runs RequireCSRFQuery.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewSessionTokens(s.config.SecretKey, s.config.SessionTTL)
	if err != nil {
		return err
	}

	view, err := handler.NewRenderer(web.Templates(), s.config.SecureCookies, s.logger)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	// === Services ===
	// s.db implements all three repository interfaces.
	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.revoker, s.logger)
	blogService := service.NewBlogService(s.db, s.db, s.logger)
	s.contact = service.NewContactService(s.mailer, s.config.MyEmail, s.config.MailTimeout, s.logger)

	// === Handlers ===
	secure := s.config.SecureCookies
	pages := handler.NewPagesHandler(blogService, view)
	authHandler := handler.NewAuthHandler(authService, view, secure, s.logger)
	blogHandler := handler.NewBlogHandler(blogService, view, secure, s.logger)
	contactHandler := handler.NewContactHandler(s.contact, view)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.LoadCaller(tokens, s.db, s.revoker, s.logger))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(auth.CSRF(secure, http.HandlerFunc(view.CSRFRejected)))

	s.router.NotFound(view.NotFound)

	// === Static Files ===
	// GET /static/css/styles.css → web/static/css/styles.css (embedded)
	fileServer := http.FileServer(http.FS(web.Static()))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// === Pages ===
	s.router.Get("/", pages.HandleHome)
	s.router.Get("/about", pages.HandleAbout)
	s.router.Get("/contact", contactHandler.HandleContactPage)
	s.router.Post("/contact", contactHandler.HandleContact)

	// === Accounts ===
	s.router.Get("/register", authHandler.HandleRegisterPage)
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Get("/login", authHandler.HandleLoginPage)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Get("/logout", authHandler.HandleLogout)

	// === Blog ===
	s.router.Get("/post/{id}", blogHandler.HandleShowPost)
	s.router.Post("/post/{id}", blogHandler.HandleAddComment)
	s.router.Get("/new-post", blogHandler.HandleNewPostPage)
	s.router.Post("/new-post", blogHandler.HandleCreatePost)
	s.router.Get("/edit-post/{id}", blogHandler.HandleEditPostPage)
	s.router.Post("/edit-post/{id}", blogHandler.HandleUpdatePost)
	s.router.With(auth.RequireCSRFQuery(http.HandlerFunc(view.CSRFRejected))).
		Get("/delete-post/{id}", blogHandler.HandleDeletePost)

	return nil
}

// ServeHTTP makes Server an http.Handler, which is what tests drive.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close waits for queued contact emails, then releases the revocation store
// and the database.
func (s *Server) Close() error {
	if s.contact != nil {
		s.contact.Wait()
	}

	var errs []error
	if c, ok := s.revoker.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Wait for background contact emails (each bounded by MAIL_TIMEOUT)
// 4. Close Redis and the database (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DatabaseURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
