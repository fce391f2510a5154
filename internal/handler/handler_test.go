package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/handler"
	"github.com/sakif/portfolio-blog/internal/mail"
	"github.com/sakif/portfolio-blog/internal/model"
	sqliteRepo "github.com/sakif/portfolio-blog/internal/repository/sqlite"
	"github.com/sakif/portfolio-blog/internal/service"
	"github.com/sakif/portfolio-blog/web"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Handlers run against the real services on an in-memory SQLite database.
// Instead of a session cookie, the caller is injected straight into the
// request context, so each test picks who is asking.

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msgs ...mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msgs...)
	return nil
}

type testEnv struct {
	blog    *service.BlogService
	auth    *service.AuthService
	contact *service.ContactService
	mailer  *recordingMailer
	view    *handler.Renderer
	logger  *slog.Logger

	admin   auth.Caller
	visitor auth.Caller
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewSessionTokens("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	view, err := handler.NewRenderer(web.Templates(), false, logger)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	env := &testEnv{
		blog:    service.NewBlogService(db, db, logger),
		auth:    service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(4), auth.NopRevoker{}, logger),
		contact: service.NewContactService(mailer, "owner@blog.dev", time.Second, logger),
		mailer:  mailer,
		view:    view,
		logger:  logger,
	}

	env.admin = env.register(t, "admin@x.com", "Admin")
	env.visitor = env.register(t, "visitor@x.com", "Visitor")
	return env
}

func (e *testEnv) register(t *testing.T, email, name string) auth.Caller {
	t.Helper()
	res, err := e.auth.Register(context.Background(), service.RegisterInput{
		Email: email, Name: name, Password: "password1",
	})
	require.NoError(t, err)
	return auth.Caller{User: res.User, Session: res.Session}
}

func (e *testEnv) createPost(t *testing.T, title string) *model.BlogPost {
	t.Helper()
	post, err := e.blog.CreatePost(context.Background(), e.admin, service.PostInput{
		Title:    title,
		Subtitle: "sub",
		Body:     "<p>body of " + title + "</p>",
		ImgURL:   "https://example.com/img.jpg",
	})
	require.NoError(t, err)
	return post
}

// router mounts every handler the way the server does, acting as caller.
func (e *testEnv) router(caller auth.Caller) http.Handler {
	pages := handler.NewPagesHandler(e.blog, e.view)
	authH := handler.NewAuthHandler(e.auth, e.view, false, e.logger)
	blogH := handler.NewBlogHandler(e.blog, e.view, false, e.logger)
	contactH := handler.NewContactHandler(e.contact, e.view)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithCaller(req.Context(), caller)))
		})
	})
	r.NotFound(e.view.NotFound)
	r.Get("/", pages.HandleHome)
	r.Get("/about", pages.HandleAbout)
	r.Get("/register", authH.HandleRegisterPage)
	r.Post("/register", authH.HandleRegister)
	r.Get("/login", authH.HandleLoginPage)
	r.Post("/login", authH.HandleLogin)
	r.Get("/logout", authH.HandleLogout)
	r.Get("/post/{id}", blogH.HandleShowPost)
	r.Post("/post/{id}", blogH.HandleAddComment)
	r.Get("/new-post", blogH.HandleNewPostPage)
	r.Post("/new-post", blogH.HandleCreatePost)
	r.Get("/edit-post/{id}", blogH.HandleEditPostPage)
	r.Post("/edit-post/{id}", blogH.HandleUpdatePost)
	r.Get("/delete-post/{id}", blogH.HandleDeletePost)
	r.Get("/contact", contactH.HandleContactPage)
	r.Post("/contact", contactH.HandleContact)
	return r
}

func get(h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func post(h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func validPost(title string) url.Values {
	return url.Values{
		"title":    {title},
		"subtitle": {"A subtitle"},
		"img_url":  {"https://example.com/a.jpg"},
		"body":     {"<p>Hello <b>world</b></p>"},
	}
}

// =========================================================================
// PAGES
// =========================================================================

func TestHome(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "First")
	env.createPost(t, "Second")

	t.Run("lists posts in order", func(t *testing.T) {
		rr := get(env.router(auth.Anonymous), "/")
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Less(t, strings.Index(body, "First"), strings.Index(body, "Second"))
		assert.Contains(t, body, "Posted by Admin")
		assert.NotContains(t, body, "Create New Post")
	})

	t.Run("admin sees the editor links", func(t *testing.T) {
		rr := get(env.router(env.admin), "/")
		assert.Contains(t, rr.Body.String(), "Create New Post")
		assert.Contains(t, rr.Body.String(), "/delete-post/1")
	})

	t.Run("non-admin does not", func(t *testing.T) {
		rr := get(env.router(env.visitor), "/")
		assert.NotContains(t, rr.Body.String(), "Create New Post")
		assert.Contains(t, rr.Body.String(), "Log Out")
	})
}

func TestCSRFRejected_RendersErrorPage(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.view.CSRFRejected(rr, httptest.NewRequest(http.MethodGet, "/delete-post/1", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "came from another site")
}

func TestAboutAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(auth.Anonymous)

	assert.Equal(t, http.StatusOK, get(h, "/about").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/no-such-page").Code)
}

// =========================================================================
// REGISTER / LOGIN / LOGOUT
// =========================================================================

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(auth.Anonymous)

	t.Run("success logs in and redirects home", func(t *testing.T) {
		rr := post(h, "/register", url.Values{"email": {"new@x.com"}, "password": {"password1"}, "name": {"New"}})
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
		session := cookieNamed(rr, auth.SessionCookieName)
		require.NotNil(t, session)
		assert.True(t, session.HttpOnly)
	})

	t.Run("duplicate email redirects to login with a flash", func(t *testing.T) {
		rr := post(h, "/register", url.Values{"email": {"admin@x.com"}, "password": {"password1"}, "name": {"Again"}})
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
		assert.Nil(t, cookieNamed(rr, auth.SessionCookieName))

		flash := cookieNamed(rr, "flash")
		require.NotNil(t, flash)
		page := get(h, "/login", flash)
		assert.Contains(t, page.Body.String(), "already signed up with that email")
	})

	t.Run("invalid form re-renders with errors", func(t *testing.T) {
		rr := post(h, "/register", url.Values{"email": {"nope"}, "password": {"short"}, "name": {"Keep Me"}})
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Invalid email address.")
		assert.Contains(t, body, "at least 8 characters")
		assert.Contains(t, body, `value="Keep Me"`)
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(auth.Anonymous)

	tests := []struct {
		name      string
		email     string
		password  string
		wantLoc   string
		wantFlash string
	}{
		{"success", "visitor@x.com", "password1", "/", ""},
		{"unknown email", "ghost@x.com", "password1", "/login", "That email does not exist, please try again."},
		{"wrong password", "visitor@x.com", "password2", "/login", "Password incorrect, please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(h, "/login", url.Values{"email": {tt.email}, "password": {tt.password}})
			require.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, tt.wantLoc, rr.Header().Get("Location"))

			if tt.wantFlash == "" {
				assert.NotNil(t, cookieNamed(rr, auth.SessionCookieName))
				return
			}
			assert.Nil(t, cookieNamed(rr, auth.SessionCookieName))
			page := get(h, "/login", cookieNamed(rr, "flash"))
			assert.Contains(t, page.Body.String(), tt.wantFlash)
		})
	}
}

func TestLogin_MissingPassword(t *testing.T) {
	env := newTestEnv(t)
	rr := post(env.router(auth.Anonymous), "/login", url.Values{"email": {"visitor@x.com"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "This field is required.")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rr := get(env.router(env.visitor), "/logout")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	cleared := cookieNamed(rr, auth.SessionCookieName)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
}

// =========================================================================
// POSTS
// =========================================================================

func TestNewPost_Guards(t *testing.T) {
	env := newTestEnv(t)

	t.Run("anonymous is sent to login", func(t *testing.T) {
		rr := get(env.router(auth.Anonymous), "/new-post")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, get(env.router(env.visitor), "/new-post").Code)
		rr := post(env.router(env.visitor), "/new-post", validPost("Sneaky"))
		assert.Equal(t, http.StatusForbidden, rr.Code)

		posts, _ := env.blog.ListPosts(context.Background())
		assert.Empty(t, posts)
	})

	t.Run("admin sees the editor", func(t *testing.T) {
		rr := get(env.router(env.admin), "/new-post")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `action="/new-post"`)
	})
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(env.admin)

	rr := post(h, "/new-post", validPost("Hello"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	posts, err := env.blog.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0].Title)

	t.Run("duplicate title re-renders with a title error", func(t *testing.T) {
		rr := post(h, "/new-post", validPost("Hello"))
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "already exists")

		posts, _ := env.blog.ListPosts(context.Background())
		assert.Len(t, posts, 1)
	})

	t.Run("bad image url re-renders", func(t *testing.T) {
		values := validPost("Other")
		values.Set("img_url", "not a url")
		rr := post(h, "/new-post", values)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid URL.")
	})
}

func TestShowPost(t *testing.T) {
	env := newTestEnv(t)
	p := env.createPost(t, "Hello")
	_, err := env.blog.AddComment(context.Background(), env.visitor, p.ID, "<script>alert(1)</script>")
	require.NoError(t, err)

	rr := get(env.router(auth.Anonymous), "/post/1")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.Contains(t, body, "<p>body of Hello</p>", "the admin-written body is rendered as HTML")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;", "comments are escaped")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "https://www.gravatar.com/avatar/")
	assert.Contains(t, body, "Log in</a> to leave a comment")

	assert.Equal(t, http.StatusNotFound, get(env.router(auth.Anonymous), "/post/99").Code)
	assert.Equal(t, http.StatusNotFound, get(env.router(auth.Anonymous), "/post/abc").Code)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "Hello")

	t.Run("anonymous is sent to login", func(t *testing.T) {
		rr := post(env.router(auth.Anonymous), "/post/1", url.Values{"comment_text": {"hi"}})
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))

		view, _ := env.blog.GetPost(context.Background(), 1)
		assert.Empty(t, view.Comments)
	})

	t.Run("user comments", func(t *testing.T) {
		rr := post(env.router(env.visitor), "/post/1", url.Values{"comment_text": {"Great read"}})
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/post/1", rr.Header().Get("Location"))

		page := get(env.router(env.visitor), "/post/1")
		assert.Contains(t, page.Body.String(), "Great read")
	})

	t.Run("blank comment re-renders", func(t *testing.T) {
		rr := post(env.router(env.visitor), "/post/1", url.Values{"comment_text": {" "}})
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("missing post", func(t *testing.T) {
		rr := post(env.router(env.visitor), "/post/42", url.Values{"comment_text": {"hi"}})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestEditPost(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "Hello")
	env.createPost(t, "Taken")

	t.Run("non-admin is forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, get(env.router(env.visitor), "/edit-post/1").Code)
		rr := post(env.router(env.visitor), "/edit-post/1", validPost("Hijacked"))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin sees current values", func(t *testing.T) {
		rr := get(env.router(env.admin), "/edit-post/1")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `value="Hello"`)
		assert.Contains(t, rr.Body.String(), `action="/edit-post/1"`)
	})

	t.Run("admin saves", func(t *testing.T) {
		rr := post(env.router(env.admin), "/edit-post/1", validPost("Hello, edited"))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/post/1", rr.Header().Get("Location"))

		view, err := env.blog.GetPost(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Hello, edited", view.Post.Title)
	})

	t.Run("rename onto an existing title", func(t *testing.T) {
		rr := post(env.router(env.admin), "/edit-post/1", validPost("Taken"))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("missing post", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(env.router(env.admin), "/edit-post/99").Code)
	})
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "Hello")

	rr := get(env.router(env.visitor), "/delete-post/1")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = get(env.router(env.admin), "/delete-post/1")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, http.StatusNotFound, get(env.router(env.admin), "/post/1").Code)

	rr = get(env.router(env.admin), "/delete-post/1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// =========================================================================
// CONTACT
// =========================================================================

func TestContact(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(auth.Anonymous)

	assert.Equal(t, http.StatusOK, get(h, "/contact").Code)

	rr := post(h, "/contact", url.Values{
		"name": {"Ada"}, "email": {"ada@example.com"}, "phone": {"555"}, "message": {"Hello!"},
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Successfully sent message")

	env.contact.Wait()
	env.mailer.mu.Lock()
	defer env.mailer.mu.Unlock()
	require.Len(t, env.mailer.sent, 2)
	assert.Equal(t, "ada@example.com", env.mailer.sent[0].To)
	assert.Equal(t, "owner@blog.dev", env.mailer.sent[1].To)
}

func TestContact_Invalid(t *testing.T) {
	env := newTestEnv(t)

	rr := post(env.router(auth.Anonymous), "/contact", url.Values{"name": {"Ada"}, "email": {"bad"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid email address.")
	assert.NotContains(t, rr.Body.String(), "Successfully sent message")
}
