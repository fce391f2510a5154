package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/form"
	"github.com/sakif/portfolio-blog/internal/service"
)

// BlogHandler serves posts and comments.
//
// GUARDS:
// The gated handlers call auth.RequireAdmin (or RequireUser) first, before
// reading the form or touching the service. The service checks again.
type BlogHandler struct {
	blog          BlogService
	view          *Renderer
	secureCookies bool
	logger        *slog.Logger
}

func NewBlogHandler(blog BlogService, view *Renderer, secureCookies bool, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		blog:          blog,
		view:          view,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type postFormData struct {
	IsEdit bool
	PostID int64
}

// HandleShowPost shows a post, its comments and the comment box.
//
// HTTP: GET /post/{id}
func (h *BlogHandler) HandleShowPost(w http.ResponseWriter, r *http.Request) {
	h.showPost(w, r, http.StatusOK, &form.CommentForm{}, nil)
}

func (h *BlogHandler) showPost(w http.ResponseWriter, r *http.Request, status int, f *form.CommentForm, errs form.Errors) {
	id, err := postID(r)
	if err != nil {
		h.view.handleError(w, r, err)
		return
	}

	view, err := h.blog.GetPost(r.Context(), id)
	if err != nil {
		h.view.handleError(w, r, err)
		return
	}

	h.view.render(w, r, status, "post.html", Page{
		Title:  view.Post.Title,
		Form:   f,
		Errors: errs,
		Data:   view,
	})
}

// HandleAddComment posts a comment as the caller.
//
// HTTP: POST /post/{id}
func (h *BlogHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if err := auth.RequireUser(caller); err != nil {
		setFlash(w, msgLoginToComment, h.secureCookies)
		redirect(w, r, "/login")
		return
	}

	id, err := postID(r)
	if err != nil {
		h.view.handleError(w, r, err)
		return
	}

	var f form.CommentForm
	errs, err := form.Decode(r, &f)
	if err != nil {
		h.view.renderError(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}
	if errs.Any() {
		h.showPost(w, r, http.StatusUnprocessableEntity, &f, errs)
		return
	}

	if _, err := h.blog.AddComment(r.Context(), caller, id, f.Text); err != nil {
		h.view.handleError(w, r, err)
		return
	}

	redirect(w, r, fmt.Sprintf("/post/%d", id))
}

// HandleNewPostPage shows the empty post editor.
//
// HTTP: GET /new-post (admin)
func (h *BlogHandler) HandleNewPostPage(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(auth.CallerFromContext(r.Context())); err != nil {
		h.view.handleError(w, r, err)
		return
	}
	h.renderEditor(w, r, http.StatusOK, &form.PostForm{}, nil, postFormData{})
}

// HandleCreatePost publishes a new post.
//
// HTTP: POST /new-post (admin)
func (h *BlogHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if err := auth.RequireAdmin(caller); err != nil {
		h.view.handleError(w, r, err)
		return
	}

	f, errs, ok := h.decodePost(w, r, postFormData{})
	if !ok {
		return
	}

	_, err := h.blog.CreatePost(r.Context(), caller, postInput(f))
	if err != nil {
		h.editorError(w, r, err, f, errs, postFormData{})
		return
	}

	redirect(w, r, "/")
}

// HandleEditPostPage shows the editor filled with the post's current values.
//
// HTTP: GET /edit-post/{id} (admin)
func (h *BlogHandler) HandleEditPostPage(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(auth.CallerFromContext(r.Context())); err != nil {
		h.view.handleError(w, r, err)
		return
	}

	id, err := postID(r)
	if err != nil {
		h.view.handleError(w, r, err)
		return
	}
	view, err := h.blog.GetPost(r.Context(), id)
	if err != nil {
		h.view.handleError(w, r, err)
		return
	}

	f := &form.PostForm{
		Title:    view.Post.Title,
		Subtitle: view.Post.Subtitle,
		ImgURL:   view.Post.ImgURL,
		Body:     view.Post.Body,
	}
	h.renderEditor(w, r, http.StatusOK, f, nil, postFormData{IsEdit: true, PostID: id})
}

// HandleUpdatePost saves the edited post.
//
// HTTP: POST /edit-post/{id} (admin)
func (h *BlogHandler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if err := auth.RequireAdmin(caller); err != nil {
		h.view.handleError(w, r, err)
		return
	}

	id, err := postID(r)
	if err != nil {
		h.view.handleError(w, r, err)
		return
	}

	data := postFormData{IsEdit: true, PostID: id}
	f, errs, ok := h.decodePost(w, r, data)
	if !ok {
		return
	}

	if _, err := h.blog.UpdatePost(r.Context(), caller, id, postInput(f)); err != nil {
		h.editorError(w, r, err, f, errs, data)
		return
	}

	redirect(w, r, fmt.Sprintf("/post/%d", id))
}

// HandleDeletePost deletes a post and its comments.
//
// HTTP: GET /delete-post/{id} (admin)
func (h *BlogHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if err := auth.RequireAdmin(caller); err != nil {
		h.view.handleError(w, r, err)
		return
	}

	id, err := postID(r)
	if err != nil {
		h.view.handleError(w, r, err)
		return
	}

	if err := h.blog.DeletePost(r.Context(), caller, id); err != nil {
		h.view.handleError(w, r, err)
		return
	}

	redirect(w, r, "/")
}

// decodePost decodes the editor form. When it returns ok == false the
// response has already been written.
func (h *BlogHandler) decodePost(w http.ResponseWriter, r *http.Request, data postFormData) (*form.PostForm, form.Errors, bool) {
	var f form.PostForm
	errs, err := form.Decode(r, &f)
	if err != nil {
		h.view.renderError(w, r, http.StatusBadRequest, "Malformed form submission.")
		return nil, nil, false
	}
	if errs.Any() {
		h.renderEditor(w, r, http.StatusUnprocessableEntity, &f, errs, data)
		return nil, nil, false
	}
	return &f, errs, true
}

// editorError re-renders the editor for a duplicate title or a validation
// error and falls back to the generic mapping for everything else.
func (h *BlogHandler) editorError(w http.ResponseWriter, r *http.Request, err error, f *form.PostForm, errs form.Errors, data postFormData) {
	switch {
	case errors.Is(err, apperror.ErrDuplicateTitle):
		errs.Add("title", validationMessage(err))
		h.renderEditor(w, r, http.StatusConflict, f, errs, data)
	case errors.Is(err, apperror.ErrValidation):
		errs.Add(apperror.FieldOf(err), validationMessage(err))
		h.renderEditor(w, r, http.StatusUnprocessableEntity, f, errs, data)
	default:
		h.view.handleError(w, r, err)
	}
}

func (h *BlogHandler) renderEditor(w http.ResponseWriter, r *http.Request, status int, f *form.PostForm, errs form.Errors, data postFormData) {
	title := "New Post"
	if data.IsEdit {
		title = "Edit Post"
	}
	h.view.render(w, r, status, "make-post.html", Page{
		Title:  title,
		Form:   f,
		Errors: errs,
		Data:   data,
	})
}

func postInput(f *form.PostForm) service.PostInput {
	return service.PostInput{
		Title:    f.Title,
		Subtitle: f.Subtitle,
		Body:     f.Body,
		ImgURL:   f.ImgURL,
	}
}
