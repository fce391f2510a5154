package handler

import (
	"net/http"
)

// PagesHandler serves the home and about pages.
type PagesHandler struct {
	blog BlogService
	view *Renderer
}

func NewPagesHandler(blog BlogService, view *Renderer) *PagesHandler {
	return &PagesHandler{blog: blog, view: view}
}

// HandleHome lists every post.
//
// HTTP: GET /
func (h *PagesHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.ListPosts(r.Context())
	if err != nil {
		h.view.handleError(w, r, err)
		return
	}
	h.view.render(w, r, http.StatusOK, "index.html", Page{Data: posts})
}

// HandleAbout serves the static about page.
//
// HTTP: GET /about
func (h *PagesHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.view.render(w, r, http.StatusOK, "about.html", Page{Title: "About"})
}
