package handler

import (
	"errors"
	"net/http"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/form"
	"github.com/sakif/portfolio-blog/internal/mail"
)

// ContactHandler serves the contact form.
type ContactHandler struct {
	contact ContactService
	view    *Renderer
}

func NewContactHandler(contact ContactService, view *Renderer) *ContactHandler {
	return &ContactHandler{contact: contact, view: view}
}

type contactData struct {
	MsgSent bool
}

// HandleContactPage shows the empty contact form.
//
// HTTP: GET /contact
func (h *ContactHandler) HandleContactPage(w http.ResponseWriter, r *http.Request) {
	h.view.render(w, r, http.StatusOK, "contact.html", Page{
		Title: "Contact",
		Form:  &form.ContactForm{},
		Data:  contactData{},
	})
}

// HandleContact queues the emails and confirms on the same page.
//
// HTTP: POST /contact
//
// Delivery happens in the background, so "sent" here means "accepted": an
// SMTP failure is logged by the service and never shown to the visitor.
func (h *ContactHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var f form.ContactForm
	errs, err := form.Decode(r, &f)
	if err != nil {
		h.view.renderError(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}
	if errs.Any() {
		h.view.render(w, r, http.StatusUnprocessableEntity, "contact.html", Page{
			Title:  "Contact",
			Form:   &f,
			Errors: errs,
			Data:   contactData{},
		})
		return
	}

	err = h.contact.Submit(r.Context(), mail.Contact{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Message: f.Message,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			errs.Add(apperror.FieldOf(err), validationMessage(err))
			h.view.render(w, r, http.StatusUnprocessableEntity, "contact.html", Page{
				Title:  "Contact",
				Form:   &f,
				Errors: errs,
				Data:   contactData{},
			})
			return
		}
		h.view.handleError(w, r, err)
		return
	}

	h.view.render(w, r, http.StatusOK, "contact.html", Page{
		Title: "Contact",
		Form:  &form.ContactForm{},
		Data:  contactData{MsgSent: true},
	})
}
