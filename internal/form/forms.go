package form

import "net/url"

// RegisterForm is the sign-up form.
// max=72 is bcrypt's input limit.
type RegisterForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=8,max=72"`
	Name     string `form:"name" validate:"required"`
}

func (f *RegisterForm) bind(v url.Values) {
	f.Email = text(v, "email")
	f.Password = v.Get("password")
	f.Name = text(v, "name")
}

// LoginForm is the log-in form.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func (f *LoginForm) bind(v url.Values) {
	f.Email = text(v, "email")
	f.Password = v.Get("password")
}

// PostForm creates or edits a blog post. Body is rich-text HTML.
type PostForm struct {
	Title    string `form:"title" validate:"required"`
	Subtitle string `form:"subtitle" validate:"required"`
	ImgURL   string `form:"img_url" validate:"required,url"`
	Body     string `form:"body" validate:"required"`
}

func (f *PostForm) bind(v url.Values) {
	f.Title = text(v, "title")
	f.Subtitle = text(v, "subtitle")
	f.ImgURL = text(v, "img_url")
	f.Body = text(v, "body")
}

// CommentForm is the comment box under a post.
type CommentForm struct {
	Text string `form:"comment_text" validate:"required"`
}

func (f *CommentForm) bind(v url.Values) {
	f.Text = text(v, "comment_text")
}

// ContactForm is the "get in touch" form.
type ContactForm struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required,email"`
	Phone   string `form:"phone" validate:"required"`
	Message string `form:"message" validate:"required"`
}

func (f *ContactForm) bind(v url.Values) {
	f.Name = text(v, "name")
	f.Email = text(v, "email")
	f.Phone = text(v, "phone")
	f.Message = text(v, "message")
}
