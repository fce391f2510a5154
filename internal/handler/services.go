package handler

import (
	"context"

	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/mail"
	"github.com/sakif/portfolio-blog/internal/model"
	"github.com/sakif/portfolio-blog/internal/service"
)

// The handlers depend on these interfaces rather than the concrete services,
// which satisfy them as-is (see the assertions below).

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Logout(ctx context.Context, caller auth.Caller) error
}

type BlogService interface {
	ListPosts(ctx context.Context) ([]model.BlogPost, error)
	GetPost(ctx context.Context, id int64) (*service.PostView, error)
	CreatePost(ctx context.Context, caller auth.Caller, in service.PostInput) (*model.BlogPost, error)
	UpdatePost(ctx context.Context, caller auth.Caller, id int64, in service.PostInput) (*model.BlogPost, error)
	DeletePost(ctx context.Context, caller auth.Caller, id int64) error
	AddComment(ctx context.Context, caller auth.Caller, postID int64, text string) (*model.Comment, error)
}

type ContactService interface {
	Submit(ctx context.Context, c mail.Contact) error
}

var (
	_ AuthService    = (*service.AuthService)(nil)
	_ BlogService    = (*service.BlogService)(nil)
	_ ContactService = (*service.ContactService)(nil)
)
