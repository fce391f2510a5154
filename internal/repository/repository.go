// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage implements all three on a single *DB.
package repository

import (
	"context"

	"github.com/sakif/portfolio-blog/internal/model"
)

// UserRepository persists accounts.
// CreateUser returns apperror.ErrDuplicateEmail when the email is taken.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// PostRepository persists blog posts.
// CreatePost and UpdatePost return apperror.ErrDuplicateTitle on a title clash.
// DeletePost removes the post's comments in the same transaction.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.BlogPost) error
	GetPost(ctx context.Context, id int64) (*model.BlogPost, error)
	ListPosts(ctx context.Context) ([]model.BlogPost, error)
	UpdatePost(ctx context.Context, post *model.BlogPost) error
	DeletePost(ctx context.Context, id int64) error
}

// CommentRepository persists comments. There is no update or delete:
// comments only disappear together with their post.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListCommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error)
}
