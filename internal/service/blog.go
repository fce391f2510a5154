// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses forms, renders pages
//	Service (Business layer) → enforces the admin rule, stamps dates, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// GUARDS LIVE HERE TOO:
// Handlers check auth.RequireAdmin before showing a form, but every
// post-mutating method below checks it again before touching the store. The
// service is the last line: a handler that forgets its guard still cannot
// create, edit or delete a post for a non-admin.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/model"
	"github.com/sakif/portfolio-blog/internal/repository"
)

// BlogService handles posts and comments.
type BlogService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewBlogService creates a BlogService.
func NewBlogService(posts repository.PostRepository, comments repository.CommentRepository, logger *slog.Logger) *BlogService {
	return &BlogService{
		posts:    posts,
		comments: comments,
		logger:   logger,
		now:      time.Now,
	}
}

// PostInput is what the create/edit post form collects.
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

func (in PostInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return apperror.ValidationFailed("title", "title is required")
	case strings.TrimSpace(in.Subtitle) == "":
		return apperror.ValidationFailed("subtitle", "subtitle is required")
	case strings.TrimSpace(in.ImgURL) == "":
		return apperror.ValidationFailed("img_url", "image URL is required")
	case strings.TrimSpace(in.Body) == "":
		return apperror.ValidationFailed("body", "body is required")
	}
	return nil
}

// PostView is a post together with its comments, oldest first.
type PostView struct {
	Post     *model.BlogPost
	Comments []model.Comment
}

// ListPosts returns every post in insertion order.
func (s *BlogService) ListPosts(ctx context.Context) ([]model.BlogPost, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/blog: listing posts: %w", err)
	}
	return posts, nil
}

// GetPost returns a post and its comments.
// Returns apperror.ErrNotFound if the id doesn't exist.
func (s *BlogService) GetPost(ctx context.Context, id int64) (*PostView, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/blog: getting post %d: %w", id, err)
	}

	comments, err := s.comments.ListCommentsByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/blog: listing comments of post %d: %w", id, err)
	}

	return &PostView{Post: post, Comments: comments}, nil
}

// CreatePost publishes a new post authored by the admin.
//
// The display date is stamped here ("January 02, 2006") and never changes
// afterwards. A title that already exists returns apperror.ErrDuplicateTitle.
func (s *BlogService) CreatePost(ctx context.Context, caller auth.Caller, in PostInput) (*model.BlogPost, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	post := &model.BlogPost{
		Title:      in.Title,
		Subtitle:   in.Subtitle,
		Body:       in.Body,
		ImgURL:     in.ImgURL,
		Date:       s.now().Format(model.DateLayout),
		AuthorID:   caller.UserID(),
		AuthorName: caller.User.Name,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("service/blog: creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("post_id", post.ID),
		slog.String("title", post.Title),
	)
	return post, nil
}

// UpdatePost replaces the editable fields of a post. Author and date are kept.
func (s *BlogService) UpdatePost(ctx context.Context, caller auth.Caller, id int64, in PostInput) (*model.BlogPost, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/blog: getting post %d: %w", id, err)
	}

	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.Body = in.Body
	post.ImgURL = in.ImgURL

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("service/blog: updating post %d: %w", id, err)
	}

	s.logger.Info("post updated", slog.Int64("post_id", id))
	return post, nil
}

// DeletePost removes a post and, with it, all of its comments.
func (s *BlogService) DeletePost(ctx context.Context, caller auth.Caller, id int64) error {
	if err := auth.RequireAdmin(caller); err != nil {
		return err
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("service/blog: deleting post %d: %w", id, err)
	}

	s.logger.Info("post deleted", slog.Int64("post_id", id))
	return nil
}

// AddComment attaches a comment by the caller to a post.
// Anonymous callers get apperror.ErrUnauthenticated and nothing is written.
func (s *BlogService) AddComment(ctx context.Context, caller auth.Caller, postID int64, text string) (*model.Comment, error) {
	if err := auth.RequireUser(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperror.ValidationFailed("comment_text", "comment is required")
	}

	comment := &model.Comment{
		Text:        text,
		AuthorID:    caller.UserID(),
		PostID:      postID,
		AuthorName:  caller.User.Name,
		AuthorEmail: caller.User.Email,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("service/blog: adding comment to post %d: %w", postID, err)
	}

	s.logger.Info("comment added",
		slog.Int64("comment_id", comment.ID),
		slog.Int64("post_id", postID),
		slog.Int64("user_id", comment.AuthorID),
	)
	return comment, nil
}
