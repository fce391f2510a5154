// Package seed fills a database with demo content: the admin account, a few
// readers, posts and comments. It goes through the services, so every rule the
// web app enforces (password hashing, admin-only posting, unique titles) holds
// for seeded data too.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/service"
)

// titleAttempts bounds how often a colliding fake title is regenerated.
const titleAttempts = 5

// Options controls how much content Run creates.
type Options struct {
	AdminEmail    string
	AdminName     string
	AdminPassword string

	Readers         int
	Posts           int
	CommentsPerPost int

	// RandSeed makes the generated content reproducible. Zero picks a random seed.
	RandSeed int64
}

// Result counts what Run created.
type Result struct {
	AdminID  int64
	Readers  int
	Posts    int
	Comments int
}

// Seeder writes demo content through the auth and blog services.
type Seeder struct {
	auth   *service.AuthService
	blog   *service.BlogService
	logger *slog.Logger
}

func New(authService *service.AuthService, blogService *service.BlogService, logger *slog.Logger) *Seeder {
	return &Seeder{auth: authService, blog: blogService, logger: logger}
}

// Run seeds the database.
//
// The admin account is registered, or logged into if it already exists. It
// must be user #1, otherwise nobody seeded could publish and Run fails.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	faker := gofakeit.New(opts.RandSeed)

	admin, err := s.adminCaller(ctx, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{AdminID: admin.UserID()}

	readers := make([]auth.Caller, 0, opts.Readers)
	for i := 0; i < opts.Readers; i++ {
		reader, err := s.registerReader(ctx, faker)
		if err != nil {
			return res, err
		}
		readers = append(readers, reader)
	}
	res.Readers = len(readers)

	for i := 0; i < opts.Posts; i++ {
		postID, err := s.createPost(ctx, faker, admin)
		if err != nil {
			return res, err
		}
		res.Posts++

		if len(readers) == 0 {
			continue
		}
		for j := 0; j < opts.CommentsPerPost; j++ {
			author := readers[faker.Number(0, len(readers)-1)]
			if _, err := s.blog.AddComment(ctx, author, postID, faker.Sentence(12)); err != nil {
				return res, fmt.Errorf("seed: commenting on post %d: %w", postID, err)
			}
			res.Comments++
		}
	}

	s.logger.Info("seed complete",
		slog.Int64("admin_id", res.AdminID),
		slog.Int("readers", res.Readers),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

func (s *Seeder) adminCaller(ctx context.Context, opts Options) (auth.Caller, error) {
	result, err := s.auth.Register(ctx, service.RegisterInput{
		Email:    opts.AdminEmail,
		Name:     opts.AdminName,
		Password: opts.AdminPassword,
	})
	if errors.Is(err, apperror.ErrDuplicateEmail) {
		result, err = s.auth.Login(ctx, opts.AdminEmail, opts.AdminPassword)
	}
	if err != nil {
		return auth.Anonymous, fmt.Errorf("seed: admin account %s: %w", opts.AdminEmail, err)
	}

	caller := auth.Caller{User: result.User, Session: result.Session}
	if !auth.IsAdmin(caller) {
		return auth.Anonymous, fmt.Errorf("seed: %s is user #%d, only user #%d can publish",
			opts.AdminEmail, caller.UserID(), auth.AdminUserID)
	}
	return caller, nil
}

func (s *Seeder) registerReader(ctx context.Context, faker *gofakeit.Faker) (auth.Caller, error) {
	// The UUID keeps emails unique across runs.
	email := fmt.Sprintf("%s+%s@example.com", strings.ToLower(faker.FirstName()), faker.UUID()[:8])
	result, err := s.auth.Register(ctx, service.RegisterInput{
		Email:    email,
		Name:     faker.Name(),
		Password: faker.Password(true, true, true, false, false, 12),
	})
	if err != nil {
		return auth.Anonymous, fmt.Errorf("seed: registering reader %s: %w", email, err)
	}
	return auth.Caller{User: result.User, Session: result.Session}, nil
}

func (s *Seeder) createPost(ctx context.Context, faker *gofakeit.Faker, admin auth.Caller) (int64, error) {
	for attempt := 0; attempt < titleAttempts; attempt++ {
		post, err := s.blog.CreatePost(ctx, admin, service.PostInput{
			Title:    strings.TrimSuffix(faker.Sentence(5), "."),
			Subtitle: faker.Sentence(8),
			Body:     paragraphs(faker, 3),
			ImgURL:   fmt.Sprintf("https://picsum.photos/seed/%s/1200/600", faker.UUID()),
		})
		if errors.Is(err, apperror.ErrDuplicateTitle) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("seed: creating post: %w", err)
		}
		return post.ID, nil
	}
	return 0, fmt.Errorf("seed: no unique title after %d attempts", titleAttempts)
}

// paragraphs renders n fake paragraphs as the HTML a rich-text editor would save.
func paragraphs(faker *gofakeit.Faker, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("<p>")
		b.WriteString(faker.Paragraph(1, 4, 12, " "))
		b.WriteString("</p>")
	}
	return b.String()
}
