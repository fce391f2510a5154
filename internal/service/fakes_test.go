package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/mail"
	"github.com/sakif/portfolio-blog/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Using fakes (not a
// mock framework) keeps tests easy to read: you can see exactly what the fake
// does. They enforce the same uniqueness rules as the SQLite schema.

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// set to a non-nil error to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.DuplicateEmail(user.Email)
		}
	}
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

type fakeBlogRepo struct {
	posts      map[int64]*model.BlogPost
	comments   map[int64]*model.Comment
	nextPostID int64
	nextCmtID  int64
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{
		posts:      make(map[int64]*model.BlogPost),
		comments:   make(map[int64]*model.Comment),
		nextPostID: 1,
		nextCmtID:  1,
	}
}

func (f *fakeBlogRepo) titleTaken(title string, exceptID int64) bool {
	for _, p := range f.posts {
		if p.Title == title && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (f *fakeBlogRepo) CreatePost(_ context.Context, post *model.BlogPost) error {
	if f.titleTaken(post.Title, 0) {
		return apperror.DuplicateTitle(post.Title)
	}
	post.ID = f.nextPostID
	f.nextPostID++
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakeBlogRepo) GetPost(_ context.Context, id int64) (*model.BlogPost, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeBlogRepo) ListPosts(context.Context) ([]model.BlogPost, error) {
	out := make([]model.BlogPost, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBlogRepo) UpdatePost(_ context.Context, post *model.BlogPost) error {
	existing, ok := f.posts[post.ID]
	if !ok {
		return apperror.NotFound("post", post.ID)
	}
	if f.titleTaken(post.Title, post.ID) {
		return apperror.DuplicateTitle(post.Title)
	}
	existing.Title = post.Title
	existing.Subtitle = post.Subtitle
	existing.Body = post.Body
	existing.ImgURL = post.ImgURL
	return nil
}

func (f *fakeBlogRepo) DeletePost(_ context.Context, id int64) error {
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	for cid, c := range f.comments {
		if c.PostID == id {
			delete(f.comments, cid)
		}
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeBlogRepo) CreateComment(_ context.Context, c *model.Comment) error {
	if _, ok := f.posts[c.PostID]; !ok {
		return apperror.NotFound("post", c.PostID)
	}
	c.ID = f.nextCmtID
	f.nextCmtID++
	copied := *c
	f.comments[c.ID] = &copied
	return nil
}

func (f *fakeBlogRepo) ListCommentsByPost(_ context.Context, postID int64) ([]model.Comment, error) {
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeMailer records what it was asked to send.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
	// block, when non-nil, holds Send until closed or ctx is done.
	block chan struct{}
}

func (m *fakeMailer) Send(ctx context.Context, msgs ...mail.Message) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msgs...)
	return nil
}

func (m *fakeMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
