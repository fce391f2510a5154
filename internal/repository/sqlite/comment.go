package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/model"
	"github.com/sakif/portfolio-blog/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

// CreateComment inserts a comment and fills in comment.ID.
// A post_id that doesn't exist fails the foreign key and comes back as
// apperror.ErrNotFound.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (text, author_id, post_id) VALUES (?, ?, ?)`,
		comment.Text,
		comment.AuthorID,
		comment.PostID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("post", comment.PostID)
		}
		return fmt.Errorf("sqlite: creating comment on post %d: %w", comment.PostID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new comment id: %w", err)
	}
	comment.ID = id
	return nil
}

// ListCommentsByPost returns a post's comments oldest first, with each
// author's name and email joined in.
func (db *DB) ListCommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.text, c.author_id, c.post_id, u.name, u.email
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = ?
		 ORDER BY c.id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments of post %d: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.AuthorName, &c.AuthorEmail); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}
