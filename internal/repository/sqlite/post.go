package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/model"
	"github.com/sakif/portfolio-blog/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *DB stops satisfying PostRepository, the build breaks here rather than
// at the call site in server.go.
var _ repository.PostRepository = (*DB)(nil)

// postColumns is shared by every SELECT so scanPost always sees the same order.
// The author's name comes from a JOIN; blog_posts only stores author_id.
const postColumns = `p.id, p.title, p.subtitle, p.body, p.img_url, p.date, p.author_id, u.name`

// CreatePost inserts a post and fills in post.ID.
// A title that already exists returns apperror.ErrDuplicateTitle.
func (db *DB) CreatePost(ctx context.Context, post *model.BlogPost) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO blog_posts (title, subtitle, body, img_url, date, author_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.Title,
		post.Subtitle,
		post.Body,
		post.ImgURL,
		post.Date,
		post.AuthorID,
	)
	if err != nil {
		if isUniqueViolation(err, "blog_posts.title") {
			return apperror.DuplicateTitle(post.Title)
		}
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", post.AuthorID)
		}
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	return nil
}

// GetPost retrieves a single post with its author's name.
// Returns apperror.ErrNotFound if the id doesn't exist.
func (db *DB) GetPost(ctx context.Context, id int64) (*model.BlogPost, error) {
	var p model.BlogPost
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+`
		 FROM blog_posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.id = ?`,
		id,
	).Scan(&p.ID, &p.Title, &p.Subtitle, &p.Body, &p.ImgURL, &p.Date, &p.AuthorID, &p.AuthorName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	return &p, nil
}

// ListPosts returns every post in insertion order.
//
// ORDER BY id, not date: the date column is a display string like
// "March 03, 2025" and doesn't sort chronologically.
func (db *DB) ListPosts(ctx context.Context) ([]model.BlogPost, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM blog_posts p
		 JOIN users u ON u.id = p.author_id
		 ORDER BY p.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	// CRITICAL: always close rows. With a single-connection pool a leaked
	// *sql.Rows blocks every later query.
	defer rows.Close()

	posts := []model.BlogPost{}
	for rows.Next() {
		var p model.BlogPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Body, &p.ImgURL, &p.Date, &p.AuthorID, &p.AuthorName); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// UpdatePost rewrites the editable fields of a post.
//
// author_id and date are deliberately not in the SET list: editing a post
// keeps its original author and "posted on" date.
func (db *DB) UpdatePost(ctx context.Context, post *model.BlogPost) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE blog_posts
		 SET title = ?, subtitle = ?, body = ?, img_url = ?
		 WHERE id = ?`,
		post.Title,
		post.Subtitle,
		post.Body,
		post.ImgURL,
		post.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "blog_posts.title") {
			return apperror.DuplicateTitle(post.Title)
		}
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// DeletePost removes a post and all of its comments.
//
// TRANSACTION:
// Both DELETEs run in one transaction, so a failure halfway leaves neither
// orphaned comments nor a half-deleted post. The comments DELETE is explicit
// even though the schema says ON DELETE CASCADE, so the behaviour doesn't
// depend on the foreign_keys pragma being on.
func (db *DB) DeletePost(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete of post %d: %w", id, err)
	}
	// Rollback after Commit is a no-op, so this is safe on the success path.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting comments of post %d: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of post %d: %w", id, err)
	}
	return nil
}
