package postservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sushihentaime/devlog/internal/common"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const postColumns = `id, title, content, excerpt, tags, is_pinned, author_id, author_name, created_at, updated_at`

func newPostModel(db *sql.DB) *PostModel {
	return &PostModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var post Post
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.Excerpt, pq.Array(&post.Tags), &post.IsPinned, &post.AuthorID, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if post.Tags == nil {
		post.Tags = []string{}
	}

	return &post, nil
}

func (m *PostModel) insert(ctx context.Context, q queryer, post *Post) error {
	query := `
		INSERT INTO posts (title, content, excerpt, tags, is_pinned, author_id, author_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	args := []any{post.Title, post.Content, post.Excerpt, pq.Array(post.Tags), post.IsPinned, post.AuthorID, post.AuthorName}

	return q.QueryRowContext(ctx, query, args...).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
}

func (m *PostModel) getPostByID(ctx context.Context, id int) (*Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return post, nil
}

// lockPost reads the post and holds a row lock until tx ends, serializing concurrent edits of the same post.
func (m *PostModel) lockPost(ctx context.Context, tx *sql.Tx, id int) (*Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 FOR UPDATE`

	post, err := scanPost(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return post, nil
}

func (m *PostModel) update(ctx context.Context, tx *sql.Tx, post *Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, excerpt = $3, tags = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING is_pinned, author_id, author_name, created_at, updated_at`

	args := []any{post.Title, post.Content, post.Excerpt, pq.Array(post.Tags), post.ID}

	err := tx.QueryRowContext(ctx, query, args...).Scan(&post.IsPinned, &post.AuthorID, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *PostModel) delete(ctx context.Context, tx *sql.Tx, id int) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return common.ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// togglePin flips the pin flag in a single statement so concurrent toggles never lose an update.
func (m *PostModel) togglePin(ctx context.Context, id int) (*Post, error) {
	query := `UPDATE posts SET is_pinned = NOT is_pinned WHERE id = $1 RETURNING ` + postColumns
	return m.updatePin(ctx, query, id)
}

func (m *PostModel) setPin(ctx context.Context, id int, pinned bool) (*Post, error) {
	query := `UPDATE posts SET is_pinned = $2 WHERE id = $1 RETURNING ` + postColumns
	return m.updatePin(ctx, query, id, pinned)
}

func (m *PostModel) updatePin(ctx context.Context, query string, args ...any) (*Post, error) {
	post, err := scanPost(m.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return post, nil
}

// getPosts lists posts pinned first, then newest first. An empty tag lists every post.
func (m *PostModel) getPosts(ctx context.Context, tag string, limit, offset int) ([]Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE ($1 = '' OR $1 = ANY(tags))
		ORDER BY is_pinned DESC, created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return m.queryPosts(ctx, query, tag, limit, offset)
}

// getPostsByTitle matches the title case-insensitively anywhere in the string.
func (m *PostModel) getPostsByTitle(ctx context.Context, title string, limit, offset int) ([]Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE title ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return m.queryPosts(ctx, query, "%"+escapeLike(title)+"%", limit, offset)
}

func (m *PostModel) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
