package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sushihentaime/devlog/internal/common"
)

func newCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
}

// insert stores the comment and returns the title of the post it belongs to.
func (m *CommentModel) insert(ctx context.Context, c *Comment, hash []byte) (string, error) {
	query := `
		INSERT INTO comments (post_id, user_id, author_name, content, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at, (SELECT title FROM posts WHERE id = $1)`

	var title string
	err := m.db.QueryRowContext(ctx, query, c.PostID, c.UserID, c.AuthorName, c.Content, hash).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &title)
	if err != nil {
		switch {
		case common.ForeignKeyError(err, "comments_post_id_fkey"):
			return "", common.ErrRecordNotFound
		default:
			return "", err
		}
	}

	return title, nil
}

func (m *CommentModel) getCommentsByPostID(ctx context.Context, postID int) ([]Comment, error) {
	query := `
		SELECT id, post_id, user_id, author_name, content, created_at, updated_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := m.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.AuthorName, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// getSecretHash returns the stored password hash of a comment.
func (m *CommentModel) getSecretHash(ctx context.Context, id int) ([]byte, error) {
	var hash []byte
	err := m.db.QueryRowContext(ctx, `SELECT password_hash FROM comments WHERE id = $1`, id).Scan(&hash)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return hash, nil
}

func (m *CommentModel) update(ctx context.Context, id int, content string) (*Comment, error) {
	query := `
		UPDATE comments
		SET content = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, post_id, user_id, author_name, content, created_at, updated_at`

	var c Comment
	err := m.db.QueryRowContext(ctx, query, content, id).Scan(&c.ID, &c.PostID, &c.UserID, &c.AuthorName, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

func (m *CommentModel) delete(ctx context.Context, id int) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
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
