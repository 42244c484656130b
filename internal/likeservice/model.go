package likeservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/devlog/internal/common"
)

func newLikeModel(db *sql.DB) *LikeModel {
	return &LikeModel{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (m *LikeModel) count(ctx context.Context, q queryer, postID int) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

func (m *LikeModel) exists(ctx context.Context, postID int, id Identity) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM likes
			WHERE post_id = $1 AND user_id IS NOT DISTINCT FROM $2 AND ip_address IS NOT DISTINCT FROM $3
		)`

	var ok bool
	err := m.db.QueryRowContext(ctx, query, postID, nullable(id.UserID), nullable(id.IP)).Scan(&ok)
	return ok, err
}

func (m *LikeModel) postExists(ctx context.Context, postID int) (bool, error) {
	var ok bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&ok)
	return ok, err
}

// remove deletes the identity's like and reports whether one existed.
func (m *LikeModel) remove(ctx context.Context, tx *sql.Tx, postID int, id Identity) (bool, error) {
	query := `
		DELETE FROM likes
		WHERE post_id = $1 AND user_id IS NOT DISTINCT FROM $2 AND ip_address IS NOT DISTINCT FROM $3`

	res, err := tx.ExecContext(ctx, query, postID, nullable(id.UserID), nullable(id.IP))
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// add inserts a like. A row already present for the identity is left alone.
func (m *LikeModel) add(ctx context.Context, tx *sql.Tx, postID int, id Identity) error {
	query := `
		INSERT INTO likes (post_id, user_id, ip_address)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, COALESCE(user_id, ''), COALESCE(ip_address, '')) DO NOTHING`

	_, err := tx.ExecContext(ctx, query, postID, nullable(id.UserID), nullable(id.IP))
	if err != nil {
		switch {
		case common.ForeignKeyError(err, "likes_post_id_fkey"):
			return common.ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}
