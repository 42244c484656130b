package userservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/devlog/internal/common"
)

func newUserModel(db *sql.DB) *UserModel {
	return &UserModel{db: db}
}

// upsertUser stores the profile reported at login. The admin flag is recomputed on every login.
func (m *UserModel) upsertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, name, email, image, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, image = EXCLUDED.image, is_admin = EXCLUDED.is_admin
		RETURNING created_at`

	return m.db.QueryRowContext(ctx, query, u.ID, u.Name, u.Email, u.Image, u.IsAdmin).Scan(&u.CreatedAt)
}

func (m *UserModel) getUserByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, COALESCE(name, ''), email, COALESCE(image, ''), is_admin, created_at
		FROM users
		WHERE id = $1`

	var u User
	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}
