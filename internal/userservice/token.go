package userservice

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sushihentaime/devlog/internal/common"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

// newSessionToken signs a token for userID. The returned id is the jti claim that the sessions table tracks.
func newSessionToken(secret []byte, userID string, ttl time.Duration) (token, id string, expiry time.Time, err error) {
	now := time.Now()
	expiry = now.Add(ttl)
	id = uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", time.Time{}, err
	}

	return token, id, expiry, nil
}

// parseSessionToken verifies signature, issuer and expiry. Any failure is reported as ErrInvalidToken.
func parseSessionToken(secret []byte, token string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func (m *UserModel) insertSession(ctx context.Context, hash []byte, userID string, expiry time.Time) error {
	query := `
		INSERT INTO sessions (hash, user_id, expiry)
		VALUES ($1, $2, $3)`

	_, err := m.db.ExecContext(ctx, query, hash, userID, expiry)
	return err
}

// getUserBySession returns the owner of a live session.
func (m *UserModel) getUserBySession(ctx context.Context, hash []byte, userID string) (*User, error) {
	query := `
		SELECT u.id, COALESCE(u.name, ''), u.email, COALESCE(u.image, ''), u.is_admin, u.created_at
		FROM users u
		INNER JOIN sessions s ON u.id = s.user_id
		WHERE s.hash = $1 AND s.user_id = $2 AND s.expiry > $3`

	var u User
	err := m.db.QueryRowContext(ctx, query, hash, userID, time.Now()).Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.IsAdmin, &u.CreatedAt)
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

func (m *UserModel) deleteSession(ctx context.Context, hash []byte) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM sessions WHERE hash = $1`, hash)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return common.ErrRecordNotFound
	}

	return nil
}

func (m *UserModel) deleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM sessions WHERE expiry <= $1`, time.Now())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
