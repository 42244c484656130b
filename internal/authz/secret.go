package authz

import (
	"errors"

	"github.com/sushihentaime/devlog/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const DefaultSecretCost = 10

var ErrEmptySecret = errors.New("secret must not be empty")

// HashSecret returns the bcrypt hash stored in place of a comment password.
func HashSecret(secret string, cost int) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultSecretCost
	}

	return bcrypt.GenerateFromPassword([]byte(secret), cost)
}

// VerifySecret returns common.ErrInvalidSecret unless secret hashes to hash.
func VerifySecret(hash []byte, secret string) error {
	if secret == "" {
		return ErrEmptySecret
	}

	err := bcrypt.CompareHashAndPassword(hash, []byte(secret))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return common.ErrInvalidSecret
		default:
			return err
		}
	}

	return nil
}
