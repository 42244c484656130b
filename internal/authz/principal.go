// Package authz decides whether a caller may mutate posts or comments.
package authz

import "github.com/sushihentaime/devlog/internal/common"

// Principal is the resolved caller of a request. The zero value is the anonymous caller.
type Principal struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

var Anonymous = Principal{}

func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

// DisplayName is the name stored as a post or comment author.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// RequireAdmin is the admin gate in front of every post mutation.
func RequireAdmin(p Principal) error {
	switch {
	case p.IsAnonymous():
		return common.ErrUnauthenticated
	case !p.IsAdmin:
		return common.ErrForbidden
	default:
		return nil
	}
}
