package userservice

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/authz"
	"github.com/sushihentaime/devlog/internal/common"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	oauthStateTTL     = 10 * time.Minute

	tokenIssuer = "devlog"

	// credentialsPrefix marks users that signed in with the configured admin credentials.
	credentialsPrefix = "credentials:"
)

type UserService struct {
	m         *UserModel
	c         common.Cache
	cfg       Config
	providers map[string]*Provider
	logger    zerolog.Logger
}

type UserModel struct {
	db *sql.DB
}

// Config holds the admin credentials, the session signing key and the OAuth client settings.
type Config struct {
	AdminUser     string
	AdminPassword string
	AdminEmail    string
	JWTSecret     string
	SessionTTL    time.Duration
	OAuth         OAuthConfig
}

type OAuthConfig struct {
	RedirectBaseURL    string
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`

	// emailVerified is set from the provider profile and never stored.
	emailVerified bool
}

func (u *User) Principal() authz.Principal {
	return authz.Principal{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}

// Session is returned to the client after a successful login. Only the hash of the token id is stored.
type Session struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
	User   *User     `json:"user"`
}
