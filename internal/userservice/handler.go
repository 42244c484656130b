package userservice

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/authz"
	"github.com/sushihentaime/devlog/internal/common"
)

var ErrInvalidCredentials = errors.New("invalid authentication credentials")

func NewUserService(db *sql.DB, cache common.Cache, cfg Config, logger zerolog.Logger) *UserService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	return &UserService{
		m:         newUserModel(db),
		c:         cache,
		cfg:       cfg,
		providers: NewProviders(cfg.OAuth),
		logger:    logger.With().Str("service", "user").Logger(),
	}
}

// Login checks the configured admin credentials and opens a session for the admin user.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	v := common.NewValidator()
	validateCredentials(v, username, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if s.cfg.AdminUser == "" || s.cfg.AdminPassword == "" {
		return nil, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	if !userOK || !passOK {
		s.logger.Info().Str("username", username).Msg("credential login rejected")
		return nil, ErrInvalidCredentials
	}

	email := s.cfg.AdminEmail
	if email == "" {
		email = username
	}

	user := &User{
		ID:      credentialsPrefix + username,
		Name:    username,
		Email:   email,
		IsAdmin: true,
	}
	if err := s.m.upsertUser(ctx, user); err != nil {
		return nil, err
	}

	return s.createSession(ctx, user)
}

func (s *UserService) createSession(ctx context.Context, user *User) (*Session, error) {
	token, id, expiry, err := newSessionToken([]byte(s.cfg.JWTSecret), user.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	if err := s.m.insertSession(ctx, hashToken(id), user.ID, expiry); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Bool("admin", user.IsAdmin).Msg("session created")

	return &Session{Token: token, Expiry: expiry, User: user}, nil
}

// Authenticate resolves a bearer token to the principal that owns it.
// Tokens that fail verification or whose session was revoked return ErrInvalidToken.
func (s *UserService) Authenticate(ctx context.Context, token string) (authz.Principal, error) {
	claims, err := parseSessionToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return authz.Anonymous, err
	}

	user, err := s.m.getUserBySession(ctx, hashToken(claims.ID), claims.Subject)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			return authz.Anonymous, ErrInvalidToken
		default:
			return authz.Anonymous, err
		}
	}

	return user.Principal(), nil
}

// Logout revokes the session behind token.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := parseSessionToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return err
	}

	if err := s.m.deleteSession(ctx, hashToken(claims.ID)); err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			return ErrInvalidToken
		default:
			return err
		}
	}

	return nil
}

// GetUser returns the stored profile of the principal.
func (s *UserService) GetUser(ctx context.Context, p authz.Principal) (*User, error) {
	if p.IsAnonymous() {
		return nil, common.ErrUnauthenticated
	}

	return s.m.getUserByID(ctx, p.ID)
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.m.deleteExpiredSessions(ctx)
}

func (s *UserService) provider(name string) (*Provider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// OAuthURL returns the provider's consent page URL. The state is kept in the cache until the callback.
func (s *UserService) OAuthURL(ctx context.Context, providerName string) (string, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return "", err
	}

	state, err := newOAuthState()
	if err != nil {
		return "", err
	}

	if err := s.c.Set(ctx, common.CacheKeyOAuthState(state), providerName, oauthStateTTL); err != nil {
		return "", err
	}

	return p.Config.AuthCodeURL(state), nil
}

// OAuthCallback completes the code exchange, stores the profile and opens a session.
// A user is an admin when their verified email is the configured admin email.
func (s *UserService) OAuthCallback(ctx context.Context, providerName, state, code string) (*Session, error) {
	v := common.NewValidator()
	validateOAuthCallback(v, state, code)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	key := common.CacheKeyOAuthState(state)

	var stored string
	ok, err := s.c.Get(ctx, key, &stored)
	if err != nil {
		return nil, err
	}
	if !ok || stored != providerName {
		return nil, ErrInvalidOAuthState
	}

	if err := s.c.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("could not delete oauth state")
	}

	user, err := p.fetchProfile(ctx, code)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = s.isAdminProfile(user)
	if err := s.m.upsertUser(ctx, user); err != nil {
		return nil, err
	}

	return s.createSession(ctx, user)
}

// isAdminProfile matches the verified profile email exactly against the configured admin email.
// Display names are chosen by the user and are never considered.
func (s *UserService) isAdminProfile(u *User) bool {
	admin := strings.TrimSpace(s.cfg.AdminEmail)
	if admin == "" || !u.emailVerified {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(u.Email), admin)
}
