package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/devlog/internal/common"
	"golang.org/x/oauth2"
)

func testConfig() Config {
	return Config{
		AdminUser:     "admin",
		AdminPassword: "s3cret-pass",
		AdminEmail:    "admin@example.com",
		JWTSecret:     "test-jwt-secret",
		SessionTTL:    time.Hour,
		OAuth: OAuthConfig{
			RedirectBaseURL: "http://localhost:4000",
			GitHubClientID:  "client-id",
		},
	}
}

func setupTestEnvironment(t *testing.T) (*UserService, *sql.DB, *common.MemoryCache, func()) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewMemoryCache(5*time.Minute, 10*time.Minute)

	cleanup := func() {
		_, err := db.Exec("TRUNCATE users, sessions CASCADE")
		require.NoError(t, err)
		cache.Flush()
	}

	return NewUserService(db, cache, testConfig(), zerolog.Nop()), db, cache, cleanup
}

// fakeGitHub serves the token and profile endpoints of an OAuth provider.
func fakeGitHub(t *testing.T, profile map[string]any) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "abc", "token_type": "bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestUserService(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)
	ctx := context.Background()

	t.Run("credential login", func(t *testing.T) {
		defer cleanup()

		tests := []struct {
			name     string
			username string
			password string
			wantErr  error
		}{
			{name: "valid", username: "admin", password: "s3cret-pass"},
			{name: "wrong password", username: "admin", password: "nope", wantErr: ErrInvalidCredentials},
			{name: "wrong user", username: "root", password: "s3cret-pass", wantErr: ErrInvalidCredentials},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				session, err := s.Login(ctx, tt.username, tt.password)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
					assert.Nil(t, session)
					return
				}

				require.NoError(t, err)
				assert.NotEmpty(t, session.Token)
				assert.Equal(t, "credentials:admin", session.User.ID)
				assert.True(t, session.User.IsAdmin)
				assert.Equal(t, "admin@example.com", session.User.Email)
			})
		}

		_, err := s.Login(ctx, "", "")
		assert.ErrorAs(t, err, &common.ValidationError{})
	})

	t.Run("authenticate and logout", func(t *testing.T) {
		defer cleanup()

		session, err := s.Login(ctx, "admin", "s3cret-pass")
		require.NoError(t, err)

		p, err := s.Authenticate(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, "credentials:admin", p.ID)
		assert.True(t, p.IsAdmin)

		user, err := s.GetUser(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Name)

		require.NoError(t, s.Logout(ctx, session.Token))

		_, err = s.Authenticate(ctx, session.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)

		err = s.Logout(ctx, session.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired sessions are rejected and purged", func(t *testing.T) {
		defer cleanup()

		session, err := s.Login(ctx, "admin", "s3cret-pass")
		require.NoError(t, err)

		_, err = db.Exec("UPDATE sessions SET expiry = NOW() - INTERVAL '1 minute'")
		require.NoError(t, err)

		_, err = s.Authenticate(ctx, session.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)

		n, err := s.PurgeExpiredSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("oauth login", func(t *testing.T) {
		defer cleanup()

		tests := []struct {
			name      string
			profile   map[string]any
			wantID    string
			wantAdmin bool
		}{
			{
				name:      "admin by email",
				profile:   map[string]any{"id": 7, "login": "owner", "email": "admin@example.com"},
				wantID:    "github:7",
				wantAdmin: true,
			},
			{
				name:    "reader",
				profile: map[string]any{"id": 8, "login": "reader", "name": "Reader", "email": "reader@example.com"},
				wantID:  "github:8",
			},
			{
				name:    "display name of the admin user",
				profile: map[string]any{"id": 9, "login": "admin", "name": "admin", "email": "admin@evil.example"},
				wantID:  "github:9",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := fakeGitHub(t, tt.profile)
				gh := s.providers[ProviderGitHub]
				gh.Config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"}
				gh.ProfileURL = srv.URL + "/user"

				redirect, err := s.OAuthURL(ctx, ProviderGitHub)
				require.NoError(t, err)

				u, err := url.Parse(redirect)
				require.NoError(t, err)
				state := u.Query().Get("state")
				require.NotEmpty(t, state)

				session, err := s.OAuthCallback(ctx, ProviderGitHub, state, "code")
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, session.User.ID)
				assert.Equal(t, tt.wantAdmin, session.User.IsAdmin)

				p, err := s.Authenticate(ctx, session.Token)
				require.NoError(t, err)
				assert.Equal(t, tt.wantAdmin, p.IsAdmin)

				_, err = s.OAuthCallback(ctx, ProviderGitHub, state, "code")
				assert.ErrorIs(t, err, ErrInvalidOAuthState)
			})
		}
	})

	t.Run("oauth errors", func(t *testing.T) {
		defer cleanup()

		_, err := s.OAuthURL(ctx, "myspace")
		assert.ErrorIs(t, err, ErrUnknownProvider)

		_, err = s.OAuthCallback(ctx, ProviderGitHub, "unknown-state", "code")
		assert.ErrorIs(t, err, ErrInvalidOAuthState)

		_, err = s.OAuthCallback(ctx, ProviderGitHub, "", "")
		assert.ErrorAs(t, err, &common.ValidationError{})
	})
}
