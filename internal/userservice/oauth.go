package userservice

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

var (
	ErrUnknownProvider   = errors.New("unknown oauth provider")
	ErrInvalidOAuthState = errors.New("invalid or expired oauth state")
)

// Provider is an OAuth2 identity provider that exposes a profile endpoint.
type Provider struct {
	Name       string
	Config     *oauth2.Config
	ProfileURL string
	// decode maps the provider's profile document to a user without the provider prefix on the id.
	decode func(body []byte) (*User, error)
}

type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type googleProfile struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

func decodeGitHubProfile(body []byte) (*User, error) {
	var p githubProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}

	if p.ID == 0 {
		return nil, errors.New("github profile has no id")
	}

	name := p.Name
	if name == "" {
		name = p.Login
	}

	// GitHub only publishes an email on the profile once the account has verified it.
	return &User{ID: strconv.FormatInt(p.ID, 10), Name: name, Email: p.Email, Image: p.AvatarURL, emailVerified: p.Email != ""}, nil
}

func decodeGoogleProfile(body []byte) (*User, error) {
	var p googleProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}

	if p.Sub == "" {
		return nil, errors.New("google profile has no subject")
	}

	return &User{ID: p.Sub, Name: p.Name, Email: p.Email, Image: p.Picture, emailVerified: p.EmailVerified}, nil
}

// NewProviders returns the providers whose client id is configured.
func NewProviders(cfg OAuthConfig) map[string]*Provider {
	providers := make(map[string]*Provider)
	base := strings.TrimRight(cfg.RedirectBaseURL, "/")

	if cfg.GitHubClientID != "" {
		providers[ProviderGitHub] = &Provider{
			Name: ProviderGitHub,
			Config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				Endpoint:     github.Endpoint,
				RedirectURL:  base + "/v1/auth/oauth/github/callback",
				Scopes:       []string{"read:user", "user:email"},
			},
			ProfileURL: "https://api.github.com/user",
			decode:     decodeGitHubProfile,
		}
	}

	if cfg.GoogleClientID != "" {
		providers[ProviderGoogle] = &Provider{
			Name: ProviderGoogle,
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  base + "/v1/auth/oauth/google/callback",
				Scopes:       []string{"openid", "profile", "email"},
			},
			ProfileURL: "https://www.googleapis.com/oauth2/v3/userinfo",
			decode:     decodeGoogleProfile,
		}
	}

	return providers
}

func newOAuthState() (string, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes), nil
}

// fetchProfile exchanges the authorization code and reads the caller's profile.
func (p *Provider) fetchProfile(ctx context.Context, code string) (*User, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ProfileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	user, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	user.ID = p.Name + ":" + user.ID

	return user, nil
}
