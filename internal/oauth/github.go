package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pronounapi/internal/identity"
	"pronounapi/internal/platform/config"
	domainerrors "pronounapi/pkg/domain-errors"
)

const (
	defaultGitHubOAuthURL = "https://github.com"
	defaultGitHubAPIURL   = "https://api.github.com"
)

// GitHub exchanges codes against the GitHub OAuth API.
type GitHub struct {
	cfg        config.OAuthProvider
	oauthURL   string
	apiURL     string
	httpClient *http.Client
}

type GitHubOption func(*GitHub)

// WithGitHubURLs points the provider at different bases, for tests.
func WithGitHubURLs(oauthURL, apiURL string) GitHubOption {
	return func(g *GitHub) {
		g.oauthURL = oauthURL
		g.apiURL = apiURL
	}
}

func NewGitHub(cfg config.OAuthProvider, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		cfg:        cfg,
		oauthURL:   defaultGitHubOAuthURL,
		apiURL:     defaultGitHubAPIURL,
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GitHub) Platform() identity.Platform {
	return identity.PlatformGitHub
}

func (g *GitHub) Exchange(ctx context.Context, code string) (*Account, error) {
	form := url.Values{}
	form.Set("client_id", g.cfg.ClientID)
	form.Set("client_secret", g.cfg.ClientSecret)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.oauthURL+"/login/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build github token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "GitHub token exchange failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.Newf(domainerrors.CodeUpstream,
			"GitHub token exchange returned %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "GitHub token exchange failed")
	}
	if tokenResp.AccessToken == "" {
		// GitHub reports a bad code as 200 with an error body.
		return nil, domainerrors.New(domainerrors.CodeUpstream, "GitHub token exchange failed")
	}

	return g.fetchUser(ctx, tokenResp.AccessToken)
}

func (g *GitHub) fetchUser(ctx context.Context, accessToken string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build github user request: %w", err)
	}
	req.Header.Set("Authorization", "token "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "GitHub profile fetch failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.Newf(domainerrors.CodeUpstream,
			"GitHub profile fetch returned %d", resp.StatusCode)
	}

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "GitHub profile fetch failed")
	}
	return &Account{ExternalID: strconv.FormatInt(user.ID, 10), Username: user.Login}, nil
}
