package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pronounapi/internal/identity"
	"pronounapi/internal/platform/config"
	domainerrors "pronounapi/pkg/domain-errors"
)

const defaultDiscordAPIURL = "https://discord.com/api/v8"

// Discord exchanges codes against the Discord OAuth2 API.
type Discord struct {
	cfg        config.OAuthProvider
	apiURL     string
	httpClient *http.Client
}

type DiscordOption func(*Discord)

// WithDiscordAPIURL points the provider at a different API base, for tests.
func WithDiscordAPIURL(u string) DiscordOption {
	return func(d *Discord) { d.apiURL = u }
}

func NewDiscord(cfg config.OAuthProvider, opts ...DiscordOption) *Discord {
	d := &Discord{cfg: cfg, apiURL: defaultDiscordAPIURL, httpClient: newHTTPClient()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Discord) Platform() identity.Platform {
	return identity.PlatformDiscord
}

func (d *Discord) Exchange(ctx context.Context, code string) (*Account, error) {
	form := url.Values{}
	form.Set("client_id", d.cfg.ClientID)
	form.Set("client_secret", d.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", d.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.apiURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build discord token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "Discord token exchange failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.Newf(domainerrors.CodeUpstream,
			"Discord token exchange returned %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "Discord token exchange failed")
	}

	return d.fetchUser(ctx, tokenResp.AccessToken)
}

func (d *Discord) fetchUser(ctx context.Context, accessToken string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiURL+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("build discord user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "Discord profile fetch failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.Newf(domainerrors.CodeUpstream,
			"Discord profile fetch returned %d", resp.StatusCode)
	}

	var user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "Discord profile fetch failed")
	}
	return &Account{ExternalID: user.ID, Username: user.Username}, nil
}
