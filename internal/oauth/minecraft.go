package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"pronounapi/internal/identity"
	domainerrors "pronounapi/pkg/domain-errors"
)

// Minecraft verifies mc-oauth.net session tokens. Unlike the OAuth2
// providers there is no client secret; the token itself proves control of
// the account.
type Minecraft struct {
	baseURL    string
	httpClient *http.Client
}

func NewMinecraft(baseURL string) *Minecraft {
	return &Minecraft{baseURL: baseURL, httpClient: newHTTPClient()}
}

func (m *Minecraft) Platform() identity.Platform {
	return identity.PlatformMinecraft
}

func (m *Minecraft) Exchange(ctx context.Context, code string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/api?token", nil)
	if err != nil {
		return nil, fmt.Errorf("build minecraft verify request: %w", err)
	}
	req.Header.Set("token", code)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "Minecraft token verification failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.Newf(domainerrors.CodeUpstream,
			"Minecraft token verification returned %d", resp.StatusCode)
	}

	var verifyResp struct {
		Status   string `json:"status"`
		UUID     string `json:"uuid"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUpstream, "Minecraft token verification failed")
	}
	if verifyResp.Status != "success" {
		return nil, domainerrors.New(domainerrors.CodeUpstream, "Minecraft token verification failed")
	}
	return &Account{ExternalID: verifyResp.UUID, Username: verifyResp.Username}, nil
}
