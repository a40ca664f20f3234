// Package oauth exchanges authorization codes for platform account details.
//
// Each provider wraps one platform's code exchange and profile fetch; the
// callback handler only sees the resulting Account.
package oauth

import (
	"context"
	"net/http"

	"pronounapi/internal/identity"
	"pronounapi/internal/platform/config"
)

// Account is the external account a provider resolved from an auth code.
type Account struct {
	ExternalID string
	Username   string
}

type Provider interface {
	Platform() identity.Platform

	// Exchange trades an authorization code for the account it grants. All
	// upstream failures surface as CodeUpstream domain errors.
	Exchange(ctx context.Context, code string) (*Account, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: config.CompatTimeout}
}
