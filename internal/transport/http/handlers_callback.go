package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pronounapi/internal/identity"
	"pronounapi/internal/oauth"
	"pronounapi/internal/token"
	dErrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/httputil"
)

type callbackHandler struct {
	tokens    *token.Service
	providers map[identity.Platform]oauth.Provider
}

func newCallbackHandler(tokens *token.Service, providers map[identity.Platform]oauth.Provider) *callbackHandler {
	return &callbackHandler{tokens: tokens, providers: providers}
}

func (h *callbackHandler) Register(r chi.Router) {
	r.Post("/callback/{provider}", h.callback)
}

type tokenResponse struct {
	Token string `json:"token"`
}

// callback completes an OAuth flow: it exchanges the authorization code with
// the named provider and answers with a proof token for that account.
func (h *callbackHandler) callback(w http.ResponseWriter, r *http.Request) {
	platform, err := identity.ParsePlatform(chi.URLParam(r, "provider"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	provider, ok := h.providers[platform]
	if !ok {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation,
			"The %s provider is not configured", platform))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Code was not provided"))
		return
	}

	account, err := provider.Exchange(r.Context(), code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	proof, err := h.tokens.IssueProof(platform, account.ExternalID, account.Username)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: proof})
}
