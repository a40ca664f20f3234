package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"pronounapi/internal/account"
	"pronounapi/internal/identity"
	"pronounapi/internal/platform/middleware"
	dErrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/httputil"
)

type usersHandler struct {
	accounts *account.Service
}

func newUsersHandler(accounts *account.Service) *usersHandler {
	return &usersHandler{accounts: accounts}
}

type userView struct {
	ID                   int64    `json:"id"`
	Discord              *string  `json:"discord"`
	GitHub               *string  `json:"github"`
	Minecraft            *string  `json:"minecraft"`
	PreferredPronounID   string   `json:"preferredPronounId"`
	ExtraPronounIDs      []string `json:"extraPronounIds"`
	RandomizeSubVariants bool     `json:"randomizedSubpronouns"`
}

func viewOf(ident *identity.Identity) userView {
	extras := ident.ExtraPronounIDs
	if extras == nil {
		extras = []string{}
	}
	return userView{
		ID:                   ident.ID,
		Discord:              ident.Discord,
		GitHub:               ident.GitHub,
		Minecraft:            ident.Minecraft,
		PreferredPronounID:   ident.PreferredPronounID,
		ExtraPronounIDs:      extras,
		RandomizeSubVariants: ident.RandomizeSubVariants,
	}
}

// login exchanges a proof token for a session token, registering the account
// on first login.
func (h *usersHandler) login(w http.ResponseWriter, r *http.Request) {
	proof, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || proof == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "You must provide a token"))
		return
	}

	sessionToken, err := h.accounts.Login(r.Context(), proof)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: sessionToken})
}

func (h *usersHandler) me(w http.ResponseWriter, r *http.Request) {
	identityID, _ := middleware.GetIdentityID(r.Context())
	ident, err := h.accounts.Get(r.Context(), identityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viewOf(ident))
}

type updateUserRequest struct {
	PreferredPronounID   *string   `json:"preferredPronounId"`
	ExtraPronounIDs      *[]string `json:"extraPronounIds"`
	RandomizeSubVariants *bool     `json:"randomizedSubpronouns"`

	DiscordToken   *string `json:"discordToken"`
	GitHubToken    *string `json:"githubToken"`
	MinecraftToken *string `json:"minecraftToken"`
}

// update applies pronoun preference changes and links any platform accounts
// whose proof tokens were supplied, in one request.
func (h *usersHandler) update(w http.ResponseWriter, r *http.Request) {
	identityID, _ := middleware.GetIdentityID(r.Context())

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Invalid request body"))
		return
	}

	links := []struct {
		platform identity.Platform
		proof    *string
	}{
		{identity.PlatformDiscord, req.DiscordToken},
		{identity.PlatformGitHub, req.GitHubToken},
		{identity.PlatformMinecraft, req.MinecraftToken},
	}
	for _, link := range links {
		if link.proof == nil {
			continue
		}
		if err := h.accounts.Link(r.Context(), identityID, link.platform, *link.proof); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	ident, err := h.accounts.UpdatePreferences(r.Context(), identityID, account.Preferences{
		PreferredPronounID:   req.PreferredPronounID,
		ExtraPronounIDs:      req.ExtraPronounIDs,
		RandomizeSubVariants: req.RandomizeSubVariants,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, viewOf(ident))
}

func (h *usersHandler) remove(w http.ResponseWriter, r *http.Request) {
	identityID, _ := middleware.GetIdentityID(r.Context())
	if err := h.accounts.Delete(r.Context(), identityID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
