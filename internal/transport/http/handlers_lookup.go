package http

import (
	"errors"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"pronounapi/internal/compat"
	"pronounapi/internal/resolve"
	dErrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/httputil"
)

// lookupPlatforms are the platforms a lookup may name. Most resolve through
// the upstream registry; only the primary platform has local identities.
var lookupPlatforms = []string{"discord", "facebook", "github", "twitch", "twitter"}

type lookupHandler struct {
	resolver *resolve.Service
}

func newLookupHandler(resolver *resolve.Service) *lookupHandler {
	return &lookupHandler{resolver: resolver}
}

func (h *lookupHandler) Register(r chi.Router) {
	r.Get("/lookup", h.lookup)
}

func (h *lookupHandler) lookup(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	externalID := r.URL.Query().Get("id")

	if !govalidator.IsIn(platform, lookupPlatforms...) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Invalid platform"))
		return
	}
	if externalID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Id was not provided"))
		return
	}

	profile, err := h.resolver.Resolve(r.Context(), platform, externalID)
	if err != nil {
		// Upstream registry failures relay the upstream's status and body
		// verbatim so clients see what the registry said.
		var upstream *compat.UpstreamError
		if errors.As(err, &upstream) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(upstream.StatusCode)
			_, _ = w.Write(upstream.Body)
			return
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}
