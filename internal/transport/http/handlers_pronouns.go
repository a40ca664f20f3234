package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pronounapi/internal/platform/middleware"
	"pronounapi/internal/pronoun"
	pronounservice "pronounapi/internal/pronoun/service"
	"pronounapi/internal/ratelimit"
	dErrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/httputil"
)

type pronounsHandler struct {
	pronouns *pronounservice.Service
}

func newPronounsHandler(pronouns *pronounservice.Service) *pronounsHandler {
	return &pronounsHandler{pronouns: pronouns}
}

func (h *pronounsHandler) list(w http.ResponseWriter, r *http.Request) {
	defs, err := h.pronouns.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	wires := make([]pronoun.Wire, 0, len(defs))
	for _, def := range defs {
		wires = append(wires, def.Wire())
	}
	httputil.WriteJSON(w, http.StatusOK, wires)
}

func (h *pronounsHandler) get(w http.ResponseWriter, r *http.Request) {
	def, err := h.pronouns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, def.Wire())
}

type createPronounRequest struct {
	DisplayName string        `json:"pronoun"`
	Forms       pronoun.Forms `json:"forms"`
}

func (h *pronounsHandler) create(w http.ResponseWriter, r *http.Request) {
	identityID, _ := middleware.GetIdentityID(r.Context())

	var req createPronounRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Invalid request body"))
		return
	}

	def, res, err := h.pronouns.Create(r.Context(), identityID, pronounservice.CreateRequest{
		DisplayName: req.DisplayName,
		Forms:       req.Forms,
	})
	writeLimitHeaders(w, res)
	if err != nil {
		if res != nil && !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, def.Wire())
}

// remove deletes a user-created definition. A definition still preferred by
// someone answers 403 rather than the usual conflict status; the numeric
// error in the body is what clients dispatch on.
func (h *pronounsHandler) remove(w http.ResponseWriter, r *http.Request) {
	identityID, _ := middleware.GetIdentityID(r.Context())

	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Id was not provided"))
		return
	}

	if err := h.pronouns.Delete(r.Context(), identityID, id); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			httputil.WriteErrorStatus(w, http.StatusForbidden, err)
			return
		}
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeLimitHeaders(w http.ResponseWriter, res *ratelimit.Result) {
	if res == nil || res.Limit == 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	// Reset is epoch milliseconds.
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.UnixMilli(), 10))
}
