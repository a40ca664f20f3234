// Package http wires the service layer to the chi router.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pronounapi/internal/account"
	"pronounapi/internal/identity"
	"pronounapi/internal/oauth"
	"pronounapi/internal/platform/middleware"
	pronounservice "pronounapi/internal/pronoun/service"
	"pronounapi/internal/resolve"
	"pronounapi/internal/token"
)

type Dependencies struct {
	Logger    *slog.Logger
	Tokens    *token.Service
	Accounts  *account.Service
	Pronouns  *pronounservice.Service
	Resolver  *resolve.Service
	Providers []oauth.Provider
}

// NewRouter assembles the full route tree.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))

	lookup := newLookupHandler(deps.Resolver)
	callback := newCallbackHandler(deps.Tokens, providerMap(deps.Providers))
	users := newUsersHandler(deps.Accounts)
	pronouns := newPronounsHandler(deps.Pronouns)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		lookup.Register(r)
		callback.Register(r)

		r.Post("/users/login", users.login)
		r.Get("/pronouns", pronouns.list)
		r.Get("/pronouns/{id}", pronouns.get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Tokens, deps.Logger))
			r.Get("/users/@me", users.me)
			r.Patch("/users", users.update)
			r.Delete("/users", users.remove)
			r.Post("/pronouns", pronouns.create)
			r.Delete("/pronouns", pronouns.remove)
		})
	})

	return r
}

func providerMap(providers []oauth.Provider) map[identity.Platform]oauth.Provider {
	m := make(map[identity.Platform]oauth.Provider, len(providers))
	for _, p := range providers {
		m[p.Platform()] = p
	}
	return m
}
