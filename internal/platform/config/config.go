package config

import (
	"os"
	"time"
)

// CompatTimeout bounds every outbound call to the upstream pronoun registry
// and to OAuth providers. The upstream services publish no SLOs; 5s is a
// conservative default.
var CompatTimeout = 5 * time.Second

// OAuthProvider holds the credentials for one OAuth-style provider exchange.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string

	// JWTSigningKey signs both proof and user tokens. Injected here rather
	// than generated at startup so environments can rotate it and tests can
	// pin it.
	JWTSigningKey string
	JWTIssuer     string

	Discord OAuthProvider
	GitHub  OAuthProvider

	// MinecraftOAuthURL is the mc-oauth token validation endpoint.
	MinecraftOAuthURL string

	// CompatBaseURL is the upstream pronoun registry used as lookup fallback.
	CompatBaseURL string

	RateLimitDisabled bool
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("PRONOUNAPI_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		// Development default, must be overridden in production.
		signingKey = "dev-secret-key-change-in-production"
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "pronounapi"
	}

	compatBase := os.Getenv("PRONOUNDB_URL")
	if compatBase == "" {
		compatBase = "https://pronoundb.org"
	}

	mcOAuth := os.Getenv("MC_OAUTH_URL")
	if mcOAuth == "" {
		mcOAuth = "https://mc-oauth.net"
	}

	return Config{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: signingKey,
		JWTIssuer:     issuer,
		Discord: OAuthProvider{
			ClientID:     os.Getenv("DISCORD_CLIENT_ID"),
			ClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("DISCORD_REDIRECT_URI"),
		},
		GitHub: OAuthProvider{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("GITHUB_REDIRECT_URI"),
		},
		MinecraftOAuthURL: mcOAuth,
		CompatBaseURL:     compatBase,
		RateLimitDisabled: os.Getenv("RATE_LIMIT_DISABLED") == "true",
	}
}
