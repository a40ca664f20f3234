package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"pronounapi/internal/account"
	"pronounapi/internal/compat"
	identitystore "pronounapi/internal/identity/store"
	"pronounapi/internal/oauth"
	"pronounapi/internal/platform/config"
	"pronounapi/internal/platform/httpserver"
	"pronounapi/internal/platform/logger"
	"pronounapi/internal/platform/metrics"
	"pronounapi/internal/platform/redis"
	"pronounapi/internal/pronoun"
	pronounservice "pronounapi/internal/pronoun/service"
	pronounstore "pronounapi/internal/pronoun/store"
	"pronounapi/internal/ratelimit"
	"pronounapi/internal/resolve"
	"pronounapi/internal/token"
	transporthttp "pronounapi/internal/transport/http"
	"pronounapi/pkg/platform/audit/publisher"
	auditstore "pronounapi/pkg/platform/audit/store"
)

const (
	createLimit  = 3
	createWindow = 10 * time.Second
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		identities identitystore.Store
		pronouns   pronounstore.Store
		audits     auditstore.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}

		identityPG := identitystore.NewPostgres(db)
		pronounPG := pronounstore.NewPostgres(db)
		auditPG := auditstore.NewPostgres(db)
		for _, ensure := range []func(context.Context) error{
			identityPG.EnsureSchema, pronounPG.EnsureSchema, auditPG.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				log.Error("ensure schema", "error", err)
				os.Exit(1)
			}
		}
		identities, pronouns, audits = identityPG, pronounPG, auditPG
		log.Info("using postgres storage")
	} else {
		identities = identitystore.NewInMemoryStore()
		pronouns = pronounstore.NewInMemoryStore()
		audits = auditstore.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	if err := pronouns.Seed(ctx, pronoun.Builtins()); err != nil {
		log.Error("seed pronoun catalog", "error", err)
		os.Exit(1)
	}

	var limiter ratelimit.Limiter = ratelimit.NewInMemoryLimiter(createLimit, createWindow)
	if cfg.RateLimitDisabled {
		limiter = ratelimit.Unlimited{}
		log.Warn("rate limiting disabled")
	} else if cfg.RedisURL != "" {
		redisClient, err := redis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient.Client, createLimit, createWindow)
		log.Info("using redis rate limiting")
	}

	m := metrics.New()
	auditPub := publisher.New(audits, log, publisher.WithAsyncBuffer(256))
	defer auditPub.Close()

	tokens := token.NewService([]byte(cfg.JWTSigningKey), cfg.JWTIssuer)

	handler := transporthttp.NewRouter(transporthttp.Dependencies{
		Logger: log,
		Tokens: tokens,
		Accounts: account.NewService(identities, pronouns, tokens,
			account.WithAudit(auditPub), account.WithMetrics(m)),
		Pronouns: pronounservice.NewService(pronouns, identities, limiter,
			pronounservice.WithAudit(auditPub), pronounservice.WithMetrics(m)),
		Resolver: resolve.NewService(identities, pronouns,
			compat.NewClient(cfg.CompatBaseURL), resolve.WithMetrics(m)),
		Providers: []oauth.Provider{
			oauth.NewDiscord(cfg.Discord),
			oauth.NewGitHub(cfg.GitHub),
			oauth.NewMinecraft(cfg.MinecraftOAuthURL),
		},
	})

	srv := httpserver.New(cfg.Addr, handler)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
