package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/chatgrid/realtime-api/config"
	"github.com/chatgrid/realtime-api/internal/adapters/bff"
	"github.com/chatgrid/realtime-api/internal/adapters/keyset"
	"github.com/chatgrid/realtime-api/internal/adapters/token"
	"github.com/chatgrid/realtime-api/internal/data"
	"github.com/chatgrid/realtime-api/internal/ports"
	"github.com/chatgrid/realtime-api/internal/service"
)

// AuthDeps groups dependencies for BuildAuth.
type AuthDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// AuthContainer holds the assembled identity resolution stack.
type AuthContainer struct {
	Tokens   ports.TokenVerifier
	Bff      ports.BffVerifier
	Sessions ports.SessionValidator
	Resolver *service.Resolver
}

// BuildAuth constructs the token verifier, BFF verifier, visitor session
// service, and the resolver that composes them.
func BuildAuth(deps AuthDeps) (*AuthContainer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config.Auth

	visitorKeys, err := buildVisitorKeySource(cfg.Token, deps.RedisClient)
	if err != nil {
		return nil, fmt.Errorf("build visitor key source: %w", err)
	}

	tokens, err := token.NewVerifier(token.Config{
		Secret:      cfg.Token.Secret,
		VisitorKeys: visitorKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("build token verifier: %w", err)
	}

	var bffVerifier ports.BffVerifier
	if cfg.Bff.Enabled() {
		v, err := bff.NewVerifier(bff.Config{
			Issuer:    cfg.Bff.Issuer,
			KeySetURL: cfg.Bff.JWKSURL,
			Audience:  cfg.Bff.Audience,
		})
		if err != nil {
			return nil, fmt.Errorf("build bff verifier: %w", err)
		}
		bffVerifier = v
	} else {
		logger.Info("bff cookie path disabled: no issuer or key set configured")
	}

	sessions := service.NewVisitorSessionService(service.VisitorSessionServiceOptions{
		Visitors: data.NewVisitorRepo(deps.DB),
		Logger:   logger,
	})

	resolver := service.NewResolver(service.ResolverOptions{
		Tokens:   tokens,
		Bff:      bffVerifier,
		Sessions: sessions,
		Logger:   logger,
	})

	return &AuthContainer{
		Tokens:   tokens,
		Bff:      bffVerifier,
		Sessions: sessions,
		Resolver: resolver,
	}, nil
}

// buildVisitorKeySource maps the configured caching policy onto a key set
// source. The default policy refetches on every verification.
func buildVisitorKeySource(cfg config.TokenConfig, redisClient redis.UniversalClient) (keyset.Source, error) {
	sc := keyset.SourceConfig{
		URL:    cfg.VisitorJWKSURL,
		Policy: keyset.Policy(cfg.VisitorKeyCache),
	}
	if sc.Policy == keyset.PolicyTTL {
		if redisClient == nil {
			return nil, fmt.Errorf("visitor key cache policy %q requires redis", cfg.VisitorKeyCache)
		}
		sc.Cache = data.NewRedisCacheRepo(redisClient)
		sc.TTL = cfg.VisitorKeyCacheTTL
	}
	return keyset.NewSource(sc)
}
