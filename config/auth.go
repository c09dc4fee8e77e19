package config

import (
	"fmt"
	"strings"
	"time"
)

// KeyCachePolicy selects how fetched visitor signing keys are cached.
type KeyCachePolicy string

const (
	// KeyCacheNone refetches the key set on every verification.
	KeyCacheNone KeyCachePolicy = "none"
	// KeyCacheMemoize fetches once and keeps the result for the process
	// lifetime.
	KeyCacheMemoize KeyCachePolicy = "memoize"
	// KeyCacheTTL keeps the key set in the shared cache for a bounded time.
	KeyCacheTTL KeyCachePolicy = "ttl"
)

// UnmarshalText implements encoding.TextUnmarshaler for KeyCachePolicy.
func (p *KeyCachePolicy) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "none", "memoize", "ttl":
		*p = KeyCachePolicy(v)
		return nil
	default:
		return fmt.Errorf("invalid KeyCachePolicy: %q (valid options: none, memoize, ttl)", v)
	}
}

// TokenConfig controls bearer token verification.
type TokenConfig struct {
	// Secret is the shared HMAC secret for non-visitor tokens.
	Secret string `env:"SECRET,required"`

	// VisitorJWKSURL serves the key set used to verify visitor tokens.
	VisitorJWKSURL string `env:"VISITOR_JWKS_URL,required"`

	// VisitorKeyCache selects the caching policy for visitor signing keys.
	VisitorKeyCache KeyCachePolicy `env:"VISITOR_KEY_CACHE" envDefault:"none"`

	// VisitorKeyCacheTTL bounds cached visitor keys when the policy is ttl.
	VisitorKeyCacheTTL time.Duration `env:"VISITOR_KEY_CACHE_TTL" envDefault:"10m"`
}

// BffConfig controls validation of identity-provider session cookies.
// When neither Issuer nor JWKSURL is set the cookie path is disabled.
type BffConfig struct {
	// Issuer is the identity provider realm URL. The key set URL is
	// derived from it when JWKSURL is not set explicitly.
	Issuer string `env:"ISSUER"`

	// JWKSURL overrides the derived key set URL.
	JWKSURL string `env:"JWKS_URL"`

	// Audience is the audience claim expected on session tokens.
	Audience string `env:"AUDIENCE" envDefault:"account"`
}

// Enabled reports whether a trust anchor is configured for the cookie path.
func (b *BffConfig) Enabled() bool {
	return b.Issuer != "" || b.JWKSURL != ""
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Token TokenConfig `envPrefix:"TOKEN_"`
	Bff   BffConfig   `envPrefix:"BFF_"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	a.Token.VisitorJWKSURL = strings.TrimSpace(a.Token.VisitorJWKSURL)
	if a.Token.VisitorKeyCache == "" {
		a.Token.VisitorKeyCache = KeyCacheNone
	}
	if a.Token.VisitorKeyCacheTTL <= 0 {
		a.Token.VisitorKeyCacheTTL = 10 * time.Minute
	}

	a.Bff.Issuer = strings.TrimSpace(strings.TrimSuffix(a.Bff.Issuer, "/"))
	a.Bff.JWKSURL = strings.TrimSpace(a.Bff.JWKSURL)
	if a.Bff.Audience == "" {
		a.Bff.Audience = "account"
	}
}
