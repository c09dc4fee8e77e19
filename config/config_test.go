package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("TOKEN_VISITOR_JWKS_URL", "https://visitor.example.com/jwks.json")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, "localhost:6379", cfg.Redis.URI)
	assert.Equal(t, KeyCacheNone, cfg.Auth.Token.VisitorKeyCache)
	assert.Equal(t, 10*time.Minute, cfg.Auth.Token.VisitorKeyCacheTTL)
	assert.Equal(t, "account", cfg.Auth.Bff.Audience)
	assert.False(t, cfg.Auth.Bff.Enabled())
	assert.False(t, cfg.IsDev)
}

func TestAppConfig_DevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	cfg.Sanitize()

	assert.True(t, cfg.IsDev)
}

func TestKeyCachePolicy_UnmarshalText(t *testing.T) {
	var p KeyCachePolicy
	require.NoError(t, p.UnmarshalText([]byte("MEMOIZE")))
	assert.Equal(t, KeyCacheMemoize, p)

	assert.Error(t, p.UnmarshalText([]byte("forever")))
}

func TestAuthConfig_Sanitize(t *testing.T) {
	a := AuthConfig{
		Bff: BffConfig{Issuer: " https://idp.example.com/realms/acme/ "},
	}
	a.Sanitize()

	assert.Equal(t, "https://idp.example.com/realms/acme", a.Bff.Issuer)
	assert.True(t, a.Bff.Enabled())
	assert.Equal(t, "account", a.Bff.Audience)
	assert.Equal(t, KeyCacheNone, a.Token.VisitorKeyCache)
	assert.Equal(t, 10*time.Minute, a.Token.VisitorKeyCacheTTL)
}

func TestHTTPConfig_SanitizeClampsCompression(t *testing.T) {
	h := HTTPConfig{CompressionLevel: 42}
	h.Sanitize()
	assert.Equal(t, 9, h.CompressionLevel)

	h = HTTPConfig{CompressionLevel: -1}
	h.Sanitize()
	assert.Equal(t, 1, h.CompressionLevel)
}

func TestGatewayConfig_OriginAllowed(t *testing.T) {
	g := GatewayConfig{AllowedOrigins: []string{" https://app.example.com/ ", ""}}
	g.Sanitize()

	require.Equal(t, []string{"https://app.example.com"}, g.AllowedOrigins)
	assert.True(t, g.OriginAllowed("https://app.example.com"))
	assert.True(t, g.OriginAllowed("HTTPS://APP.EXAMPLE.COM"))
	assert.False(t, g.OriginAllowed("https://evil.example.com"))

	open := GatewayConfig{}
	assert.True(t, open.OriginAllowed("https://anything.example.com"))
}

func TestObservabilityMetrics_Sanitize(t *testing.T) {
	m := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	m.Sanitize()
	assert.False(t, m.IsEnabled())
}
