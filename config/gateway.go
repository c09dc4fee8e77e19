package config

import "strings"

// GatewayConfig contains websocket gateway configuration.
type GatewayConfig struct {
	// AllowedOrigins restricts websocket upgrades to the listed origins.
	// Empty means any origin is accepted (browser clients in dev).
	AllowedOrigins []string `env:"GATEWAY_ALLOWED_ORIGINS" envSeparator:";"`
}

// Sanitize normalises origin entries and removes blanks.
func (g *GatewayConfig) Sanitize() {
	cleaned := g.AllowedOrigins[:0]
	for _, origin := range g.AllowedOrigins {
		origin = strings.TrimSpace(strings.TrimSuffix(origin, "/"))
		if origin != "" {
			cleaned = append(cleaned, origin)
		}
	}
	g.AllowedOrigins = cleaned
}

// OriginAllowed reports whether the given Origin header value passes the
// allow-list.
func (g *GatewayConfig) OriginAllowed(origin string) bool {
	if len(g.AllowedOrigins) == 0 {
		return true
	}
	origin = strings.TrimSuffix(origin, "/")
	for _, allowed := range g.AllowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
