package bff

// Package bff verifies third-party session cookies issued by the external
// identity provider's front-end proxy. The cookie value is itself a signed
// token, verified against the provider's remote key set.

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	"github.com/chatgrid/realtime-api/internal/ports"
)

// DefaultAudience is the audience expected on BFF session tokens when none
// is configured.
const DefaultAudience = "account"

// sessionCookieNames are the cookie names known to carry BFF session tokens,
// in scan order. The order is part of the contract: candidates are returned
// and tried in this order.
var sessionCookieNames = []string{
	"console_session",
	"dashboard_session",
	"account_session",
}

// Verifier implements ports.BffVerifier on top of a go-oidc remote key set.
// The key set is resolved once per process and reused for every validation.
type Verifier struct {
	verifier    *gooidc.IDTokenVerifier
	cookieNames []string
}

var _ ports.BffVerifier = (*Verifier)(nil)

// Config holds configuration for the BFF verifier.
type Config struct {
	// Issuer is the identity provider realm URL. When set, token issuer
	// claims are checked against it.
	Issuer string
	// KeySetURL overrides the JWKS endpoint. Defaults to the provider
	// convention <issuer>/protocol/openid-connect/certs.
	KeySetURL string
	// Audience is the expected audience claim. Defaults to DefaultAudience.
	Audience string
	// HTTPClient is optional and defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewVerifier creates a BFF session verifier. At least one of Issuer or
// KeySetURL must be configured.
func NewVerifier(cfg Config) (*Verifier, error) {
	keySetURL := cfg.KeySetURL
	if keySetURL == "" {
		if cfg.Issuer == "" {
			return nil, errors.New("bff issuer or key set URL is required")
		}
		keySetURL = strings.TrimSuffix(cfg.Issuer, "/") + "/protocol/openid-connect/certs"
	}

	audience := cfg.Audience
	if audience == "" {
		audience = DefaultAudience
	}

	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = gooidc.ClientContext(ctx, cfg.HTTPClient)
	}

	// The remote key set is fetched lazily and then memoized for the life
	// of the process.
	keys := gooidc.NewRemoteKeySet(ctx, keySetURL)
	verifier := gooidc.NewVerifier(cfg.Issuer, keys, &gooidc.Config{
		ClientID:        audience,
		SkipIssuerCheck: cfg.Issuer == "",
	})

	return &Verifier{verifier: verifier, cookieNames: sessionCookieNames}, nil
}

// ExtractCandidates parses the raw Cookie header and returns the values of
// the recognized session cookie names that structurally look like signed
// tokens, in scan order. Parsing is tolerant: a value that fails to decode
// is kept raw.
func (v *Verifier) ExtractCandidates(cookieHeader string) []string {
	if cookieHeader == "" {
		return nil
	}

	cookies := parseCookieHeader(cookieHeader)
	var out []string
	for _, name := range v.cookieNames {
		val, ok := cookies[name]
		if !ok {
			continue
		}
		if looksLikeSignedToken(val) {
			out = append(out, val)
		}
	}
	return out
}

// Validate verifies a candidate token against the remote key set, checking
// audience and, when configured, issuer. Any verification failure returns
// (nil, nil): BFF validation is soft-fail so the resolution ladder can move
// on to the next credential.
func (v *Verifier) Validate(ctx context.Context, raw string) (*ports.BffUserInfo, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, nil
	}

	var cl struct {
		Email       string `json:"email"`
		RealmAccess struct {
			Roles []string `json:"roles"`
		} `json:"realm_access"`
	}
	if err := idToken.Claims(&cl); err != nil {
		return nil, nil
	}

	roles := cl.RealmAccess.Roles
	if roles == nil {
		roles = []string{}
	}

	return &ports.BffUserInfo{
		Subject: idToken.Subject,
		Email:   cl.Email,
		Roles:   roles,
	}, nil
}

// parseCookieHeader splits a Cookie header into a name→value map without
// rejecting the whole header on a single bad pair.
func parseCookieHeader(header string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		val = strings.Trim(val, `"`)
		if decoded, err := url.QueryUnescape(val); err == nil {
			val = decoded
		}
		out[name] = val
	}
	return out
}

// looksLikeSignedToken is the cheap structural pre-filter applied before any
// signature work: three non-empty dot-separated segments.
func looksLikeSignedToken(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
