package token

// Package token verifies bearer credentials. Non-visitor tokens are signed
// with the process-wide shared secret; visitor tokens are signed with a
// per-key-id key published on the visitor JWKS endpoint.

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chatgrid/realtime-api/internal/adapters/keyset"
	"github.com/chatgrid/realtime-api/internal/domain/identity"
	"github.com/chatgrid/realtime-api/internal/ports"
)

// TokenTypeAccess is the only token type accepted for authentication.
const TokenTypeAccess = "access"

// claims is the payload shape carried by platform bearer tokens.
type claims struct {
	jwt.RegisteredClaims

	TokenType string   `json:"token_type"`
	Roles     []string `json:"roles"`
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	CompanyID string   `json:"company_id,omitempty"`
}

// Verifier implements ports.TokenVerifier.
type Verifier struct {
	secret      []byte
	visitorKeys keyset.Source
}

var _ ports.TokenVerifier = (*Verifier)(nil)

// Config groups parameters for NewVerifier.
type Config struct {
	// Secret signs non-visitor tokens (HS256).
	Secret string
	// VisitorKeys serves the public keys for visitor tokens (RS256).
	VisitorKeys keyset.Source
}

// NewVerifier creates a bearer token verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.VisitorKeys == nil {
		return nil, errors.New("visitor key source is required")
	}
	return &Verifier{secret: []byte(cfg.Secret), visitorKeys: cfg.VisitorKeys}, nil
}

// Verify checks the token's signature, expiry, and token type, and returns
// its payload. The key material is chosen by inspecting the unverified
// claims first: tokens carrying the visitor role must name a key id and are
// verified against the remote visitor key set, everything else against the
// shared secret.
func (v *Verifier) Verify(ctx context.Context, raw string) (ports.TokenPayload, error) {
	var zero ports.TokenPayload

	unverified, kid, err := decodeUnverified(raw)
	if err != nil {
		return zero, err
	}

	var verified *claims
	if hasRole(unverified.Roles, identity.RoleVisitor) {
		verified, err = v.verifyVisitor(ctx, raw, kid)
	} else {
		verified, err = v.verifySecret(raw)
	}
	if err != nil {
		return zero, err
	}

	if verified.TokenType != TokenTypeAccess {
		return zero, fmt.Errorf("%w: unexpected token type %q", identity.ErrMalformedToken, verified.TokenType)
	}

	return ports.TokenPayload{
		Subject:   verified.Subject,
		TokenType: verified.TokenType,
		Roles:     verified.Roles,
		Username:  verified.Username,
		Email:     verified.Email,
		CompanyID: verified.CompanyID,
	}, nil
}

// decodeUnverified decodes header and payload without checking the
// signature, to learn which trust path applies.
func decodeUnverified(raw string) (*claims, string, error) {
	parser := jwt.NewParser()
	var c claims
	tok, _, err := parser.ParseUnverified(raw, &c)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", identity.ErrMalformedToken, err)
	}

	kid, _ := tok.Header["kid"].(string)
	return &c, kid, nil
}

func (v *Verifier) verifyVisitor(ctx context.Context, raw, kid string) (*claims, error) {
	if kid == "" {
		return nil, fmt.Errorf("%w: visitor token missing key id", identity.ErrMalformedToken)
	}

	set, err := v.visitorKeys.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch visitor key set: %w", err)
	}
	pub, ok := set.Key(kid)
	if !ok {
		return nil, fmt.Errorf("%w: %q", identity.ErrUnknownSigningKey, kid)
	}

	return parseVerified(raw, pub, jwt.SigningMethodRS256.Alg())
}

func (v *Verifier) verifySecret(raw string) (*claims, error) {
	return parseVerified(raw, v.secret, jwt.SigningMethodHS256.Alg())
}

func parseVerified(raw string, key any, alg string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{alg}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", identity.ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %w", identity.ErrSignatureInvalid, err)
	}
	return &c, nil
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
