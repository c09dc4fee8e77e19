package ports

// Package ports defines interfaces (hexagonal ports) for identity resolution.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.

import (
	"context"
)

// TokenPayload carries the claims of a verified bearer token.
type TokenPayload struct {
	Subject   string   `json:"sub"`
	TokenType string   `json:"token_type"`
	Roles     []string `json:"roles"`
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	CompanyID string   `json:"company_id,omitempty"`
}

// TokenVerifier verifies a single bearer credential against either the
// shared secret or a per-key-id public key fetched remotely.
//
// Verify is hard-fail: any problem with the credential is returned as an
// error (callers are expected to treat every kind as "invalid credential").
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (TokenPayload, error)
}

// BffUserInfo is the subset of claims extracted from a verified BFF session token.
type BffUserInfo struct {
	Subject string
	Email   string
	Roles   []string
}

// BffVerifier extracts and verifies third-party session cookies.
//
// Validate is soft-fail by contract: verification failures return (nil, nil),
// never an error. Only infrastructure-level surprises may surface as errors,
// and callers still treat those as "did not resolve".
type BffVerifier interface {
	// ExtractCandidates parses a raw Cookie header and returns the values of
	// the recognized cookie names that structurally look like signed tokens,
	// in the order the names are scanned.
	ExtractCandidates(cookieHeader string) []string

	Validate(ctx context.Context, token string) (*BffUserInfo, error)
}

// SessionInfo describes a validated visitor session.
type SessionInfo struct {
	VisitorID string
	TenantID  string
	SiteID    string
	SessionID string
}

// SessionValidator resolves a visitor session id against the stored
// visitor aggregate. A session id that exists in storage but has ended
// yields (nil, nil).
type SessionValidator interface {
	Validate(ctx context.Context, sessionID string) (*SessionInfo, error)
}
