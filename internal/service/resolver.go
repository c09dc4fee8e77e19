package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/chatgrid/realtime-api/internal/adapters/token"
	"github.com/chatgrid/realtime-api/internal/domain/identity"
	"github.com/chatgrid/realtime-api/internal/ports"
)

// bffUsernameFallback is attached when a BFF identity carries no email.
const bffUsernameFallback = "bff-user"

// Credentials carries the raw credential material of one request or
// connection. Empty fields simply mean "this credential was not presented".
type Credentials struct {
	AuthorizationHeader string
	CookieHeader        string

	// Visitor session id sources, in priority order.
	SessionID     string
	SessionHeader string
	SessionCookie string
}

// ResolverOptions groups dependencies for Resolver.
type ResolverOptions struct {
	Tokens ports.TokenVerifier
	// Bff is optional; when nil the BFF step is skipped.
	Bff ports.BffVerifier
	// Sessions is optional; when nil the visitor-session step is skipped
	// (connection contexts have no session store wired).
	Sessions ports.SessionValidator
	Logger   *slog.Logger
}

// Resolver composes the three credential strategies into an ordered,
// first-success-wins ladder: bearer token, then BFF cookies, then visitor
// session. Each step is attempted only if the previous did not produce an
// identity, and a failure inside one step never stops the next from running.
type Resolver struct {
	tokens   ports.TokenVerifier
	bff      ports.BffVerifier
	sessions ports.SessionValidator
	logger   *slog.Logger
}

// NewResolver constructs a new Resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		tokens:   opts.Tokens,
		bff:      opts.Bff,
		sessions: opts.Sessions,
		logger:   logger,
	}
}

// Resolve runs the ladder and returns the resolved identity, or nil when no
// credential resolved. There is no error return: the mandatory/optional
// distinction is the caller's terminal behavior, not the ladder's. No
// partial identity is ever produced.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) *identity.Identity {
	steps := []func(context.Context, Credentials) *identity.Identity{
		r.bearerStep,
		r.bffStep,
		r.sessionStep,
	}
	for _, step := range steps {
		if id := step(ctx, creds); id != nil {
			return id
		}
	}
	return nil
}

// bearerStep verifies the authorization header as a platform bearer token.
// Verification errors are swallowed here: the step just did not resolve.
func (r *Resolver) bearerStep(ctx context.Context, creds Credentials) *identity.Identity {
	if r.tokens == nil {
		return nil
	}
	raw, ok := bearerToken(creds.AuthorizationHeader)
	if !ok {
		return nil
	}

	payload, err := r.tokens.Verify(ctx, raw)
	if err != nil {
		r.logger.DebugContext(ctx, "bearer token did not resolve", "error", err)
		return nil
	}
	if payload.TokenType != token.TokenTypeAccess {
		return nil
	}

	return &identity.Identity{
		ID:        payload.Subject,
		Roles:     payload.Roles,
		Username:  payload.Username,
		Email:     payload.Email,
		CompanyID: payload.CompanyID,
	}
}

// bffStep tries each candidate BFF session cookie in scan order and stops at
// the first that validates.
func (r *Resolver) bffStep(ctx context.Context, creds Credentials) *identity.Identity {
	if r.bff == nil {
		return nil
	}

	for _, candidate := range r.bff.ExtractCandidates(creds.CookieHeader) {
		info, err := r.bff.Validate(ctx, candidate)
		if err != nil {
			r.logger.DebugContext(ctx, "bff candidate did not resolve", "error", err)
			continue
		}
		if info == nil {
			continue
		}
		return &identity.Identity{
			ID:       info.Subject,
			Roles:    info.Roles,
			Username: bffUsername(info.Email),
			Email:    info.Email,
		}
	}
	return nil
}

// sessionStep validates the visitor session id, when a session store is wired.
func (r *Resolver) sessionStep(ctx context.Context, creds Credentials) *identity.Identity {
	if r.sessions == nil {
		return nil
	}

	candidate := ResolveSessionCandidate(creds.SessionID, creds.SessionHeader, creds.SessionCookie)
	if candidate == "" {
		return nil
	}

	info, err := r.sessions.Validate(ctx, candidate)
	if err != nil {
		r.logger.DebugContext(ctx, "visitor session did not resolve", "error", err)
		return nil
	}
	if info == nil {
		return nil
	}

	// Visitor identities start anonymous: fixed role, no profile fields.
	return &identity.Identity{
		ID:        info.VisitorID,
		Roles:     []string{identity.RoleVisitor},
		CompanyID: info.TenantID,
	}
}

// bearerToken extracts the token from an authorization header, requiring the
// Bearer scheme.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	return rest, rest != ""
}

// bffUsername derives a display username from the email local part, falling
// back to a fixed placeholder when no email is present.
func bffUsername(email string) string {
	if email == "" {
		return bffUsernameFallback
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return bffUsernameFallback
}
