package auth

// Package auth contains simple hand-written test doubles for identity ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"time"

	"github.com/chatgrid/realtime-api/internal/domain/visitor"
	"github.com/chatgrid/realtime-api/internal/ports"

	apperrors "github.com/chatgrid/realtime-api/internal/errors"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenVerifier     = (*TokenVerifier)(nil)
	_ ports.BffVerifier       = (*BffVerifier)(nil)
	_ ports.SessionValidator  = (*SessionValidator)(nil)
	_ ports.VisitorRepository = (*MemoryVisitorRepo)(nil)
)

// TokenVerifier is a scriptable double for ports.TokenVerifier.
type TokenVerifier struct {
	VerifyFunc func(ctx context.Context, token string) (ports.TokenPayload, error)

	// Calls counts Verify invocations.
	Calls int
}

func (m *TokenVerifier) Verify(ctx context.Context, token string) (ports.TokenPayload, error) {
	m.Calls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token)
	}
	return ports.TokenPayload{}, errors.New("verify not scripted")
}

// BffVerifier is a scriptable double for ports.BffVerifier.
type BffVerifier struct {
	CandidatesFunc func(cookieHeader string) []string
	ValidateFunc   func(ctx context.Context, token string) (*ports.BffUserInfo, error)

	// ValidateCalls counts Validate invocations.
	ValidateCalls int
}

func (m *BffVerifier) ExtractCandidates(cookieHeader string) []string {
	if m.CandidatesFunc != nil {
		return m.CandidatesFunc(cookieHeader)
	}
	return nil
}

func (m *BffVerifier) Validate(ctx context.Context, token string) (*ports.BffUserInfo, error) {
	m.ValidateCalls++
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token)
	}
	return nil, nil
}

// SessionValidator is a scriptable double for ports.SessionValidator.
type SessionValidator struct {
	ValidateFunc func(ctx context.Context, sessionID string) (*ports.SessionInfo, error)

	// Calls counts Validate invocations.
	Calls int
}

func (m *SessionValidator) Validate(ctx context.Context, sessionID string) (*ports.SessionInfo, error) {
	m.Calls++
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, sessionID)
	}
	return nil, nil
}

// MemoryVisitorRepo is an in-memory ports.VisitorRepository keyed by
// session id.
type MemoryVisitorRepo struct {
	// Visitors maps session id → owning aggregate.
	Visitors map[string]*visitor.Visitor

	// TouchCalls counts TouchSession invocations.
	TouchCalls int
}

// NewMemoryVisitorRepo creates an empty MemoryVisitorRepo.
func NewMemoryVisitorRepo() *MemoryVisitorRepo {
	return &MemoryVisitorRepo{Visitors: make(map[string]*visitor.Visitor)}
}

// Add registers an aggregate under every session id it carries.
func (m *MemoryVisitorRepo) Add(v *visitor.Visitor) {
	for _, s := range v.Sessions {
		m.Visitors[s.ID] = v
	}
}

func (m *MemoryVisitorRepo) FindBySessionID(_ context.Context, sessionID string) (*visitor.Visitor, error) {
	if v, ok := m.Visitors[sessionID]; ok {
		return v, nil
	}
	return nil, apperrors.NotFound("visitor not found")
}

func (m *MemoryVisitorRepo) TouchSession(_ context.Context, sessionID string, at time.Time) error {
	m.TouchCalls++
	v, ok := m.Visitors[sessionID]
	if !ok {
		return nil
	}
	for i := range v.Sessions {
		if v.Sessions[i].ID == sessionID && v.Sessions[i].EndedAt == nil {
			v.Sessions[i].LastActivityAt = at
		}
	}
	return nil
}
