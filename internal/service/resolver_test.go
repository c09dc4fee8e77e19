package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgrid/realtime-api/internal/domain/identity"
	mockauth "github.com/chatgrid/realtime-api/internal/mocks/auth"
	"github.com/chatgrid/realtime-api/internal/ports"
)

func accessPayload(subject string, roles ...string) ports.TokenPayload {
	return ports.TokenPayload{
		Subject:   subject,
		TokenType: "access",
		Roles:     roles,
		Username:  "user-" + subject,
		Email:     subject + "@example.com",
		CompanyID: "company-1",
	}
}

func TestResolver_BearerToken(t *testing.T) {
	tokens := &mockauth.TokenVerifier{
		VerifyFunc: func(_ context.Context, token string) (ports.TokenPayload, error) {
			require.Equal(t, "good-token", token)
			return accessPayload("user-1", identity.RoleCommercial), nil
		},
	}
	r := NewResolver(ResolverOptions{Tokens: tokens})

	id := r.Resolve(context.Background(), Credentials{
		AuthorizationHeader: "Bearer good-token",
	})

	require.NotNil(t, id)
	assert.Equal(t, "user-1", id.ID)
	assert.Equal(t, []string{identity.RoleCommercial}, id.Roles)
	assert.Equal(t, "company-1", id.CompanyID)
	assert.Equal(t, 1, tokens.Calls)
}

func TestResolver_BearerPrecedesBff(t *testing.T) {
	// Both a valid bearer token and a valid BFF cookie are presented. The
	// bearer token wins and BFF validation is never invoked.
	tokens := &mockauth.TokenVerifier{
		VerifyFunc: func(context.Context, string) (ports.TokenPayload, error) {
			return accessPayload("user-1", identity.RoleCommercial), nil
		},
	}
	bff := &mockauth.BffVerifier{
		CandidatesFunc: func(string) []string { return []string{"cookie-token"} },
		ValidateFunc: func(context.Context, string) (*ports.BffUserInfo, error) {
			return &ports.BffUserInfo{Subject: "bff-user-2"}, nil
		},
	}
	r := NewResolver(ResolverOptions{Tokens: tokens, Bff: bff})

	id := r.Resolve(context.Background(), Credentials{
		AuthorizationHeader: "Bearer good-token",
		CookieHeader:        "console_session=cookie-token",
	})

	require.NotNil(t, id)
	assert.Equal(t, "user-1", id.ID)
	assert.Equal(t, 0, bff.ValidateCalls)
}

func TestResolver_FallsThroughToBff(t *testing.T) {
	tokens := &mockauth.TokenVerifier{
		VerifyFunc: func(context.Context, string) (ports.TokenPayload, error) {
			return ports.TokenPayload{}, errors.New("signature invalid")
		},
	}
	bff := &mockauth.BffVerifier{
		CandidatesFunc: func(string) []string { return []string{"bad-one", "good-one"} },
		ValidateFunc: func(_ context.Context, token string) (*ports.BffUserInfo, error) {
			if token != "good-one" {
				return nil, nil
			}
			return &ports.BffUserInfo{
				Subject: "bff-user",
				Email:   "agent@example.com",
				Roles:   []string{identity.RoleCommercial},
			}, nil
		},
	}
	r := NewResolver(ResolverOptions{Tokens: tokens, Bff: bff})

	id := r.Resolve(context.Background(), Credentials{
		AuthorizationHeader: "Bearer expired-token",
		CookieHeader:        "console_session=whatever",
	})

	require.NotNil(t, id)
	assert.Equal(t, "bff-user", id.ID)
	assert.Equal(t, "agent", id.Username)
	assert.Equal(t, 2, bff.ValidateCalls)
}

func TestResolver_BffUsernameFallback(t *testing.T) {
	bff := &mockauth.BffVerifier{
		CandidatesFunc: func(string) []string { return []string{"tok"} },
		ValidateFunc: func(context.Context, string) (*ports.BffUserInfo, error) {
			return &ports.BffUserInfo{Subject: "bff-user"}, nil
		},
	}
	r := NewResolver(ResolverOptions{Tokens: &mockauth.TokenVerifier{}, Bff: bff})

	id := r.Resolve(context.Background(), Credentials{CookieHeader: "console_session=tok"})

	require.NotNil(t, id)
	assert.Equal(t, "bff-user", id.Username)
}

func TestResolver_VisitorSession(t *testing.T) {
	sessions := &mockauth.SessionValidator{
		ValidateFunc: func(_ context.Context, sessionID string) (*ports.SessionInfo, error) {
			require.Equal(t, "sess-1", sessionID)
			return &ports.SessionInfo{
				VisitorID: "visitor-1",
				TenantID:  "tenant-1",
				SiteID:    "site-1",
				SessionID: sessionID,
			}, nil
		},
	}
	r := NewResolver(ResolverOptions{Tokens: &mockauth.TokenVerifier{}, Sessions: sessions})

	id := r.Resolve(context.Background(), Credentials{SessionID: "sess-1"})

	require.NotNil(t, id)
	assert.Equal(t, "visitor-1", id.ID)
	assert.Equal(t, []string{identity.RoleVisitor}, id.Roles)
	assert.Equal(t, "tenant-1", id.CompanyID)
	assert.Empty(t, id.Username)
	assert.Empty(t, id.Email)
}

func TestResolver_NoCredentials(t *testing.T) {
	tokens := &mockauth.TokenVerifier{}
	sessions := &mockauth.SessionValidator{}
	r := NewResolver(ResolverOptions{
		Tokens:   tokens,
		Bff:      &mockauth.BffVerifier{},
		Sessions: sessions,
	})

	id := r.Resolve(context.Background(), Credentials{})

	assert.Nil(t, id)
	assert.Equal(t, 0, tokens.Calls)
	assert.Equal(t, 0, sessions.Calls)
}

func TestResolver_WrongTokenTypeDoesNotResolve(t *testing.T) {
	tokens := &mockauth.TokenVerifier{
		VerifyFunc: func(context.Context, string) (ports.TokenPayload, error) {
			p := accessPayload("user-1", identity.RoleCommercial)
			p.TokenType = "refresh"
			return p, nil
		},
	}
	r := NewResolver(ResolverOptions{Tokens: tokens})

	assert.Nil(t, r.Resolve(context.Background(), Credentials{
		AuthorizationHeader: "Bearer refresh-token",
	}))
}

func TestResolver_NoVerifiersWired(t *testing.T) {
	r := NewResolver(ResolverOptions{})

	assert.Nil(t, r.Resolve(context.Background(), Credentials{
		AuthorizationHeader: "Bearer some-token",
		CookieHeader:        "console_session=aaa.bbb.ccc",
		SessionID:           "sess-1",
	}))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "standard", header: "Bearer abc.def.ghi", want: "abc.def.ghi", ok: true},
		{name: "case insensitive scheme", header: "bearer tok", want: "tok", ok: true},
		{name: "surrounding whitespace", header: "  Bearer tok  ", want: "tok", ok: true},
		{name: "empty header", header: "", ok: false},
		{name: "no scheme", header: "abc.def.ghi", ok: false},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", ok: false},
		{name: "scheme only", header: "Bearer ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
