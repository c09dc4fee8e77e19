package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgrid/realtime-api/internal/domain/visitor"
	mockauth "github.com/chatgrid/realtime-api/internal/mocks/auth"
)

func TestResolveSessionCandidate(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		header   string
		cookie   string
		want     string
	}{
		{name: "explicit wins", explicit: "a", header: "b", cookie: "c", want: "a"},
		{name: "header over cookie", header: "b", cookie: "c", want: "b"},
		{name: "cookie alone", cookie: "c", want: "c"},
		{name: "blank explicit skipped", explicit: "   ", header: "b", want: "b"},
		{name: "nothing", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSessionCandidate(tt.explicit, tt.header, tt.cookie))
		})
	}
}

func seededVisitorRepo(t *testing.T) *mockauth.MemoryVisitorRepo {
	t.Helper()
	now := time.Now()
	ended := now.Add(-time.Hour)
	repo := mockauth.NewMemoryVisitorRepo()
	repo.Add(&visitor.Visitor{
		ID:       "visitor-1",
		TenantID: "tenant-1",
		SiteID:   "site-1",
		Sessions: []visitor.Session{
			{ID: "live-session", StartedAt: now.Add(-time.Minute), LastActivityAt: now},
			{ID: "ended-session", StartedAt: now.Add(-2 * time.Hour), EndedAt: &ended, LastActivityAt: ended},
		},
	})
	return repo
}

func TestVisitorSessionService_Validate(t *testing.T) {
	svc := NewVisitorSessionService(VisitorSessionServiceOptions{Visitors: seededVisitorRepo(t)})

	info, err := svc.Validate(context.Background(), "live-session")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "visitor-1", info.VisitorID)
	assert.Equal(t, "tenant-1", info.TenantID)
	assert.Equal(t, "site-1", info.SiteID)
	assert.Equal(t, "live-session", info.SessionID)
}

func TestVisitorSessionService_ValidateBumpsActivity(t *testing.T) {
	repo := seededVisitorRepo(t)
	pinned := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc := NewVisitorSessionService(VisitorSessionServiceOptions{
		Visitors: repo,
		Now:      func() time.Time { return pinned },
	})

	info, err := svc.Validate(context.Background(), "live-session")
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, 1, repo.TouchCalls)
	v := repo.Visitors["live-session"]
	require.NotNil(t, v)
	assert.Equal(t, pinned, v.Sessions[0].LastActivityAt)
}

func TestVisitorSessionService_EndedSession(t *testing.T) {
	// A session present in storage but already ended does not authenticate.
	svc := NewVisitorSessionService(VisitorSessionServiceOptions{Visitors: seededVisitorRepo(t)})

	info, err := svc.Validate(context.Background(), "ended-session")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestVisitorSessionService_EndedSessionNotTouched(t *testing.T) {
	repo := seededVisitorRepo(t)
	svc := NewVisitorSessionService(VisitorSessionServiceOptions{Visitors: repo})

	_, err := svc.Validate(context.Background(), "ended-session")
	require.NoError(t, err)
	assert.Zero(t, repo.TouchCalls)
}

func TestVisitorSessionService_UnknownSession(t *testing.T) {
	svc := NewVisitorSessionService(VisitorSessionServiceOptions{Visitors: seededVisitorRepo(t)})

	info, err := svc.Validate(context.Background(), "no-such-session")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestVisitorSessionService_EmptyID(t *testing.T) {
	svc := NewVisitorSessionService(VisitorSessionServiceOptions{Visitors: mockauth.NewMemoryVisitorRepo()})

	info, err := svc.Validate(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, info)
}
