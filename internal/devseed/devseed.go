// Package devseed populates a development database with visitors and
// sessions so the session resolution path can be exercised without a live
// widget. It is only invoked in dev mode.
package devseed

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/chatgrid/realtime-api/internal/data"

	apperrors "github.com/chatgrid/realtime-api/internal/errors"
)

// Fixed session ids so dev clients can authenticate without first creating
// a visitor through the API.
const (
	LiveSessionID  = "dev-session-live"
	EndedSessionID = "dev-session-ended"
)

type seedVisitor struct {
	tenantID string
	siteID   string
	sessions []seedSession
}

type seedSession struct {
	id    string
	ended bool
}

// Run seeds visitors and their sessions. It is idempotent: sessions that
// already exist are left alone.
func Run(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	repo := data.NewVisitorRepo(db)

	seeds := []seedVisitor{
		{
			tenantID: "dev-tenant",
			siteID:   "dev-site",
			sessions: []seedSession{
				{id: LiveSessionID},
				{id: EndedSessionID, ended: true},
			},
		},
		{
			tenantID: "dev-tenant",
			siteID:   "dev-site-2",
			sessions: []seedSession{
				{id: "dev-session-second-visitor"},
			},
		},
	}

	for _, seed := range seeds {
		if err := seedOne(ctx, repo, seed, logger); err != nil {
			return err
		}
	}
	return nil
}

func seedOne(ctx context.Context, repo *data.VisitorRepo, seed seedVisitor, logger *slog.Logger) error {
	// Skip the whole visitor when its first session already exists.
	if _, err := repo.FindBySessionID(ctx, seed.sessions[0].id); err == nil {
		logger.InfoContext(ctx, "dev visitor already seeded", "session_id", seed.sessions[0].id)
		return nil
	} else if !apperrors.IsNotFound(err) {
		return err
	}

	v, err := repo.CreateVisitor(ctx, seed.tenantID, seed.siteID)
	if err != nil {
		return err
	}

	for _, s := range seed.sessions {
		if _, err := repo.StartSession(ctx, v.ID, s.id); err != nil {
			return err
		}
		if s.ended {
			if err := repo.EndSession(ctx, s.id); err != nil {
				return err
			}
		}
	}

	logger.InfoContext(ctx, "seeded dev visitor",
		"visitor_id", v.ID,
		"tenant_id", seed.tenantID,
		"sessions", len(seed.sessions),
	)
	return nil
}
