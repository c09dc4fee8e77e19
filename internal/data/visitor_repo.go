package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chatgrid/realtime-api/internal/data/pgxutil"
	"github.com/chatgrid/realtime-api/internal/domain/visitor"
	"github.com/chatgrid/realtime-api/internal/ports"

	apperrors "github.com/chatgrid/realtime-api/internal/errors"
)

// ErrVisitorNotFound is returned when no visitor owns the given session id.
var ErrVisitorNotFound = errors.New("visitor not found")

// VisitorRepo provides database operations for visitor aggregates.
type VisitorRepo struct {
	DB *sql.DB
}

var _ ports.VisitorRepository = (*VisitorRepo)(nil)

// NewVisitorRepo creates a new VisitorRepo.
func NewVisitorRepo(db *sql.DB) *VisitorRepo {
	return &VisitorRepo{DB: db}
}

// FindBySessionID loads the visitor aggregate owning sessionID, including
// its full session history. Returns ErrVisitorNotFound (wrapped as a
// not-found AppError) when no visitor owns the id.
func (r *VisitorRepo) FindBySessionID(ctx context.Context, sessionID string) (*visitor.Visitor, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.Validation("session id is required")
	}

	var out visitor.Visitor
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `
			SELECT v.id, v.tenant_id, v.site_id
			FROM visitors v
			JOIN visitor_sessions s ON s.visitor_id = v.id
			WHERE s.id = $1
		`, sessionID)
		if scanErr := row.Scan(&out.ID, &out.TenantID, &out.SiteID); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return apperrors.Wrap(ErrVisitorNotFound, apperrors.ErrCodeNotFound, "visitor not found")
			}
			return apperrors.MapDBError(scanErr)
		}

		sessions, loadErr := loadSessions(ctx, conn, out.ID)
		if loadErr != nil {
			return loadErr
		}
		out.Sessions = sessions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func loadSessions(ctx context.Context, conn *pgx.Conn, visitorID string) ([]visitor.Session, error) {
	rows, err := conn.Query(ctx, `
		SELECT id, started_at, ended_at, last_activity_at
		FROM visitor_sessions
		WHERE visitor_id = $1
		ORDER BY started_at
	`, visitorID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	var sessions []visitor.Session
	for rows.Next() {
		var s visitor.Session
		if scanErr := rows.Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.LastActivityAt); scanErr != nil {
			return nil, apperrors.MapDBError(scanErr)
		}
		sessions = append(sessions, s)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.MapDBError(rowsErr)
	}
	return sessions, nil
}

// CreateVisitor inserts a visitor aggregate. Used by dev seeding and tests.
func (r *VisitorRepo) CreateVisitor(ctx context.Context, tenantID, siteID string) (*visitor.Visitor, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, apperrors.ValidationField("tenant_id", "tenant id is required")
	}
	if strings.TrimSpace(siteID) == "" {
		return nil, apperrors.ValidationField("site_id", "site id is required")
	}

	out := visitor.Visitor{TenantID: tenantID, SiteID: siteID}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `
			INSERT INTO visitors (tenant_id, site_id, created_at)
			VALUES ($1, $2, $3)
			RETURNING id
		`, tenantID, siteID, time.Now().UTC())
		if scanErr := row.Scan(&out.ID); scanErr != nil {
			return apperrors.MapDBError(scanErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// StartSession records a new active session for a visitor.
func (r *VisitorRepo) StartSession(ctx context.Context, visitorID, sessionID string) (*visitor.Session, error) {
	if strings.TrimSpace(visitorID) == "" {
		return nil, apperrors.ValidationField("visitor_id", "visitor id is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.ValidationField("session_id", "session id is required")
	}

	now := time.Now().UTC()
	out := visitor.Session{ID: sessionID, StartedAt: now, LastActivityAt: now}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO visitor_sessions (id, visitor_id, started_at, last_activity_at)
			VALUES ($1, $2, $3, $3)
		`, sessionID, visitorID, now)
		return apperrors.MapDBError(execErr)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EndSession marks a session as ended. Ending an already-ended or unknown
// session is a no-op.
func (r *VisitorRepo) EndSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperrors.ValidationField("session_id", "session id is required")
	}

	now := time.Now().UTC()
	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			UPDATE visitor_sessions SET ended_at = $2
			WHERE id = $1 AND ended_at IS NULL
		`, sessionID, now)
		return apperrors.MapDBError(execErr)
	})
}

// TouchSession bumps last_activity_at for an active session.
func (r *VisitorRepo) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperrors.ValidationField("session_id", "session id is required")
	}

	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			UPDATE visitor_sessions SET last_activity_at = $2
			WHERE id = $1 AND ended_at IS NULL
		`, sessionID, at.UTC())
		return apperrors.MapDBError(execErr)
	})
}
