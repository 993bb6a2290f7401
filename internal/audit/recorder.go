// internal/audit/recorder.go
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"activity-signup/internal/common/logger"
	"activity-signup/internal/models"

	"github.com/google/uuid"
)

const TableName = "activity_signup_events"

var (
	ErrAuditWriteFailed = errors.New("AUDIT_WRITE_FAILED")
	ErrInvalidEvent     = errors.New("INVALID_EVENT")
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS activity_signup_events (
	id            UUID PRIMARY KEY,
	action        TEXT NOT NULL,
	activity_name TEXT NOT NULL,
	email         TEXT NOT NULL,
	request_id    TEXT,
	occurred_at   TIMESTAMPTZ NOT NULL
)`

const createIndexSQL = `
CREATE INDEX IF NOT EXISTS activity_signup_events_activity_idx
	ON activity_signup_events (activity_name, occurred_at DESC)`

// Recorder persists registry mutations.
type Recorder interface {
	Record(ctx context.Context, event models.SignupEvent) error
}

// PostgresRecorder writes events into activity_signup_events.
type PostgresRecorder struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresRecorder(db *sql.DB, log logger.Logger) *PostgresRecorder {
	return &PostgresRecorder{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

// EnsureSchema creates the events table and its index if missing.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create %s: %w", TableName, err)
	}
	if _, err := r.db.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create %s index: %w", TableName, err)
	}
	r.logger.Info("audit schema ready", map[string]interface{}{"table": TableName})
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, event models.SignupEvent) error {
	// Email is stored as given; the registry accepts an empty one.
	if event.Activity == "" {
		return fmt.Errorf("%w: activity is required", ErrInvalidEvent)
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	occurredAt := time.Now().UTC()
	if event.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, event.OccurredAt)
		if err != nil {
			return fmt.Errorf("%w: occurredAt: %v", ErrInvalidEvent, err)
		}
		occurredAt = parsed
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_signup_events (id, action, activity_name, email, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID,
		string(event.Action),
		event.Activity,
		event.Email,
		nullString(event.RequestID),
		occurredAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}

	r.logger.Debug("audit event recorded", map[string]interface{}{
		"eventId":  event.ID,
		"action":   string(event.Action),
		"activity": event.Activity,
	})
	return nil
}

// Recent returns up to limit events for activity, newest first.
func (r *PostgresRecorder) Recent(ctx context.Context, activity string, limit int) ([]models.SignupEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, activity_name, email, COALESCE(request_id, ''), occurred_at
		FROM activity_signup_events
		WHERE activity_name = $1
		ORDER BY occurred_at DESC
		LIMIT $2`,
		activity, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []models.SignupEvent
	for rows.Next() {
		var (
			e          models.SignupEvent
			action     string
			occurredAt time.Time
		)
		if err := rows.Scan(&e.ID, &action, &e.Activity, &e.Email, &e.RequestID, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = models.SignupAction(action)
		e.OccurredAt = occurredAt.UTC().Format(time.RFC3339)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, models.SignupEvent) error { return nil }
