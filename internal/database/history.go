package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Rotation statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const defaultListLimit = 10

const schema = `
	CREATE TABLE IF NOT EXISTS rotation_history (
		id            SERIAL PRIMARY KEY,
		manager_name  TEXT        NOT NULL,
		alias_name    TEXT        NOT NULL DEFAULT '',
		to_index      TEXT        NOT NULL,
		from_indices  TEXT[]      NOT NULL DEFAULT '{}',
		mode          TEXT        NOT NULL,
		status        TEXT        NOT NULL,
		error_message TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_rotation_history_manager
		ON rotation_history (manager_name, created_at DESC);
`

// RotationRecord is one create or rotate invocation.
type RotationRecord struct {
	ID           int            `db:"id"`
	ManagerName  string         `db:"manager_name"`
	AliasName    string         `db:"alias_name"`
	ToIndex      string         `db:"to_index"`
	FromIndices  pq.StringArray `db:"from_indices"`
	Mode         string         `db:"mode"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
}

// EnsureSchema creates the rotation_history table if it does not exist.
func (c *Connection) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create rotation_history table: %w", err)
	}
	return nil
}

// RecordRotation inserts rec and sets its ID.
func (c *Connection) RecordRotation(ctx context.Context, rec *RotationRecord) error {
	query := `
		INSERT INTO rotation_history
		(manager_name, alias_name, to_index, from_indices, mode, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	fromIndices := rec.FromIndices
	if fromIndices == nil {
		fromIndices = pq.StringArray{}
	}

	err := c.DB.QueryRowContext(ctx, query,
		rec.ManagerName,
		rec.AliasName,
		rec.ToIndex,
		fromIndices,
		rec.Mode,
		rec.Status,
		rec.ErrorMessage,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to record rotation: %w", err)
	}

	return nil
}

// ListRotations returns the newest rotations of managerName, newest first.
func (c *Connection) ListRotations(ctx context.Context, managerName string, limit int) ([]RotationRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, manager_name, alias_name, to_index, from_indices, mode, status, error_message, created_at
		FROM rotation_history
		WHERE manager_name = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	records := []RotationRecord{}
	if err := c.DB.SelectContext(ctx, &records, query, managerName, limit); err != nil {
		return nil, fmt.Errorf("failed to list rotations: %w", err)
	}

	return records, nil
}
