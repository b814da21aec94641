package repository

import (
	"context"
	"database/sql"

	"votegate/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	uid := sql.NullString{String: entry.UserID, Valid: entry.UserID != ""}
	meta := sql.NullString{String: entry.Metadata, Valid: entry.Metadata != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, uid, entry.Action, entry.Resource, entry.IP, meta, entry.CreatedAt,
	)
	return err
}

// ListByAction returns entries for the given action, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByAction(ctx context.Context, action string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, resource, ip, metadata, created_at
		FROM audit_logs
		WHERE action = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		action, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var e domain.AuditLog
		var uid, meta sql.NullString
		if err := rows.Scan(&e.ID, &uid, &e.Action, &e.Resource, &e.IP, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = uid.String
		e.Metadata = meta.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
