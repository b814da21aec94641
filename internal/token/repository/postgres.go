package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"votegate/internal/token/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a token store backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the record for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.RefreshToken, error) {
	const query = `
		SELECT id, lineage_id, parent_id, owner_id, token_hash, status,
		       issued_at, expires_at, rotated_at, revoked_at
		FROM refresh_tokens WHERE id = $1`
	var t domain.RefreshToken
	var status string
	var parentID sql.NullString
	var rotatedAt, revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.LineageID, &parentID, &t.OwnerID, &t.TokenHash, &status,
		&t.IssuedAt, &t.ExpiresAt, &rotatedAt, &revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Status = domain.Status(status)
	if parentID.Valid {
		t.ParentID = &parentID.String
	}
	t.RotatedAt = nullTimeToPtr(rotatedAt)
	t.RevokedAt = nullTimeToPtr(revokedAt)
	return &t, nil
}

// Create persists the record. Used for lineage roots; successors are inserted by Rotate.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	_, err := insertToken(ctx, r.db, t)
	return err
}

// Rotate performs the conditioned active→rotated transition on id and inserts
// successor in one transaction. The UPDATE is guarded on status so that when
// two requests race on the same token exactly one sees RowsAffected = 1; the
// loser gets (false, nil) and must take the reuse path.
func (r *PostgresRepository) Rotate(ctx context.Context, id string, successor *domain.RefreshToken) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET status = 'rotated', rotated_at = $2
		WHERE id = $1 AND status = 'active'`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Someone else consumed the token first, or it was already revoked.
		return false, nil
	}

	if _, err := insertToken(ctx, tx, successor); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeLineage marks every non-revoked record of the lineage revoked.
// Idempotent: running it again, or concurrently, matches no further rows.
func (r *PostgresRepository) RevokeLineage(ctx context.Context, lineageID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET status = 'revoked', revoked_at = $2
		WHERE lineage_id = $1 AND status <> 'revoked'`,
		lineageID, time.Now().UTC(),
	)
	return err
}

// ListLiveByOwner returns the owner's lineages that still hold an active, unexpired token.
func (r *PostgresRepository) ListLiveByOwner(ctx context.Context, ownerID string) ([]*domain.Lineage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT lineage_id, owner_id, issued_at, expires_at
		FROM refresh_tokens
		WHERE owner_id = $1 AND status = 'active' AND expires_at > $2
		ORDER BY issued_at DESC`,
		ownerID, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Lineage
	for rows.Next() {
		var l domain.Lineage
		if err := rows.Scan(&l.LineageID, &l.OwnerID, &l.IssuedAt, &l.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// PurgeRevokedBefore deletes lineages whose records are all revoked with the
// most recent revocation older than cutoff. Returns the number of records deleted.
func (r *PostgresRepository) PurgeRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE lineage_id IN (
			SELECT lineage_id
			FROM refresh_tokens
			GROUP BY lineage_id
			HAVING bool_and(status = 'revoked') AND max(revoked_at) < $1
		)`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// execer lets insertToken run against either the pool or an open transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertToken(ctx context.Context, e execer, t *domain.RefreshToken) (sql.Result, error) {
	var parentID sql.NullString
	if t.ParentID != nil {
		parentID = sql.NullString{String: *t.ParentID, Valid: true}
	}
	return e.ExecContext(ctx, `
		INSERT INTO refresh_tokens
			(id, lineage_id, parent_id, owner_id, token_hash, status, issued_at, expires_at, rotated_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.LineageID, parentID, t.OwnerID, t.TokenHash, string(t.Status),
		t.IssuedAt, t.ExpiresAt, ptrToNullTime(t.RotatedAt), ptrToNullTime(t.RevokedAt),
	)
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

func ptrToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
