package repository

import (
	"context"
	"time"

	"votegate/internal/token/domain"
)

// Repository defines persistence for refresh token records (the token store).
// Only Rotate and RevokeLineage mutate record status; there are no other
// write paths to the status column.
type Repository interface {
	// GetByID returns the record for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.RefreshToken, error)

	// Create persists a new record (a lineage root). The record must have ID,
	// LineageID, and OwnerID set and Status active.
	Create(ctx context.Context, t *domain.RefreshToken) error

	// Rotate atomically transitions the record with id from active to rotated
	// and inserts successor in the same transaction. It reports false, without
	// inserting, when the record was no longer active at the instant of the
	// conditioned update; the caller must treat that as reuse, never retry.
	Rotate(ctx context.Context, id string, successor *domain.RefreshToken) (bool, error)

	// RevokeLineage transitions every non-revoked record of the lineage to
	// revoked. Idempotent and safe to call concurrently.
	RevokeLineage(ctx context.Context, lineageID string) error

	// ListLiveByOwner returns the owner's lineages that still have an active,
	// unexpired token.
	ListLiveByOwner(ctx context.Context, ownerID string) ([]*domain.Lineage, error)

	// PurgeRevokedBefore deletes lineages in which every record is revoked and
	// the latest revocation is older than cutoff. Returns the number of
	// records removed. Lineages with any non-revoked record are never touched.
	PurgeRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
