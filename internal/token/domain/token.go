package domain

import "time"

// Status is the lifecycle state of a refresh token record. A record only
// moves forward: active → rotated, active → revoked, rotated → revoked.
type Status string

const (
	// StatusActive marks the single token of a lineage that may still be rotated.
	StatusActive Status = "active"
	// StatusRotated marks a token that was exchanged for a successor. A rotated
	// token presented again is evidence of replay.
	StatusRotated Status = "rotated"
	// StatusRevoked is terminal: the token was invalidated by logout or by a
	// reuse-triggered cascade.
	StatusRevoked Status = "revoked"
)

// CanTransition reports whether a record may move from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusRotated || next == StatusRevoked
	case StatusRotated:
		return next == StatusRevoked
	default:
		return false
	}
}

// RefreshToken is the unit the token store persists. Records are retained
// after rotation and revocation: reuse detection depends on dead records
// remaining queryable until the retention sweeper purges them.
type RefreshToken struct {
	ID        string
	LineageID string
	ParentID  *string // nil for the lineage root
	OwnerID   string
	TokenHash string // SHA-256 of the presented credential; the raw token is never stored
	Status    Status
	IssuedAt  time.Time
	ExpiresAt time.Time
	RotatedAt *time.Time // nil until rotated
	RevokedAt *time.Time // nil until revoked
}

// Lineage is a summary of one session lineage, used for session listings.
type Lineage struct {
	LineageID string
	OwnerID   string
	IssuedAt  time.Time // issuance of the lineage's current active token
	ExpiresAt time.Time
}
