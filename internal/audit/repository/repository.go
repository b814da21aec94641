package repository

import (
	"context"

	"votegate/internal/audit/domain"
)

// Repository defines persistence for audit log entries.
type Repository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListByAction(ctx context.Context, action string, limit, offset int32) ([]*domain.AuditLog, error)
}
