package repository

import (
	"context"

	"votegate/internal/user/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) for
// missing rows; errors are reserved for database failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
