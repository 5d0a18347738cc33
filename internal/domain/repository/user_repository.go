package repository

import (
	"context"
	"errors"

	"github.com/ecomclone/user-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert collides with the
	// unique email index. Callers rely on this to distinguish a
	// conflict from a generic storage failure.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the interface for user persistence. Emails are
// expected to be normalized before they reach this layer. Every call takes
// the request context so store access inherits the caller's deadline.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}
