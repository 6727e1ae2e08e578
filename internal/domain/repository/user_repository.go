package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

var (
	// ErrDuplicateEmail and ErrDuplicateUsername surface the database
	// uniqueness constraints, so concurrent duplicate registrations fail
	// deterministically even when the service-level existence check passed.
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserRepository defines the persistence boundary for user records.
// Lookup misses return (nil, nil).
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindAll(ctx context.Context) ([]*entity.User, error)
	// Insert is the raw self-registration path: email, username and password
	// hash only, defaults left to the schema.
	Insert(ctx context.Context, email, username, hashedPassword string) error
	// Save inserts u when ID is zero, otherwise updates the full record.
	Save(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, u *entity.User) error
}
