package repository

import (
	"context"
	"time"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

// TicketRepository defines the persistence boundary for verification
// tickets. Lookup misses return (nil, nil).
type TicketRepository interface {
	// Save replaces any prior ticket for the same user: at most one live
	// ticket per user exists at a time.
	Save(ctx context.Context, t *entity.VerificationTicket) error
	FindByToken(ctx context.Context, token string) (*entity.VerificationTicket, error)
	FindByUser(ctx context.Context, userID int64) (*entity.VerificationTicket, error)
	Delete(ctx context.Context, t *entity.VerificationTicket) error
	// Consume atomically marks the owning user verified and deletes the
	// ticket iff it exists and now is strictly before its expiry. Exactly
	// one of two concurrent calls on the same token succeeds. Expired
	// tickets are left in place untouched.
	Consume(ctx context.Context, token string, now time.Time) (bool, error)
}
