package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

// TicketTTL is the validity window of a verification ticket.
const TicketTTL = time.Hour

// VerificationService issues, looks up, and consumes single-use email
// verification tickets.
type VerificationService struct {
	Tickets repository.TicketRepository
}

func NewVerificationService(tickets repository.TicketRepository) *VerificationService {
	return &VerificationService{Tickets: tickets}
}

// Issue creates a ticket for the user with a fresh random token, replacing
// any prior one.
func (s *VerificationService) Issue(ctx context.Context, user *entity.User) (*entity.VerificationTicket, error) {
	t := &entity.VerificationTicket{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(TicketTTL),
	}
	if err := s.Tickets.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ActiveToken returns the token string of the user's pending ticket. It is
// used to hand the token to the email collaborator right after issuance.
func (s *VerificationService) ActiveToken(ctx context.Context, user *entity.User) (string, error) {
	t, err := s.Tickets.FindByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", ErrUserNotFound
	}
	return t.Token, nil
}

// ValidateAndConsume resolves a presented token: false for an unknown or
// expired token (the stale row stays put), true after atomically marking the
// owning user verified and deleting the ticket.
func (s *VerificationService) ValidateAndConsume(ctx context.Context, token string) (bool, error) {
	return s.Tickets.Consume(ctx, token, time.Now())
}
