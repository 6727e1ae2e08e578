package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*entity.VerificationTicket, error) {
	t := &entity.VerificationTicket{}
	err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Save replaces any prior ticket for the same user in one transaction, so
// the id_user uniqueness constraint never trips on re-registration.
func (r *TicketRepository) Save(ctx context.Context, t *entity.VerificationTicket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM verification_tokens WHERE id_user = $1`, t.UserID); err != nil {
		return err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO verification_tokens (token, id_user, expiry_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, t.Token, t.UserID, t.ExpiresAt)
	if err := row.Scan(&t.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *TicketRepository) FindByToken(ctx context.Context, token string) (*entity.VerificationTicket, error) {
	return scanTicket(r.pool.QueryRow(ctx,
		`SELECT id, token, id_user, expiry_date FROM verification_tokens WHERE token = $1`, token))
}

func (r *TicketRepository) FindByUser(ctx context.Context, userID int64) (*entity.VerificationTicket, error) {
	return scanTicket(r.pool.QueryRow(ctx,
		`SELECT id, token, id_user, expiry_date FROM verification_tokens WHERE id_user = $1`, userID))
}

func (r *TicketRepository) Delete(ctx context.Context, t *entity.VerificationTicket) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM verification_tokens WHERE id = $1`, t.ID)
	return err
}

// Consume implements the atomic validate-and-consume: the row lock makes one
// of two concurrent calls on the same token wait, and the loser then finds
// the row gone. Expired rows are left untouched.
func (r *TicketRepository) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		id        int64
		userID    int64
		expiresAt time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT id, id_user, expiry_date FROM verification_tokens
		WHERE token = $1
		FOR UPDATE
	`, token).Scan(&id, &userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !now.Before(expiresAt) {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET verified = TRUE, updated_at = $2 WHERE id_user = $1`, userID, now); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM verification_tokens WHERE id = $1`, id); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

var _ repository.TicketRepository = (*TicketRepository)(nil)
