package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

const userColumns = `id_user, email, username, psw, verified, theme, lang, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.Verified,
		&u.Theme, &u.Lang, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// mapUniqueViolation translates a 23505 into the repository sentinel for the
// violated constraint.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return repository.ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "username"):
			return repository.ErrDuplicateUsername
		}
	}
	return err
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id_user = $1`, id))
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id_user`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.Verified,
			&u.Theme, &u.Lang, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Insert(ctx context.Context, email, username, hashedPassword string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (email, username, psw)
		VALUES ($1, $2, $3)
	`, email, username, hashedPassword)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	if u.ID == 0 {
		row := r.pool.QueryRow(ctx, `
			INSERT INTO users (email, username, psw, verified, theme, lang)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id_user, created_at, updated_at
		`, u.Email, u.Username, u.Password, u.Verified, u.Theme, u.Lang)
		if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return mapUniqueViolation(err)
		}
		return nil
	}

	u.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, username = $2, psw = $3, verified = $4, theme = $5, lang = $6, updated_at = $7
		WHERE id_user = $8
	`, u.Email, u.Username, u.Password, u.Verified, u.Theme, u.Lang, u.UpdatedAt, u.ID)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if res.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id_user = $1`, u.ID)
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
