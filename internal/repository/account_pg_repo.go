package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"travel-planner/internal/domain"
)

const uniqueViolation = "23505"

// pgQuerier es el subconjunto de *pgxpool.Pool que usa el repositorio.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgAccountRepository implementa AccountRepository usando pgxpool.
// La unicidad del email la garantiza el índice único de la tabla accounts.
type PgAccountRepository struct {
	pool pgQuerier
}

func NewPgAccountRepository(pool pgQuerier) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

func (r *PgAccountRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at
		FROM accounts
		WHERE email = $1
	`
	return r.scanOne(ctx, query, NormalizeEmail(email))
}

func (r *PgAccountRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *PgAccountRepository) Insert(ctx context.Context, account domain.Account) error {
	const query = `
		INSERT INTO accounts (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Name,
		NormalizeEmail(account.Email),
		account.PasswordHash,
		account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("%w: insert account: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (r *PgAccountRepository) scanOne(ctx context.Context, query string, arg string) (domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: query account: %v", ErrStorageUnavailable, err)
	}
	return a, nil
}
