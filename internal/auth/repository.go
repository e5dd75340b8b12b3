package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/questhub/questhub/internal/shared"
)

// Store persists accounts keyed by email. Implementations must be safe for
// concurrent use and enforce email uniqueness atomically.
type Store interface {
	// AddAccount inserts an account and returns it with the assigned id.
	// Fails with shared.ErrDuplicateAccount when the email exists.
	AddAccount(ctx context.Context, params AddAccountParams) (Account, error)
	// GetAccount fetches by email. Fails with shared.ErrNotFound.
	GetAccount(ctx context.Context, email string) (Account, error)
}

// Querier is the subset of pgxpool.Pool used by PGStore.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db Querier
}

// NewPGStore constructs a PostgreSQL store.
func NewPGStore(db Querier) *PGStore {
	return &PGStore{db: db}
}

const addAccountSQL = `INSERT INTO accounts (email, password) VALUES ($1, $2) RETURNING id`

// AddAccount inserts a new account row.
func (s *PGStore) AddAccount(ctx context.Context, params AddAccountParams) (Account, error) {
	var id int32
	if err := s.db.QueryRow(ctx, addAccountSQL, params.Email, params.PasswordHash).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Account{}, shared.ErrDuplicateAccount
		}
		return Account{}, fmt.Errorf("%w: add account: %v", shared.ErrDatabaseQuery, err)
	}
	return Account{ID: AccountID(id), Email: params.Email, PasswordHash: params.PasswordHash}, nil
}

const getAccountSQL = `SELECT id, email, password FROM accounts WHERE email = $1`

// GetAccount fetches an account by email.
func (s *PGStore) GetAccount(ctx context.Context, email string) (Account, error) {
	var (
		id      int32
		account Account
	)
	if err := s.db.QueryRow(ctx, getAccountSQL, email).Scan(&id, &account.Email, &account.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, fmt.Errorf("%w: get account: %v", shared.ErrDatabaseQuery, err)
	}
	account.ID = AccountID(id)
	return account, nil
}

var _ Store = (*PGStore)(nil)
