package authsvc

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryRegistry is the in-process registry used by tests.
type MemoryRegistry struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRegistry) Insert(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[acct.Email]; exists {
		return ErrEmailInUse
	}
	r.byID[acct.ID] = acct
	r.byEmail[acct.Email] = acct.ID
	return nil
}

func (r *MemoryRegistry) ByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRegistry) ByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

// PostgresRegistry persists identities alongside the document store.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

func (r *PostgresRegistry) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
    CREATE TABLE IF NOT EXISTS identities (
      id            TEXT PRIMARY KEY,
      email         TEXT NOT NULL UNIQUE,
      display_name  TEXT NOT NULL DEFAULT '',
      password_hash TEXT NOT NULL,
      created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    )
  `)
	return err
}

func (r *PostgresRegistry) Insert(ctx context.Context, acct Account) error {
	_, err := r.pool.Exec(ctx, `
    INSERT INTO identities (id, email, display_name, password_hash)
    VALUES ($1, $2, $3, $4)
  `, acct.ID, acct.Email, acct.DisplayName, acct.PasswordHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailInUse
	}
	return err
}

func (r *PostgresRegistry) ByEmail(ctx context.Context, email string) (Account, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
    SELECT id, email, display_name, password_hash
    FROM identities
    WHERE email = $1
  `, email))
}

func (r *PostgresRegistry) ByID(ctx context.Context, id string) (Account, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
    SELECT id, email, display_name, password_hash
    FROM identities
    WHERE id = $1
  `, id))
}

func (r *PostgresRegistry) scanOne(row pgx.Row) (Account, error) {
	var acct Account
	err := row.Scan(&acct.ID, &acct.Email, &acct.DisplayName, &acct.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return acct, nil
}
