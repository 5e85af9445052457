package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	name          TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	online        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS characters (
	name       TEXT PRIMARY KEY,
	account    TEXT NOT NULL REFERENCES accounts(name),
	class      TEXT NOT NULL,
	level      INTEGER NOT NULL,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS characters_account_idx ON characters (account);
`

// PostgresStore keeps characters as JSONB documents next to a few columns
// the selection screen needs.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore accepts an existing DB handle and makes sure the tables exist.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL opens a connection string (e.g. DATABASE_URL).
func NewPostgresStoreFromURL(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return NewPostgresStore(ctx, db)
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) CreateAccount(ctx context.Context, name, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (name, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, name, passwordHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", name, ErrExists)
	}
	return nil
}

func (s *PostgresStore) Account(ctx context.Context, name string) (Account, error) {
	var a Account
	err := s.db.QueryRowContext(ctx, `
		SELECT name, password_hash, online, created_at
		FROM accounts
		WHERE name = $1
	`, name).Scan(&a.Name, &a.PasswordHash, &a.Online, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("account %s: %w", name, ErrNotFound)
	}
	return a, err
}

func (s *PostgresStore) SetOnline(ctx context.Context, account string, online bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE accounts SET online = $1 WHERE name = $2`, online, account)
	return err
}

func (s *PostgresStore) Characters(ctx context.Context, account string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, class, level
		FROM characters
		WHERE account = $1
		ORDER BY name
	`, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var c Summary
		if err := rows.Scan(&c.Name, &c.Class, &c.Level); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateCharacter(ctx context.Context, snap CharacterSnapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO characters (name, account, class, level, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO NOTHING
	`, snap.Name, snap.Account, snap.Class, snap.Level, payload)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("character %s: %w", snap.Name, ErrExists)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, account, name string) (CharacterSnapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM characters WHERE account = $1 AND name = $2
	`, account, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return CharacterSnapshot{}, fmt.Errorf("character %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return CharacterSnapshot{}, err
	}
	return decode(payload)
}

func (s *PostgresStore) Save(ctx context.Context, snap CharacterSnapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO characters (name, account, class, level, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name) DO UPDATE
		SET level = EXCLUDED.level,
		    payload = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at
	`, snap.Name, snap.Account, snap.Class, snap.Level, payload)
	return err
}
