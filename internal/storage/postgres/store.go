package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/gameserver"
)

// Store implements gameserver.Store on a pgx pool.
type Store struct {
	db *pgxpool.Pool
}

var _ gameserver.Store = (*Store)(nil)

// NewStore creates a Store backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the schema
// from the migrations package applied.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Atomically runs fn inside one read-committed transaction. The game config
// row is locked first, so operations on one deployment are serialized.
//
// Postcondition: the transaction commits iff fn returns nil.
func (s *Store) Atomically(ctx context.Context, fn func(tx gameserver.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&txn{tx: tx})
	})
}

// txn implements gameserver.Tx on one pgx transaction.
type txn struct {
	tx pgx.Tx
}

// Config returns the stored rules snapshot, locking it.
func (t *txn) Config(ctx context.Context) (config.GameConfig, error) {
	var cfg config.GameConfig
	err := t.tx.QueryRow(ctx, `SELECT doc FROM game_config WHERE id = 1 FOR UPDATE`).Scan(&cfg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return config.GameConfig{}, gameerr.ErrNotInitialized
		}
		return config.GameConfig{}, fmt.Errorf("querying game config: %w", err)
	}
	return cfg, nil
}

// CreateConfig inserts the first snapshot. A concurrent insert that commits
// first wins; the loser sees gameerr.ErrAlreadyInitialized.
func (t *txn) CreateConfig(ctx context.Context, cfg config.GameConfig) error {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO game_config (id, doc) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
		cfg,
	)
	if err != nil {
		return fmt.Errorf("creating game config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return gameerr.ErrAlreadyInitialized
	}
	return nil
}

// PutConfig stores cfg as the current snapshot.
func (t *txn) PutConfig(ctx context.Context, cfg config.GameConfig) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO game_config (id, doc) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		cfg,
	)
	if err != nil {
		return fmt.Errorf("storing game config: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyError checks if a pgx error is a foreign key violation.
func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
