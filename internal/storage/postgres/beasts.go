package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

// Beast loads and locks a beast.
//
// Postcondition: Returns gameerr.ErrBeastNotFound if no row matches.
func (t *txn) Beast(ctx context.Context, id uuid.UUID) (beast.Beast, error) {
	var b beast.Beast
	err := t.tx.QueryRow(ctx, `SELECT doc FROM beasts WHERE id = $1 FOR UPDATE`, id).Scan(&b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return beast.Beast{}, gameerr.Wrap(gameerr.ErrBeastNotFound, "beast %s", id)
		}
		return beast.Beast{}, fmt.Errorf("querying beast: %w", err)
	}
	return b, nil
}

// CreateBeast inserts a new beast.
//
// Postcondition: Returns gameerr.ErrBeastExists if the id is taken.
func (t *txn) CreateBeast(ctx context.Context, b beast.Beast) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO beasts (id, owner, created_at, doc) VALUES ($1, $2, $3, $4)`,
		b.ID, b.Owner, b.CreatedAt, b,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return gameerr.Wrap(gameerr.ErrBeastExists, "beast %s", b.ID)
		}
		return fmt.Errorf("inserting beast: %w", err)
	}
	return nil
}

// PutBeast overwrites an existing beast.
//
// Postcondition: Returns gameerr.ErrBeastNotFound if no row matches.
func (t *txn) PutBeast(ctx context.Context, b beast.Beast) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE beasts SET owner = $2, doc = $3 WHERE id = $1`,
		b.ID, b.Owner, b,
	)
	if err != nil {
		return fmt.Errorf("updating beast: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return gameerr.Wrap(gameerr.ErrBeastNotFound, "beast %s", b.ID)
	}
	return nil
}

// BeastsByOwner lists the beasts of owner, oldest first.
func (t *txn) BeastsByOwner(ctx context.Context, owner uuid.UUID) ([]beast.Beast, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT doc FROM beasts WHERE owner = $1 ORDER BY created_at, id`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("listing beasts: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[beast.Beast])
	if err != nil {
		return nil, fmt.Errorf("scanning beasts: %w", err)
	}
	return out, nil
}
