package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

// NextSessionID draws from a sequence. Ids drawn by a rolled-back
// transaction are skipped, never reused.
func (t *txn) NextSessionID(ctx context.Context) (uint64, error) {
	var id int64
	if err := t.tx.QueryRow(ctx, `SELECT nextval('combat_session_id_seq')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocating session id: %w", err)
	}
	return uint64(id), nil
}

// Session loads and locks a combat session.
func (t *txn) Session(ctx context.Context, id uint64) (combat.Session, error) {
	var s combat.Session
	err := t.tx.QueryRow(ctx, `SELECT doc FROM combat_sessions WHERE id = $1 FOR UPDATE`, int64(id)).Scan(&s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return combat.Session{}, gameerr.Wrap(gameerr.ErrSessionNotFound, "session %d", id)
		}
		return combat.Session{}, fmt.Errorf("querying session: %w", err)
	}
	return s, nil
}

// PutSession inserts or overwrites a session.
func (t *txn) PutSession(ctx context.Context, s combat.Session) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO combat_sessions (id, status, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, doc = EXCLUDED.doc`,
		int64(s.ID), s.Status.String(), s,
	)
	if err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// ActiveSessions lists active sessions by id.
func (t *txn) ActiveSessions(ctx context.Context) ([]combat.Session, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT doc FROM combat_sessions WHERE status = $1 ORDER BY id`,
		combat.Active.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing active sessions: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[combat.Session])
	if err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	return out, nil
}

// AppendTurn records one turn of a session.
func (t *txn) AppendTurn(ctx context.Context, sessionID uint64, rec combat.TurnRecord) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO combat_turns (session_id, turn, doc) VALUES ($1, $2, $3)`,
		int64(sessionID), int16(rec.Turn), rec,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return gameerr.Wrap(gameerr.ErrSessionNotFound, "session %d", sessionID)
		}
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// Turns returns the recorded turns of a session in turn order.
func (t *txn) Turns(ctx context.Context, sessionID uint64) ([]combat.TurnRecord, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM combat_sessions WHERE id = $1)`, int64(sessionID)).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if !exists {
		return nil, gameerr.Wrap(gameerr.ErrSessionNotFound, "session %d", sessionID)
	}
	rows, err := t.tx.Query(ctx,
		`SELECT doc FROM combat_turns WHERE session_id = $1 ORDER BY turn`,
		int64(sessionID),
	)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[combat.TurnRecord])
	if err != nil {
		return nil, fmt.Errorf("scanning turns: %w", err)
	}
	return out, nil
}
