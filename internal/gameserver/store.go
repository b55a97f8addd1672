package gameserver

import (
	"context"

	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
)

// Registry loads and stores the records the rules operate on.
//
// Lookups inside a transaction lock what they return until the transaction ends.
type Registry interface {
	// Config returns the stored rules snapshot or gameerr.ErrNotInitialized.
	Config(ctx context.Context) (config.GameConfig, error)
	// CreateConfig stores the first snapshot or returns
	// gameerr.ErrAlreadyInitialized if one exists.
	CreateConfig(ctx context.Context, cfg config.GameConfig) error
	PutConfig(ctx context.Context, cfg config.GameConfig) error

	// Beast returns the beast or gameerr.ErrBeastNotFound.
	Beast(ctx context.Context, id uuid.UUID) (beast.Beast, error)
	// CreateBeast stores a new beast or returns gameerr.ErrBeastExists.
	CreateBeast(ctx context.Context, b beast.Beast) error
	PutBeast(ctx context.Context, b beast.Beast) error
	// BeastsByOwner lists the beasts currently held by owner.
	BeastsByOwner(ctx context.Context, owner uuid.UUID) ([]beast.Beast, error)

	// NextSessionID reserves a fresh, never reused session id.
	NextSessionID(ctx context.Context) (uint64, error)
	// Session returns the session or gameerr.ErrSessionNotFound.
	Session(ctx context.Context, id uint64) (combat.Session, error)
	PutSession(ctx context.Context, s combat.Session) error
	// ActiveSessions lists every session whose status is Active.
	ActiveSessions(ctx context.Context) ([]combat.Session, error)

	AppendTurn(ctx context.Context, sessionID uint64, rec combat.TurnRecord) error
	// Turns returns the recorded turns of a session in turn order.
	Turns(ctx context.Context, sessionID uint64) ([]combat.TurnRecord, error)
}

// Ledger holds token balances.
type Ledger interface {
	Balance(ctx context.Context, a ledger.Account) (uint64, error)
	// Debit removes amount from a or returns gameerr.ErrInsufficientFunds.
	Debit(ctx context.Context, a ledger.Account, amount uint64) error
	// Credit adds amount to a or returns gameerr.ErrOverflow.
	Credit(ctx context.Context, a ledger.Account, amount uint64) error
	// Burn records amount as removed from supply. The amount must already
	// have been debited.
	Burn(ctx context.Context, amount uint64) error
	// Burned returns the total ever burned.
	Burned(ctx context.Context) (uint64, error)
}

// Tx is the view of a store inside one atomic operation.
type Tx interface {
	Registry
	Ledger
}

// Store runs operations atomically against a consistent snapshot.
type Store interface {
	// Atomically runs fn in one transaction. If fn returns an error nothing
	// it wrote is kept.
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// execute performs ms against l in order.
//
// Precondition: every balance was checked by the caller.
func execute(ctx context.Context, l Ledger, ms ...ledger.Movement) error {
	for _, m := range ms {
		if m.Amount == 0 {
			continue
		}
		if err := l.Debit(ctx, m.From, m.Amount); err != nil {
			return err
		}
		var err error
		switch m.Kind {
		case ledger.KindBurn:
			err = l.Burn(ctx, m.Amount)
		default:
			err = l.Credit(ctx, m.To, m.Amount)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
