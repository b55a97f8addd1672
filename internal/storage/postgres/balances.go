package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
)

// Amounts travel as decimal text so the full uint64 range fits NUMERIC(20,0).

func amountParam(v uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0).String()
}

// parseAmount converts a NUMERIC rendered as text. Values past the uint64
// range report gameerr.ErrOverflow.
func parseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if !d.IsInteger() || d.IsNegative() {
		return 0, fmt.Errorf("amount %s is not a whole token count", s)
	}
	n := d.BigInt()
	if !n.IsUint64() {
		return 0, gameerr.Wrap(gameerr.ErrOverflow, "amount %s", s)
	}
	return n.Uint64(), nil
}

// Balance returns the balance of a, zero for an unknown account.
func (t *txn) Balance(ctx context.Context, a ledger.Account) (uint64, error) {
	var s string
	err := t.tx.QueryRow(ctx, `SELECT amount::text FROM balances WHERE account = $1`, string(a)).Scan(&s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying balance: %w", err)
	}
	return parseAmount(s)
}

// Debit removes amount from a.
//
// Postcondition: Returns gameerr.ErrInsufficientTreasury for a treasury
// shortfall and gameerr.ErrInsufficientFunds for any other account.
func (t *txn) Debit(ctx context.Context, a ledger.Account, amount uint64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE balances SET amount = amount - $2::text::numeric
		 WHERE account = $1 AND amount >= $2::text::numeric`,
		string(a), amountParam(amount),
	)
	if err != nil {
		return fmt.Errorf("debiting %s: %w", a, err)
	}
	if tag.RowsAffected() == 0 {
		if a == ledger.Treasury {
			return gameerr.Wrap(gameerr.ErrInsufficientTreasury, "debit %d", amount)
		}
		return gameerr.Wrap(gameerr.ErrInsufficientFunds, "debit %d from %s", amount, a)
	}
	return nil
}

// Credit adds amount to a, creating the account on first use.
func (t *txn) Credit(ctx context.Context, a ledger.Account, amount uint64) error {
	var s string
	err := t.tx.QueryRow(ctx,
		`INSERT INTO balances (account, amount) VALUES ($1, $2::text::numeric)
		 ON CONFLICT (account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount
		 RETURNING amount::text`,
		string(a), amountParam(amount),
	).Scan(&s)
	if err != nil {
		return fmt.Errorf("crediting %s: %w", a, err)
	}
	_, err = parseAmount(s)
	return err
}

// Burn adds amount to the burned total.
func (t *txn) Burn(ctx context.Context, amount uint64) error {
	var s string
	err := t.tx.QueryRow(ctx,
		`UPDATE token_supply SET burned = burned + $1::text::numeric WHERE id = 1
		 RETURNING burned::text`,
		amountParam(amount),
	).Scan(&s)
	if err != nil {
		return fmt.Errorf("burning: %w", err)
	}
	_, err = parseAmount(s)
	return err
}

// Burned returns the total ever burned.
func (t *txn) Burned(ctx context.Context) (uint64, error) {
	var s string
	if err := t.tx.QueryRow(ctx, `SELECT burned::text FROM token_supply WHERE id = 1`).Scan(&s); err != nil {
		return 0, fmt.Errorf("querying burned total: %w", err)
	}
	return parseAmount(s)
}
