// Package ledger names the token accounts the rules move value between and
// describes each movement as data. Executing a movement is the job of a
// storage backend.
package ledger

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

// Account identifies a token balance.
type Account string

// Treasury receives the unburned share of every spend and funds reward claims.
const Treasury Account = "treasury"

const (
	walletPrefix = "wallet:"
	escrowPrefix = "escrow:"
)

// Wallet returns the spending account of owner.
func Wallet(owner uuid.UUID) Account {
	return Account(walletPrefix + owner.String())
}

// Escrow returns the account holding the wagers of combat session id.
func Escrow(id uint64) Account {
	return Account(escrowPrefix + strconv.FormatUint(id, 10))
}

// ParseAccount reads the textual form produced by Wallet, Escrow, or
// Treasury.
//
// Postcondition: Returns gameerr.ErrInvalidAccount for anything else.
func ParseAccount(s string) (Account, error) {
	switch {
	case s == string(Treasury):
		return Treasury, nil
	case strings.HasPrefix(s, walletPrefix):
		owner, err := uuid.Parse(strings.TrimPrefix(s, walletPrefix))
		if err != nil {
			return "", gameerr.Wrap(gameerr.ErrInvalidAccount, "%q", s)
		}
		return Wallet(owner), nil
	case strings.HasPrefix(s, escrowPrefix):
		id, err := strconv.ParseUint(strings.TrimPrefix(s, escrowPrefix), 10, 64)
		if err != nil {
			return "", gameerr.Wrap(gameerr.ErrInvalidAccount, "%q", s)
		}
		return Escrow(id), nil
	}
	return "", gameerr.Wrap(gameerr.ErrInvalidAccount, "%q", s)
}

// Kind distinguishes a transfer from a burn.
type Kind int

const (
	// KindTransfer debits From and credits To.
	KindTransfer Kind = iota
	// KindBurn debits From and removes the amount from supply.
	KindBurn
)

// String returns the movement kind label.
func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindBurn:
		return "burn"
	default:
		return "unknown"
	}
}

// Movement is one value movement a rule asks the ledger to perform.
type Movement struct {
	Kind   Kind    `json:"kind"`
	From   Account `json:"from"`
	To     Account `json:"to,omitempty"`
	Amount uint64  `json:"amount"`
}

// Transfer builds a transfer movement.
func Transfer(from, to Account, amount uint64) Movement {
	return Movement{Kind: KindTransfer, From: from, To: to, Amount: amount}
}

// Burn builds a burn movement.
func Burn(from Account, amount uint64) Movement {
	return Movement{Kind: KindBurn, From: from, Amount: amount}
}

// Spend returns the movements for paying burn to the void and treasury to the
// treasury out of from. Zero-amount legs are omitted.
func Spend(from Account, burn, treasury uint64) []Movement {
	var out []Movement
	if burn > 0 {
		out = append(out, Burn(from, burn))
	}
	if treasury > 0 {
		out = append(out, Transfer(from, Treasury, treasury))
	}
	return out
}
