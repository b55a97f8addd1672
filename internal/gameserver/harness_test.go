package gameserver_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
	"github.com/cory-johannsen/zenbeasts/internal/game/traits"
	"github.com/cory-johannsen/zenbeasts/internal/gameserver"
	"github.com/cory-johannsen/zenbeasts/internal/storage/memory"
)

const (
	start         int64  = 1_000_000
	walletFunds   uint64 = 100_000
	treasuryFunds uint64 = 1_000_000
)

var (
	authority = uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa")
	alice     = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	bob       = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	carol     = uuid.MustParse("33333333-3333-4333-8333-333333333333")
)

type harness struct {
	ctx   context.Context
	store *memory.Store
	clk   *gameserver.ManualClock
	svc   *gameserver.Service
}

// newHarness initializes the default rules and funds alice, bob and the
// treasury. carol starts with nothing.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ctx:   context.Background(),
		store: memory.New(),
		clk:   gameserver.NewManualClock(start),
	}
	h.svc = gameserver.NewService(h.store, h.clk, zaptest.NewLogger(t))
	_, err := h.svc.Initialize(h.ctx, authority, config.DefaultGameConfig())
	require.NoError(t, err)
	require.NoError(t, h.svc.Fund(h.ctx, authority, ledger.Wallet(alice), walletFunds))
	require.NoError(t, h.svc.Fund(h.ctx, authority, ledger.Wallet(bob), walletFunds))
	require.NoError(t, h.svc.Fund(h.ctx, authority, ledger.Treasury, treasuryFunds))
	return h
}

// seed stores a beast with exact traits, bypassing generation.
func (h *harness) seed(t *testing.T, owner uuid.UUID, v traits.Vector, mutate ...func(*beast.Beast)) beast.Beast {
	t.Helper()
	b := beast.New(uuid.New(), owner, "seeded", "", v, traits.Rarity(v), h.clk.Now())
	for _, m := range mutate {
		m(&b)
	}
	require.NoError(t, h.store.Atomically(h.ctx, func(tx gameserver.Tx) error {
		return tx.CreateBeast(h.ctx, b)
	}))
	return b
}

func withAbility(slot, level uint8) func(*beast.Beast) {
	return func(b *beast.Beast) {
		b.Abilities[slot] = slot + 1
		b.AbilityLevels[slot] = level
	}
}

func (h *harness) balance(t *testing.T, a ledger.Account) uint64 {
	t.Helper()
	bal, err := h.svc.Balance(h.ctx, a)
	require.NoError(t, err)
	return bal
}

func (h *harness) beast(t *testing.T, id uuid.UUID) beast.Beast {
	t.Helper()
	b, err := h.svc.Beast(h.ctx, id)
	require.NoError(t, err)
	return b
}

// supply sums every listed balance plus everything burned.
func (h *harness) supply(t *testing.T, extra ...ledger.Account) uint64 {
	t.Helper()
	accounts := append([]ledger.Account{
		ledger.Wallet(alice), ledger.Wallet(bob), ledger.Wallet(carol), ledger.Treasury,
	}, extra...)
	var total uint64
	for _, a := range accounts {
		total += h.balance(t, a)
	}
	require.NoError(t, h.store.Atomically(h.ctx, func(tx gameserver.Tx) error {
		burned, err := tx.Burned(h.ctx)
		total += burned
		return err
	}))
	return total
}

func (h *harness) burned(t *testing.T) uint64 {
	t.Helper()
	supply, err := h.svc.Supply(h.ctx)
	require.NoError(t, err)
	return supply.Burned
}

const funded = 2*walletFunds + treasuryFunds
