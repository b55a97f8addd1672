package combat_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
	"github.com/cory-johannsen/zenbeasts/internal/game/economy"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
	"github.com/cory-johannsen/zenbeasts/internal/game/traits"
)

const (
	start     int64  = 10_000
	sessionID uint64 = 7
	wager     uint64 = 1000
)

var (
	alice = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	bob   = uuid.MustParse("22222222-2222-4222-8222-222222222222")
)

const (
	slotStrength = uint8(traits.Strength)
	slotWisdom   = uint8(traits.Wisdom)
	slotVitality = uint8(traits.Vitality)
)

func fighter(owner uuid.UUID, t traits.Vector) *beast.Beast {
	b := beast.New(uuid.New(), owner, "fighter", "", t, traits.Rarity(t), 0)
	return &b
}

func unlock(b *beast.Beast, slot, level uint8) {
	b.Abilities[slot] = slot + 1
	b.AbilityLevels[slot] = level
}

// arena builds a strong challenger (1000 HP, maxed Strength, feeble Wisdom)
// against a frail opponent (100 HP, feeble Wisdom). Feeble Wisdom deals at
// most one point per turn.
func arena(t *testing.T) (*combat.Session, *beast.Beast, *beast.Beast, config.GameConfig) {
	t.Helper()
	cfg := config.DefaultGameConfig()
	ch := fighter(alice, traits.Vector{255, 0, 1, 100})
	unlock(ch, slotStrength, 10)
	unlock(ch, slotWisdom, 1)
	op := fighter(bob, traits.Vector{0, 0, 1, 10})
	unlock(op, slotWisdom, 1)

	s, escrow, err := combat.Initiate(combat.Challenge{
		SessionID: sessionID, Caller: alice, Wager: wager, Balance: wager, Now: start,
	}, ch, op, cfg)
	require.NoError(t, err)
	assert.Equal(t, ledger.Transfer(ledger.Wallet(alice), ledger.Escrow(sessionID), wager), escrow)
	return &s, ch, op, cfg
}

func act(t *testing.T, s *combat.Session, ch, op *beast.Beast, cfg config.GameConfig, actor uuid.UUID, slot uint8, now int64) combat.TurnResult {
	t.Helper()
	res, err := s.ExecuteTurn(combat.Turn{Actor: actor, AbilityIndex: slot, Balance: wager, Now: now}, ch, op, cfg)
	require.NoError(t, err)
	return res
}

func TestInitiate_OpensSession(t *testing.T) {
	s, ch, op, _ := arena(t)
	assert.Equal(t, combat.Active, s.Status)
	assert.Equal(t, uint16(1000), s.ChallengerHP)
	assert.Equal(t, uint16(100), s.OpponentHP)
	assert.Equal(t, uint8(0), s.TurnCount)
	assert.Equal(t, start, s.LastTurnTimestamp)
	assert.Equal(t, combat.Seed(sessionID, ch.ID, op.ID, start), s.CombatSeed)
	assert.False(t, s.OpponentStaked)
	for _, b := range []*beast.Beast{ch, op} {
		assert.True(t, b.Combat.InCombat)
		assert.Equal(t, start, b.Combat.LastCombat)
		assert.Equal(t, uint8(beast.MaxEnergy), b.Combat.Energy)
	}
}

func TestInitiate_Rejections(t *testing.T) {
	cfg := config.DefaultGameConfig()
	tests := []struct {
		name  string
		setup func(ch, op *beast.Beast, c *combat.Challenge) (*beast.Beast, *beast.Beast)
		want  error
	}{
		{"not owner", func(ch, op *beast.Beast, c *combat.Challenge) (*beast.Beast, *beast.Beast) {
			c.Caller = bob
			return ch, op
		}, gameerr.ErrNotOwner},
		{"same beast", func(ch, _ *beast.Beast, _ *combat.Challenge) (*beast.Beast, *beast.Beast) {
			return ch, ch
		}, gameerr.ErrSameBeast},
		{"same owner", func(ch, op *beast.Beast, _ *combat.Challenge) (*beast.Beast, *beast.Beast) {
			op.Owner = alice
			return ch, op
		}, gameerr.ErrSelfCombat},
		{"wager below min", func(ch, op *beast.Beast, c *combat.Challenge) (*beast.Beast, *beast.Beast) {
			c.Wager = cfg.MinCombatWager - 1
			return ch, op
		}, gameerr.ErrWagerOutOfBounds},
		{"wager above max", func(ch, op *beast.Beast, c *combat.Challenge) (*beast.Beast, *beast.Beast) {
			c.Wager = cfg.MaxCombatWager + 1
			c.Balance = c.Wager
			return ch, op
		}, gameerr.ErrWagerOutOfBounds},
		{"challenger fighting", func(ch, op *beast.Beast, _ *combat.Challenge) (*beast.Beast, *beast.Beast) {
			ch.Combat.InCombat = true
			return ch, op
		}, gameerr.ErrBeastInCombat},
		{"challenger cooling down", func(ch, op *beast.Beast, _ *combat.Challenge) (*beast.Beast, *beast.Beast) {
			ch.Combat.LastCombat = start - 10
			return ch, op
		}, gameerr.ErrCombatCooldownActive},
		{"opponent fighting", func(ch, op *beast.Beast, _ *combat.Challenge) (*beast.Beast, *beast.Beast) {
			op.Combat.InCombat = true
			return ch, op
		}, gameerr.ErrOpponentNotAvailable},
		{"opponent cooling down", func(ch, op *beast.Beast, _ *combat.Challenge) (*beast.Beast, *beast.Beast) {
			op.Combat.LastCombat = start - 1
			return ch, op
		}, gameerr.ErrOpponentNotAvailable},
		{"short balance", func(ch, op *beast.Beast, c *combat.Challenge) (*beast.Beast, *beast.Beast) {
			c.Balance = c.Wager - 1
			return ch, op
		}, gameerr.ErrInsufficientFunds},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ch := fighter(alice, traits.Vector{10, 10, 10, 10})
			op := fighter(bob, traits.Vector{10, 10, 10, 10})
			c := combat.Challenge{SessionID: 1, Caller: alice, Wager: 500, Balance: 500, Now: start}
			a, b := tc.setup(ch, op, &c)
			beforeA, beforeB := *a, *b
			_, _, err := combat.Initiate(c, a, b, cfg)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, beforeA, *a)
			assert.Equal(t, beforeB, *b)
		})
	}
}

func TestInitiate_CooldownBoundaryInclusive(t *testing.T) {
	cfg := config.DefaultGameConfig()
	ch := fighter(alice, traits.Vector{10, 10, 10, 10})
	op := fighter(bob, traits.Vector{10, 10, 10, 10})
	ch.Combat.LastCombat = start - cfg.CombatCooldown
	_, _, err := combat.Initiate(combat.Challenge{SessionID: 1, Caller: alice, Wager: 100, Balance: 100, Now: start}, ch, op, cfg)
	assert.NoError(t, err)
}

func TestExecuteTurn_LazyOpponentStake(t *testing.T) {
	s, ch, op, cfg := arena(t)

	res := act(t, s, ch, op, cfg, alice, slotWisdom, start+1)
	assert.Nil(t, res.Stake)

	before := *s
	_, err := s.ExecuteTurn(combat.Turn{Actor: bob, AbilityIndex: slotWisdom, Balance: wager - 1, Now: start + 2}, ch, op, cfg)
	assert.ErrorIs(t, err, gameerr.ErrInsufficientFunds)
	assert.Equal(t, before, *s)

	res = act(t, s, ch, op, cfg, bob, slotWisdom, start+2)
	require.NotNil(t, res.Stake)
	assert.Equal(t, ledger.Transfer(ledger.Wallet(bob), ledger.Escrow(sessionID), wager), *res.Stake)
	assert.True(t, s.OpponentStaked)

	act(t, s, ch, op, cfg, alice, slotWisdom, start+3)
	res = act(t, s, ch, op, cfg, bob, slotWisdom, start+4)
	assert.Nil(t, res.Stake)
}

func TestExecuteTurn_Rejections(t *testing.T) {
	s, ch, op, cfg := arena(t)
	turn := func(actor uuid.UUID, slot uint8, now int64) error {
		_, err := s.ExecuteTurn(combat.Turn{Actor: actor, AbilityIndex: slot, Balance: wager, Now: now}, ch, op, cfg)
		return err
	}
	before := *s

	assert.ErrorIs(t, turn(bob, slotWisdom, start+1), gameerr.ErrInvalidTurn)
	assert.ErrorIs(t, turn(uuid.New(), slotWisdom, start+1), gameerr.ErrNotParticipant)
	assert.ErrorIs(t, turn(alice, slotVitality, start+1), gameerr.ErrAbilityNotUnlocked)
	assert.ErrorIs(t, turn(alice, beast.AbilitySlots, start+1), gameerr.ErrInvalidTraitIndex)
	assert.ErrorIs(t, turn(alice, slotWisdom, start+cfg.CombatTurnTimeout), gameerr.ErrTurnTimeout)

	stranger := fighter(bob, traits.Vector{1, 1, 1, 1})
	_, err := s.ExecuteTurn(combat.Turn{Actor: alice, AbilityIndex: slotWisdom, Now: start + 1}, ch, stranger, cfg)
	assert.ErrorIs(t, err, gameerr.ErrSessionMismatch)

	assert.Equal(t, before, *s)
	assert.NoError(t, turn(alice, slotWisdom, start+cfg.CombatTurnTimeout-1))
}

func TestExecuteTurn_TracksTurnAndEnergy(t *testing.T) {
	s, ch, op, cfg := arena(t)
	res := act(t, s, ch, op, cfg, alice, slotStrength, start+5)
	assert.Equal(t, uint8(0), res.Turn)
	assert.Equal(t, combat.ChallengerSide, res.Side)
	assert.Equal(t, combat.Strength, res.Ability)
	assert.Equal(t, uint8(255), res.Trait)
	assert.Equal(t, uint8(10), res.Level)
	assert.Equal(t, uint8(40), res.EnergyCost)
	assert.Equal(t, uint8(60), ch.Combat.Energy)
	assert.Equal(t, uint8(1), s.TurnCount)
	assert.Equal(t, start+5, s.LastTurnTimestamp)

	want, err := combat.TurnDamage(s.CombatSeed, 0, 255, 10, combat.Strength)
	require.NoError(t, err)
	assert.Equal(t, want, res.Effect)
}

func TestExecuteTurn_EnergyFloorsAtZero(t *testing.T) {
	s, ch, op, cfg := arena(t)
	ch.Combat.Energy = 5
	act(t, s, ch, op, cfg, alice, slotWisdom, start+1)
	assert.Equal(t, uint8(0), ch.Combat.Energy)
}

func TestExecuteTurn_HealClampsToMax(t *testing.T) {
	s, ch, op, cfg := arena(t)
	unlock(ch, slotVitality, 1)
	res := act(t, s, ch, op, cfg, alice, slotVitality, start+1)
	assert.Greater(t, res.Effect, uint16(0))
	assert.Equal(t, uint16(1000), s.ChallengerHP)
	assert.Equal(t, uint16(1000), ch.Combat.HP)
	assert.Equal(t, uint16(100), s.OpponentHP)
}

func TestExecuteTurn_FinishedSessionRejectsTurns(t *testing.T) {
	s, ch, op, cfg := arena(t)
	res := act(t, s, ch, op, cfg, alice, slotStrength, start+1)
	assert.Equal(t, combat.ChallengerWon, res.Status)
	_, err := s.ExecuteTurn(combat.Turn{Actor: bob, AbilityIndex: slotWisdom, Balance: wager, Now: start + 2}, ch, op, cfg)
	assert.ErrorIs(t, err, gameerr.ErrSessionNotActive)
}

func TestResolve_ChallengerWinsBeforeOpponentStakes(t *testing.T) {
	s, ch, op, cfg := arena(t)
	act(t, s, ch, op, cfg, alice, slotStrength, start+1)
	assert.Equal(t, uint16(0), s.OpponentHP)
	assert.Equal(t, uint16(0), op.Combat.HP)

	st, err := s.Resolve(bob, ch, op, cfg)
	require.NoError(t, err)
	assert.Equal(t, ch.ID, st.Winner)
	assert.Equal(t, wager, st.Pot)
	assert.Equal(t, uint64(900), st.Payout)
	assert.Equal(t, uint64(100), st.Burned)
	escrow := ledger.Escrow(sessionID)
	assert.Equal(t, []ledger.Movement{
		ledger.Transfer(escrow, ledger.Wallet(alice), 900),
		ledger.Burn(escrow, 100),
	}, st.Movements)
}

func TestResolve_ChallengerWinsStakedPot(t *testing.T) {
	s, ch, op, cfg := arena(t)
	act(t, s, ch, op, cfg, alice, slotWisdom, start+1)
	act(t, s, ch, op, cfg, bob, slotWisdom, start+2)
	res := act(t, s, ch, op, cfg, alice, slotStrength, start+3)
	require.Equal(t, combat.ChallengerWon, res.Status)

	st, err := s.Resolve(alice, ch, op, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), st.Pot)
	assert.Equal(t, uint64(1800), st.Payout)
	assert.Equal(t, uint64(200), st.Burned)
	assert.Equal(t, uint32(1), ch.Combat.Wins)
	assert.Equal(t, uint32(0), ch.Combat.Losses)
	assert.Equal(t, uint32(1), op.Combat.Losses)
	assert.False(t, ch.Combat.InCombat)
	assert.False(t, op.Combat.InCombat)
	assert.True(t, s.Settled)

	_, err = s.Resolve(alice, ch, op, cfg)
	assert.ErrorIs(t, err, gameerr.ErrSessionSettled)
}

func TestResolve_OpponentWinsPaysSessionOwner(t *testing.T) {
	cfg := config.DefaultGameConfig()
	ch := fighter(alice, traits.Vector{0, 0, 1, 10})
	unlock(ch, slotWisdom, 1)
	op := fighter(bob, traits.Vector{255, 0, 0, 100})
	unlock(op, slotStrength, 10)
	s, _, err := combat.Initiate(combat.Challenge{SessionID: 9, Caller: alice, Wager: wager, Balance: wager, Now: start}, ch, op, cfg)
	require.NoError(t, err)

	act(t, &s, ch, op, cfg, alice, slotWisdom, start+1)
	res := act(t, &s, ch, op, cfg, bob, slotStrength, start+2)
	require.Equal(t, combat.OpponentWon, res.Status)

	// The beast changes hands before settlement; the payout follows the session.
	op.Owner = uuid.New()
	st, err := s.Resolve(alice, ch, op, cfg)
	require.NoError(t, err)
	assert.Equal(t, op.ID, st.Winner)
	assert.Equal(t, ledger.Transfer(ledger.Escrow(9), ledger.Wallet(bob), 1800), st.Movements[0])
}

func TestResolve_DrawRefundsBothStakes(t *testing.T) {
	s, ch, op, cfg := arena(t)
	var last combat.TurnResult
	for i := 0; i < combat.MaxTurns; i++ {
		actor := alice
		if i%2 == 1 {
			actor = bob
		}
		require.Equal(t, combat.Active, s.Status)
		last = act(t, s, ch, op, cfg, actor, slotWisdom, start+int64(i)+1)
	}
	assert.Equal(t, combat.Draw, last.Status)
	assert.Equal(t, uint8(combat.MaxTurns), s.TurnCount)
	assert.GreaterOrEqual(t, s.ChallengerHP, uint16(995))
	assert.GreaterOrEqual(t, s.OpponentHP, uint16(95))

	st, err := s.Resolve(bob, ch, op, cfg)
	require.NoError(t, err)
	escrow := ledger.Escrow(sessionID)
	assert.Equal(t, uuid.Nil, st.Winner)
	assert.Equal(t, uint64(2000), st.Pot)
	assert.Equal(t, []ledger.Movement{
		ledger.Transfer(escrow, ledger.Wallet(alice), wager),
		ledger.Transfer(escrow, ledger.Wallet(bob), wager),
	}, st.Movements)
	assert.Equal(t, uint32(0), ch.Combat.Wins+ch.Combat.Losses)
	assert.False(t, ch.Combat.InCombat)
	assert.False(t, op.Combat.InCombat)
}

func TestResolve_Rejections(t *testing.T) {
	s, ch, op, cfg := arena(t)
	_, err := s.Resolve(alice, ch, op, cfg)
	assert.ErrorIs(t, err, gameerr.ErrSessionNotFinished)

	act(t, s, ch, op, cfg, alice, slotStrength, start+1)
	_, err = s.Resolve(uuid.New(), ch, op, cfg)
	assert.ErrorIs(t, err, gameerr.ErrNotParticipant)
	assert.False(t, s.Settled)
	assert.True(t, ch.Combat.InCombat)
}

func TestPot(t *testing.T) {
	s := combat.Session{WagerAmount: 500}
	pot, err := s.Pot()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), pot)

	s.OpponentStaked = true
	pot, err = s.Pot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), pot)

	s.WagerAmount = 1 << 63
	_, err = s.Pot()
	assert.ErrorIs(t, err, gameerr.ErrOverflow)
}

func TestResolve_StakedPotMatchesWinnerPayout(t *testing.T) {
	s, ch, op, cfg := arena(t)
	act(t, s, ch, op, cfg, alice, slotWisdom, start+1)
	act(t, s, ch, op, cfg, bob, slotWisdom, start+2)
	res := act(t, s, ch, op, cfg, alice, slotStrength, start+3)
	require.Equal(t, combat.ChallengerWon, res.Status)

	cfg.CombatWinnerPercentage = 75
	pot, payout, burn, err := economy.WinnerPayout(wager, 75)
	require.NoError(t, err)

	st, err := s.Resolve(alice, ch, op, cfg)
	require.NoError(t, err)
	assert.Equal(t, pot, st.Pot)
	assert.Equal(t, payout, st.Payout)
	assert.Equal(t, burn, st.Burned)
}

func TestTimedOut_AtExactTimeout(t *testing.T) {
	s := combat.Session{LastTurnTimestamp: start}
	assert.False(t, s.TimedOut(start+299, 300))
	assert.True(t, s.TimedOut(start+300, 300))
	assert.True(t, s.TimedOut(start+301, 300))
}

func TestSeed_Deterministic(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, combat.Seed(1, a, b, 100), combat.Seed(1, a, b, 100))
	assert.NotEqual(t, combat.Seed(1, a, b, 100), combat.Seed(1, a, b, 101))
	assert.NotEqual(t, combat.Seed(1, a, b, 100), combat.Seed(1, b, a, 100))
}

func TestStatusAndSideText(t *testing.T) {
	for _, st := range []combat.Status{combat.Active, combat.ChallengerWon, combat.OpponentWon, combat.Draw} {
		b, err := st.MarshalText()
		require.NoError(t, err)
		var got combat.Status
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, st, got)
	}
	assert.False(t, combat.Active.Finished())
	assert.True(t, combat.Draw.Finished())

	var side combat.Side
	require.NoError(t, side.UnmarshalText([]byte("opponent")))
	assert.Equal(t, combat.OpponentSide, side)
	assert.Equal(t, combat.ChallengerSide, side.Other())
	assert.Error(t, side.UnmarshalText([]byte("referee")))
}
