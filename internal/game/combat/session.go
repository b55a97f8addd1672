package combat

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/cooldown"
	"github.com/cory-johannsen/zenbeasts/internal/game/economy"
	"github.com/cory-johannsen/zenbeasts/internal/game/entropy"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
)

// Status is the lifecycle state of a session. Every status except Active is terminal.
type Status uint8

const (
	Active Status = iota
	ChallengerWon
	OpponentWon
	Draw
)

// String returns the status label.
func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case ChallengerWon:
		return "challenger_won"
	case OpponentWon:
		return "opponent_won"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{Active, ChallengerWon, OpponentWon, Draw} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown combat status %q", b)
}

// Finished reports whether s is terminal.
func (s Status) Finished() bool { return s != Active }

// Side names one of the two participants.
type Side uint8

const (
	ChallengerSide Side = iota
	OpponentSide
)

// String returns the side label.
func (s Side) String() string {
	if s == ChallengerSide {
		return "challenger"
	}
	return "opponent"
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "challenger":
		*s = ChallengerSide
	case "opponent":
		*s = OpponentSide
	default:
		return fmt.Errorf("unknown combat side %q", b)
	}
	return nil
}

// Other returns the opposing side.
func (s Side) Other() Side { return 1 - s }

// Session is one wagered match between two beasts.
type Session struct {
	ID              uint64    `json:"id" yaml:"id"`
	Challenger      uuid.UUID `json:"challenger" yaml:"challenger"`
	Opponent        uuid.UUID `json:"opponent" yaml:"opponent"`
	ChallengerOwner uuid.UUID `json:"challenger_owner" yaml:"challenger_owner"`
	OpponentOwner   uuid.UUID `json:"opponent_owner" yaml:"opponent_owner"`
	// WagerAmount is the stake of each side.
	WagerAmount uint64 `json:"wager_amount" yaml:"wager_amount"`
	// TurnCount is even on the challenger's turn.
	TurnCount         uint8  `json:"turn_count" yaml:"turn_count"`
	ChallengerHP      uint16 `json:"challenger_hp" yaml:"challenger_hp"`
	OpponentHP        uint16 `json:"opponent_hp" yaml:"opponent_hp"`
	LastTurnTimestamp int64  `json:"last_turn_timestamp" yaml:"last_turn_timestamp"`
	CombatSeed        uint64 `json:"combat_seed" yaml:"combat_seed"`
	Status            Status `json:"status" yaml:"status"`
	// OpponentStaked is set once the opponent's wager reached escrow on its first turn.
	OpponentStaked bool `json:"opponent_staked" yaml:"opponent_staked"`
	// Settled is set by Resolve; a settled session is archived.
	Settled bool `json:"settled" yaml:"settled"`
}

// Seed derives the combat seed from the first 8 digest bytes of
// id (LE) || challenger || opponent || now (LE).
func Seed(id uint64, challenger, opponent uuid.UUID, now int64) uint64 {
	return entropy.New().Uint64(id).UUID(challenger).UUID(opponent).Int64(now).Sum().Uint64(0)
}

// Challenge is a request to open a session.
type Challenge struct {
	SessionID uint64
	// Caller must own the challenger beast.
	Caller uuid.UUID
	Wager  uint64
	// Balance is the caller's wallet balance.
	Balance uint64
	Now     int64
}

// Initiate opens a session between challenger and opponent.
//
// Both beasts get full HP and energy, are flagged in combat, and have their
// last-combat time stamped. The returned movement escrows the challenger's
// wager; the opponent stakes on its first turn.
//
// Precondition: cfg passed Validate.
// Postcondition: on error neither beast is modified.
func Initiate(c Challenge, challenger, opponent *beast.Beast, cfg config.GameConfig) (Session, ledger.Movement, error) {
	if err := challenger.RequireOwner(c.Caller); err != nil {
		return Session{}, ledger.Movement{}, err
	}
	if challenger.ID == opponent.ID {
		return Session{}, ledger.Movement{}, gameerr.Wrap(gameerr.ErrSameBeast, "beast %s", challenger.ID)
	}
	if challenger.Owner == opponent.Owner {
		return Session{}, ledger.Movement{}, gameerr.Wrap(gameerr.ErrSelfCombat, "owner %s", challenger.Owner)
	}
	if c.Wager < cfg.MinCombatWager || c.Wager > cfg.MaxCombatWager {
		return Session{}, ledger.Movement{}, gameerr.Wrap(gameerr.ErrWagerOutOfBounds,
			"wager %d not in [%d, %d]", c.Wager, cfg.MinCombatWager, cfg.MaxCombatWager)
	}
	if challenger.Combat.InCombat {
		return Session{}, ledger.Movement{}, gameerr.Wrap(gameerr.ErrBeastInCombat, "beast %s", challenger.ID)
	}
	if !challenger.CanEnterCombat(c.Now, cfg.CombatCooldown) {
		return Session{}, ledger.Movement{}, gameerr.Wrap(gameerr.ErrCombatCooldownActive, "%ds remaining",
			cooldown.Remaining(c.Now, challenger.Combat.LastCombat, cfg.CombatCooldown))
	}
	if !opponent.CanEnterCombat(c.Now, cfg.CombatCooldown) {
		return Session{}, ledger.Movement{}, gameerr.Wrap(gameerr.ErrOpponentNotAvailable, "beast %s", opponent.ID)
	}
	if c.Balance < c.Wager {
		return Session{}, ledger.Movement{}, gameerr.Wrap(gameerr.ErrInsufficientFunds,
			"balance %d, wager %d", c.Balance, c.Wager)
	}

	s := Session{
		ID:                c.SessionID,
		Challenger:        challenger.ID,
		Opponent:          opponent.ID,
		ChallengerOwner:   challenger.Owner,
		OpponentOwner:     opponent.Owner,
		WagerAmount:       c.Wager,
		ChallengerHP:      challenger.MaxHP(),
		OpponentHP:        opponent.MaxHP(),
		LastTurnTimestamp: c.Now,
		CombatSeed:        Seed(c.SessionID, challenger.ID, opponent.ID, c.Now),
		Status:            Active,
	}
	for _, b := range []*beast.Beast{challenger, opponent} {
		b.ResetCombatStats()
		b.Combat.Enter(c.Now)
	}
	return s, ledger.Transfer(ledger.Wallet(c.Caller), ledger.Escrow(s.ID), c.Wager), nil
}

// Turn is a request to act in a session.
type Turn struct {
	Actor uuid.UUID
	// AbilityIndex is the ability slot to use; it also selects the AbilityType.
	AbilityIndex uint8
	// Balance is the actor's wallet balance, consulted for the opponent's stake.
	Balance uint64
	Now     int64
}

// TurnResult describes one executed turn.
type TurnResult struct {
	// Turn is the turn number before the increment.
	Turn       uint8       `json:"turn"`
	Side       Side        `json:"side"`
	Ability    AbilityType `json:"ability"`
	Trait      uint8       `json:"trait"`
	Level      uint8       `json:"level"`
	Effect     uint16      `json:"effect"`
	EnergyCost uint8       `json:"energy_cost"`
	Status     Status      `json:"status"`
	// Stake escrows the opponent's wager on its first turn; nil otherwise.
	Stake *ledger.Movement `json:"stake,omitempty"`
}

// SideOf returns which side id controls.
func (s *Session) SideOf(id uuid.UUID) (Side, bool) {
	switch id {
	case s.ChallengerOwner:
		return ChallengerSide, true
	case s.OpponentOwner:
		return OpponentSide, true
	}
	return 0, false
}

// ToAct returns the side whose turn it is.
func (s *Session) ToAct() Side {
	if s.TurnCount%2 == 0 {
		return ChallengerSide
	}
	return OpponentSide
}

// TimedOut reports whether at least the turn timeout has passed since the last turn.
func (s *Session) TimedOut(now, timeout int64) bool {
	return cooldown.Elapsed(now, s.LastTurnTimestamp) >= timeout
}

// Owner returns the controller of side.
func (s *Session) Owner(side Side) uuid.UUID {
	if side == ChallengerSide {
		return s.ChallengerOwner
	}
	return s.OpponentOwner
}

func (s *Session) hp(side Side) *uint16 {
	if side == ChallengerSide {
		return &s.ChallengerHP
	}
	return &s.OpponentHP
}

func (s *Session) match(challenger, opponent *beast.Beast) error {
	if challenger.ID != s.Challenger || opponent.ID != s.Opponent {
		return gameerr.Wrap(gameerr.ErrSessionMismatch, "session %d", s.ID)
	}
	return nil
}

// ExecuteTurn plays one turn for t.Actor.
//
// The acting beast spends energy (floored at 0, never rejected) and either
// heals itself (Vitality) or damages the defender. The session then checks for
// a winner: defender at 0 HP means the actor wins, actor at 0 HP means the
// defender wins, and reaching MaxTurns with both standing is a Draw.
//
// Precondition: challenger and opponent are the session's beasts.
// Postcondition: on error neither the session nor the beasts are modified.
func (s *Session) ExecuteTurn(t Turn, challenger, opponent *beast.Beast, cfg config.GameConfig) (TurnResult, error) {
	if err := s.match(challenger, opponent); err != nil {
		return TurnResult{}, err
	}
	if s.Status != Active {
		return TurnResult{}, gameerr.Wrap(gameerr.ErrSessionNotActive, "session %d is %s", s.ID, s.Status)
	}
	side, ok := s.SideOf(t.Actor)
	if !ok {
		return TurnResult{}, gameerr.Wrap(gameerr.ErrNotParticipant, "session %d", s.ID)
	}
	if s.TimedOut(t.Now, cfg.CombatTurnTimeout) {
		return TurnResult{}, gameerr.Wrap(gameerr.ErrTurnTimeout, "last turn at %d", s.LastTurnTimestamp)
	}
	if side != s.ToAct() {
		return TurnResult{}, gameerr.Wrap(gameerr.ErrInvalidTurn, "turn %d belongs to the %s", s.TurnCount, s.ToAct())
	}

	var stake *ledger.Movement
	if s.TurnCount == 1 && side == OpponentSide && !s.OpponentStaked {
		if t.Balance < s.WagerAmount {
			return TurnResult{}, gameerr.Wrap(gameerr.ErrInsufficientFunds,
				"balance %d, wager %d", t.Balance, s.WagerAmount)
		}
		m := ledger.Transfer(ledger.Wallet(t.Actor), ledger.Escrow(s.ID), s.WagerAmount)
		stake = &m
	}

	if t.AbilityIndex >= beast.AbilitySlots {
		return TurnResult{}, gameerr.Wrap(gameerr.ErrInvalidTraitIndex, "ability index %d", t.AbilityIndex)
	}
	actor, defender := challenger, opponent
	if side == OpponentSide {
		actor, defender = opponent, challenger
	}
	if !actor.HasAbility(t.AbilityIndex) {
		return TurnResult{}, gameerr.Wrap(gameerr.ErrAbilityNotUnlocked, "slot %d", t.AbilityIndex)
	}
	ability, err := ParseAbilityType(t.AbilityIndex)
	if err != nil {
		return TurnResult{}, err
	}
	trait := actor.Traits[t.AbilityIndex]
	level := actor.AbilityLevels[t.AbilityIndex]
	effect, err := TurnDamage(s.CombatSeed, s.TurnCount, trait, level, ability)
	if err != nil {
		return TurnResult{}, err
	}
	energy := EnergyCost(ability, level)

	res := TurnResult{
		Turn:       s.TurnCount,
		Side:       side,
		Ability:    ability,
		Trait:      trait,
		Level:      level,
		Effect:     effect,
		EnergyCost: energy,
		Stake:      stake,
	}

	actor.Combat.Drain(energy)
	if ability.Heals() {
		*s.hp(side) = actor.Combat.Heal(effect, actor.MaxHP())
	} else {
		*s.hp(side.Other()) = defender.Combat.Damage(effect)
	}
	if stake != nil {
		s.OpponentStaked = true
	}
	s.TurnCount++
	s.LastTurnTimestamp = t.Now

	switch {
	case *s.hp(side.Other()) == 0:
		s.Status = winFor(side)
	case *s.hp(side) == 0:
		s.Status = winFor(side.Other())
	case s.TurnCount >= MaxTurns:
		s.Status = Draw
	}
	res.Status = s.Status
	return res, nil
}

func winFor(side Side) Status {
	if side == ChallengerSide {
		return ChallengerWon
	}
	return OpponentWon
}

// Settlement is the value distribution of a finished session.
type Settlement struct {
	SessionID uint64 `json:"session_id"`
	Status    Status `json:"status"`
	// Winner is the winning beast; zero on a Draw.
	Winner uuid.UUID `json:"winner"`
	Pot    uint64    `json:"pot"`
	Payout uint64    `json:"payout"`
	Burned uint64    `json:"burned"`
	// Movements drain the session escrow.
	Movements []ledger.Movement `json:"movements"`
}

// Pot returns the escrowed total: both wagers once the opponent has staked,
// otherwise the challenger's wager alone.
func (s *Session) Pot() (uint64, error) {
	if !s.OpponentStaked {
		return s.WagerAmount, nil
	}
	pot, _, _, err := economy.WinnerPayout(s.WagerAmount, 0)
	return pot, err
}

// split divides pot between the winner and the burn.
func (s *Session) split(pot uint64, pct uint8) (payout, burn uint64, err error) {
	if !s.OpponentStaked {
		return economy.SplitPot(pot, pct)
	}
	_, payout, burn, err = economy.WinnerPayout(s.WagerAmount, pct)
	return payout, burn, err
}

// Resolve settles a finished session.
//
// A decisive result pays CombatWinnerPercentage of the pot to the winner's
// owner and burns the remainder; the winner gains a win and the loser a loss.
// A Draw refunds each staked wager in full. Both beasts leave combat whatever
// the outcome. A challenger win before the opponent stakes splits the
// challenger's wager alone, since that is all the escrow holds.
//
// Postcondition: on success Settled is true; on error nothing is modified.
func (s *Session) Resolve(resolver uuid.UUID, challenger, opponent *beast.Beast, cfg config.GameConfig) (Settlement, error) {
	if err := s.match(challenger, opponent); err != nil {
		return Settlement{}, err
	}
	if s.Status == Active {
		return Settlement{}, gameerr.Wrap(gameerr.ErrSessionNotFinished, "session %d", s.ID)
	}
	if s.Settled {
		return Settlement{}, gameerr.Wrap(gameerr.ErrSessionSettled, "session %d", s.ID)
	}
	if _, ok := s.SideOf(resolver); !ok {
		return Settlement{}, gameerr.Wrap(gameerr.ErrNotParticipant, "session %d", s.ID)
	}

	pot, err := s.Pot()
	if err != nil {
		return Settlement{}, err
	}
	escrow := ledger.Escrow(s.ID)
	st := Settlement{SessionID: s.ID, Status: s.Status, Pot: pot}

	var winner, loser *beast.Beast
	var winSide Side
	switch s.Status {
	case ChallengerWon:
		winner, loser, winSide = challenger, opponent, ChallengerSide
	case OpponentWon:
		winner, loser, winSide = opponent, challenger, OpponentSide
	}

	if winner != nil {
		payout, burn, err := s.split(pot, cfg.CombatWinnerPercentage)
		if err != nil {
			return Settlement{}, err
		}
		if err := winner.Combat.CheckRecord(true); err != nil {
			return Settlement{}, err
		}
		if err := loser.Combat.CheckRecord(false); err != nil {
			return Settlement{}, err
		}
		st.Winner, st.Payout, st.Burned = winner.ID, payout, burn
		if payout > 0 {
			st.Movements = append(st.Movements, ledger.Transfer(escrow, ledger.Wallet(s.Owner(winSide)), payout))
		}
		if burn > 0 {
			st.Movements = append(st.Movements, ledger.Burn(escrow, burn))
		}
		winner.Combat.Record(true)
		loser.Combat.Record(false)
	} else {
		st.Movements = append(st.Movements, ledger.Transfer(escrow, ledger.Wallet(s.ChallengerOwner), s.WagerAmount))
		if s.OpponentStaked {
			st.Movements = append(st.Movements, ledger.Transfer(escrow, ledger.Wallet(s.OpponentOwner), s.WagerAmount))
		}
	}

	challenger.Combat.Leave()
	opponent.Combat.Leave()
	s.Settled = true
	return st, nil
}
