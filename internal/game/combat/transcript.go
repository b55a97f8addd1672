package combat

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

// TurnRecord is the auditable part of one executed turn.
type TurnRecord struct {
	Turn      uint8       `json:"turn" yaml:"turn"`
	Side      Side        `json:"side" yaml:"side"`
	Ability   AbilityType `json:"ability" yaml:"ability"`
	Trait     uint8       `json:"trait" yaml:"trait"`
	Level     uint8       `json:"level" yaml:"level"`
	Effect    uint16      `json:"effect" yaml:"effect"`
	Energy    uint8       `json:"energy_cost" yaml:"energy_cost"`
	Timestamp int64       `json:"timestamp" yaml:"timestamp"`
}

// Record extracts the auditable fields of r, stamped at now.
func (r TurnResult) Record(now int64) TurnRecord {
	return TurnRecord{
		Turn:      r.Turn,
		Side:      r.Side,
		Ability:   r.Ability,
		Trait:     r.Trait,
		Level:     r.Level,
		Effect:    r.Effect,
		Energy:    r.EnergyCost,
		Timestamp: now,
	}
}

// Transcript is the full turn history of a session. Anyone holding it can
// recompute every turn from the seed.
type Transcript struct {
	SessionID  uint64       `json:"session_id" yaml:"session_id"`
	Challenger uuid.UUID    `json:"challenger" yaml:"challenger"`
	Opponent   uuid.UUID    `json:"opponent" yaml:"opponent"`
	Seed       uint64       `json:"combat_seed" yaml:"combat_seed"`
	Status     Status       `json:"status" yaml:"status"`
	Turns      []TurnRecord `json:"turns" yaml:"turns"`
}

// NewTranscript returns the transcript of s with the given turns.
func NewTranscript(s Session, turns []TurnRecord) Transcript {
	return Transcript{
		SessionID:  s.ID,
		Challenger: s.Challenger,
		Opponent:   s.Opponent,
		Seed:       s.CombatSeed,
		Status:     s.Status,
		Turns:      turns,
	}
}

// Replay recomputes every recorded turn and returns the first disagreement.
//
// Postcondition: Returns nil iff turns are numbered 0..n-1, alternate sides
// starting with the challenger, and every effect and energy cost matches
// TurnDamage and EnergyCost. A failure matches gameerr.ErrTranscriptMismatch.
func Replay(t Transcript) error {
	for i, rec := range t.Turns {
		if int(rec.Turn) != i {
			return gameerr.Wrap(gameerr.ErrTranscriptMismatch, "record %d claims turn %d", i, rec.Turn)
		}
		want := ChallengerSide
		if i%2 == 1 {
			want = OpponentSide
		}
		if rec.Side != want {
			return gameerr.Wrap(gameerr.ErrTranscriptMismatch, "turn %d played by %s, want %s", i, rec.Side, want)
		}
		effect, err := TurnDamage(t.Seed, rec.Turn, rec.Trait, rec.Level, rec.Ability)
		if err != nil {
			return gameerr.Wrap(err, "turn %d", i)
		}
		if effect != rec.Effect {
			return gameerr.Wrap(gameerr.ErrTranscriptMismatch, "turn %d effect %d, recomputed %d", i, rec.Effect, effect)
		}
		if cost := EnergyCost(rec.Ability, rec.Level); cost != rec.Energy {
			return gameerr.Wrap(gameerr.ErrTranscriptMismatch, "turn %d energy %d, recomputed %d", i, rec.Energy, cost)
		}
	}
	if len(t.Turns) > MaxTurns {
		return gameerr.Wrap(gameerr.ErrTranscriptMismatch, "%d turns exceeds %d", len(t.Turns), MaxTurns)
	}
	return nil
}
