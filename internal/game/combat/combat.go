// Package combat implements wagered one-on-one beast combat: the per-turn
// damage and energy formulas and the session state machine that drives a match
// from initiation to settlement.
package combat

import (
	"github.com/cory-johannsen/zenbeasts/internal/game/entropy"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

// AbilityType selects the damage formula. Its value equals the core trait
// slot that powers it.
type AbilityType uint8

const (
	// Strength deals physical damage: V × L × 2.
	Strength AbilityType = iota
	// Agility deals speed damage: V × L × 3 / 2.
	Agility
	// Wisdom deals debuff damage: V × L.
	Wisdom
	// Vitality heals the actor: V × L × 3 / 2.
	Vitality
)

// String returns the ability label.
func (a AbilityType) String() string {
	switch a {
	case Strength:
		return "strength"
	case Agility:
		return "agility"
	case Wisdom:
		return "wisdom"
	case Vitality:
		return "vitality"
	default:
		return "invalid"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a AbilityType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AbilityType) UnmarshalText(b []byte) error {
	for _, c := range []AbilityType{Strength, Agility, Wisdom, Vitality} {
		if c.String() == string(b) {
			*a = c
			return nil
		}
	}
	return gameerr.Wrap(gameerr.ErrInvalidAbility, "%q", b)
}

// Heals reports whether the ability restores the actor instead of hurting the defender.
func (a AbilityType) Heals() bool { return a == Vitality }

// ParseAbilityType converts a raw byte into an AbilityType.
//
// Postcondition: Returns gameerr.ErrInvalidAbility for any value above 3.
func ParseAbilityType(v uint8) (AbilityType, error) {
	if v > uint8(Vitality) {
		return 0, gameerr.Wrap(gameerr.ErrInvalidAbility, "ability type %d", v)
	}
	return AbilityType(v), nil
}

const (
	// MaxTurns ends a match in a Draw when both sides are still standing.
	MaxTurns = 10
	// baseEnergyCost is the cost of a level-0 ability.
	baseEnergyCost = 20
	maxEnergyCost  = 100
)

// RandomFactor returns the turn multiplier ×100, in [80, 120].
//
// The digest input is seed (LE) || turn || ability.
func RandomFactor(seed uint64, turn uint8, ability AbilityType) uint32 {
	d := entropy.New().Uint64(seed).Uint8(turn).Uint8(uint8(ability)).Sum()
	return uint32(d.Byte(0)%41) + 80
}

// TurnDamage returns the damage, or for Vitality the healing, of one turn.
//
// The base amount uses the trait value V and ability level L in 32-bit
// arithmetic; the result is base × RandomFactor / 100 clamped to 16 bits.
//
// Postcondition: deterministic in its inputs; an ability above Vitality returns
// gameerr.ErrInvalidAbility.
func TurnDamage(seed uint64, turn uint8, trait, level uint8, ability AbilityType) (uint16, error) {
	if _, err := ParseAbilityType(uint8(ability)); err != nil {
		return 0, err
	}
	factor := RandomFactor(seed, turn, ability)

	vl := uint32(trait) * uint32(level)
	var base uint32
	switch ability {
	case Strength:
		base = vl * 2
	case Agility, Vitality:
		base = vl * 3 / 2
	case Wisdom:
		base = vl
	}

	// 255 × 255 × 2 × 120 fits in 32 bits, so no intermediate can overflow.
	final := base * factor / 100
	if final > 0xFFFF {
		final = 0xFFFF
	}
	return uint16(final), nil
}

// EnergyCost returns min(100, 20 + 2 × level). The ability type does not
// change the cost.
func EnergyCost(_ AbilityType, level uint8) uint8 {
	cost := baseEnergyCost + 2*uint32(level)
	if cost > maxEnergyCost {
		return maxEnergyCost
	}
	return uint8(cost)
}
