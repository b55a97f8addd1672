// Package economy computes what beast operations cost and how a spend is
// split between burning and the treasury.
//
// Every function is pure and uses checked arithmetic: an overflow is returned
// as gameerr.ErrOverflow, never wrapped around.
package economy

import (
	"math/bits"

	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

const (
	maxTraitValue   = 255
	maxAbilityLevel = 10
)

// TraitUpgradeCost returns base × (scaling + current) / scaling.
//
// Precondition: scaling > 0.
// Postcondition: Returns gameerr.ErrTraitMaxReached when current is 255, before
// any cost is computed.
func TraitUpgradeCost(base, scaling uint64, current uint8) (uint64, error) {
	if current == maxTraitValue {
		return 0, gameerr.Wrap(gameerr.ErrTraitMaxReached, "trait value %d", current)
	}
	if scaling == 0 {
		return 0, gameerr.Wrap(gameerr.ErrOverflow, "upgrade scaling factor is zero")
	}
	factor, err := add(scaling, uint64(current))
	if err != nil {
		return 0, err
	}
	numerator, err := mul(base, factor)
	if err != nil {
		return 0, err
	}
	return numerator / scaling, nil
}

// AbilityUnlockCost returns the fixed unlock cost.
//
// Postcondition: Returns gameerr.ErrAbilityAlreadyUnlocked if the slot is taken.
func AbilityUnlockCost(cost uint64, unlocked bool) (uint64, error) {
	if unlocked {
		return 0, gameerr.ErrAbilityAlreadyUnlocked
	}
	return cost, nil
}

// AbilityUpgradeCost returns unit × level.
//
// Postcondition: Returns gameerr.ErrAbilityMaxLevel once level reaches 10.
func AbilityUpgradeCost(unit uint64, level uint8) (uint64, error) {
	if level >= maxAbilityLevel {
		return 0, gameerr.Wrap(gameerr.ErrAbilityMaxLevel, "level %d", level)
	}
	return mul(unit, uint64(level))
}

// BreedingCost returns base × multiplier^max(genA, genB).
//
// The power is built by repeated checked multiplication, so an exponent of 0
// yields base whatever the multiplier is.
func BreedingCost(base, multiplier uint64, genA, genB uint8) (uint64, error) {
	exp := max(genA, genB)
	power := uint64(1)
	for i := uint8(0); i < exp; i++ {
		var err error
		if power, err = mul(power, multiplier); err != nil {
			return 0, gameerr.Wrap(err, "multiplier %d ^ generation %d", multiplier, exp)
		}
	}
	return mul(base, power)
}

// BurnSplit splits cost into the burned share floor(cost × pct / 100) and the
// treasury remainder.
//
// Postcondition: burn + treasury == cost. pct > 100 returns
// gameerr.ErrInvalidBurnPercent.
func BurnSplit(cost uint64, pct uint8) (burn, treasury uint64, err error) {
	if pct > 100 {
		return 0, 0, gameerr.Wrap(gameerr.ErrInvalidBurnPercent, "%d", pct)
	}
	burn, err = percent(cost, pct)
	if err != nil {
		return 0, 0, err
	}
	return burn, cost - burn, nil
}

// AbilitySplit splits an ability spend: half is burned, the rest goes to treasury.
//
// Postcondition: burn + treasury == cost; treasury - burn is 0 or 1.
func AbilitySplit(cost uint64) (burn, treasury uint64) {
	burn = cost / 2
	return burn, cost - burn
}

// AccruedRewards returns (now - last) × rate.
//
// Postcondition: Returns 0 for a beast that never acted (last == 0).
// A clock behind last returns gameerr.ErrUnderflow.
func AccruedRewards(now, last int64, rate uint64) (uint64, error) {
	if last == 0 {
		return 0, nil
	}
	if now < last {
		return 0, gameerr.Wrap(gameerr.ErrUnderflow, "now %d before last activity %d", now, last)
	}
	return mul(uint64(now-last), rate)
}

// WinnerPayout splits a decisive combat pot.
//
// Postcondition: pot == wager × 2, payout == pot × pct / 100, payout + burn == pot.
func WinnerPayout(wager uint64, pct uint8) (pot, payout, burn uint64, err error) {
	if pot, err = mul(wager, 2); err != nil {
		return 0, 0, 0, err
	}
	payout, burn, err = SplitPot(pot, pct)
	return pot, payout, burn, err
}

// SplitPot pays pct of pot to the winner and burns the rest.
func SplitPot(pot uint64, pct uint8) (payout, burn uint64, err error) {
	if pct > 100 {
		return 0, 0, gameerr.Wrap(gameerr.ErrInvalidConfiguration, "winner percentage %d", pct)
	}
	if payout, err = percent(pot, pct); err != nil {
		return 0, 0, err
	}
	return payout, pot - payout, nil
}

func percent(v uint64, pct uint8) (uint64, error) {
	p, err := mul(v, uint64(pct))
	if err != nil {
		return 0, err
	}
	return p / 100, nil
}

func mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, gameerr.Wrap(gameerr.ErrOverflow, "%d × %d", a, b)
	}
	return lo, nil
}

func add(a, b uint64) (uint64, error) {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, gameerr.Wrap(gameerr.ErrOverflow, "%d + %d", a, b)
	}
	return s, nil
}
