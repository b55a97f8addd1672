// Package beast defines the creature record and the mutations that keep its
// invariants intact.
package beast

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/game/cooldown"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/game/traits"
)

const (
	// MaxNameLen is the longest accepted beast name in bytes.
	MaxNameLen = 32
	// MaxURILen is the longest accepted metadata URI in bytes.
	MaxURILen = 200
	// AbilitySlots is the number of ability slots, one per core trait.
	AbilitySlots = traits.Core
	// MaxAbilityLevel is the level at which an ability can no longer be upgraded.
	MaxAbilityLevel = 10
	// HPPerVitality converts the Vitality trait to maximum hit points.
	HPPerVitality = 10
)

// Beast is a single creature. It holds no pointers, so assignment copies it.
type Beast struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Owner       uuid.UUID `json:"owner" yaml:"owner"`
	Name        string    `json:"name" yaml:"name"`
	MetadataURI string    `json:"metadata_uri" yaml:"metadata_uri"`

	Traits      traits.Vector `json:"traits" yaml:"traits"`
	RarityScore uint64        `json:"rarity_score" yaml:"rarity_score"`
	Generation  uint8         `json:"generation" yaml:"generation"`
	// Parents is zero for generation 0.
	Parents [2]uuid.UUID `json:"parents" yaml:"parents"`

	LastActivity   int64  `json:"last_activity" yaml:"last_activity"`
	ActivityCount  uint32 `json:"activity_count" yaml:"activity_count"`
	PendingRewards uint64 `json:"pending_rewards" yaml:"pending_rewards"`

	LastBreeding  int64 `json:"last_breeding" yaml:"last_breeding"`
	BreedingCount uint8 `json:"breeding_count" yaml:"breeding_count"`

	// Abilities holds the unlocked ability id per core-trait slot; 0 is locked.
	Abilities [AbilitySlots]uint8 `json:"abilities" yaml:"abilities"`
	// AbilityLevels holds the level 0-10 per slot.
	AbilityLevels [AbilitySlots]uint8 `json:"ability_levels" yaml:"ability_levels"`

	Combat CombatStats `json:"combat" yaml:"combat"`

	CreatedAt int64 `json:"created_at" yaml:"created_at"`
}

// ValidateMetadata checks the name and URI length limits.
//
// Postcondition: Returns gameerr.ErrNameTooLong or gameerr.ErrURITooLong on violation.
func ValidateMetadata(name, uri string) error {
	if len(name) > MaxNameLen {
		return gameerr.Wrap(gameerr.ErrNameTooLong, "%d bytes, max %d", len(name), MaxNameLen)
	}
	if len(uri) > MaxURILen {
		return gameerr.Wrap(gameerr.ErrURITooLong, "%d bytes, max %d", len(uri), MaxURILen)
	}
	return nil
}

// New builds a freshly minted generation-0 beast.
//
// Precondition: name and uri passed ValidateMetadata.
// Postcondition: HP is at max, energy is full, every counter is zero.
func New(id, owner uuid.UUID, name, uri string, t traits.Vector, rarity uint64, now int64) Beast {
	b := Beast{
		ID:          id,
		Owner:       owner,
		Name:        name,
		MetadataURI: uri,
		Traits:      t,
		RarityScore: rarity,
		CreatedAt:   now,
	}
	b.Combat.Reset(b.MaxHP())
	return b
}

// MaxHP returns Vitality × 10.
func (b *Beast) MaxHP() uint16 {
	return uint16(b.Traits[traits.Vitality]) * HPPerVitality
}

// IsOwnedBy reports whether id is the current owner.
func (b *Beast) IsOwnedBy(id uuid.UUID) bool { return b.Owner == id }

// RequireOwner returns gameerr.ErrNotOwner unless id owns b.
func (b *Beast) RequireOwner(id uuid.UUID) error {
	if !b.IsOwnedBy(id) {
		return gameerr.Wrap(gameerr.ErrNotOwner, "beast %s", b.ID)
	}
	return nil
}

// HasAbility reports whether the ability in slot is unlocked.
//
// Precondition: slot < AbilitySlots.
func (b *Beast) HasAbility(slot uint8) bool {
	return b.Abilities[slot] > 0
}

// CanPerformActivity reports whether the activity cooldown has elapsed.
func (b *Beast) CanPerformActivity(now, cd int64) bool {
	return cooldown.CanAct(now, b.LastActivity, cd)
}

// CanBreed reports whether the breeding cooldown has elapsed.
func (b *Beast) CanBreed(now, cd int64) bool {
	return cooldown.CanAct(now, b.LastBreeding, cd)
}

// BreedingAvailable reports whether the beast has breedings left.
func (b *Beast) BreedingAvailable(max uint8) bool {
	return b.BreedingCount < max
}

// CanEnterCombat reports whether the beast is idle and past its combat cooldown.
func (b *Beast) CanEnterCombat(now, cd int64) bool {
	return cooldown.CanEnterCombat(now, b.Combat.LastCombat, cd, b.Combat.InCombat)
}

// RecordActivity stamps an activity at now.
//
// Postcondition: on success LastActivity == now and ActivityCount grew by one;
// on error b is unchanged.
func (b *Beast) RecordActivity(now int64) error {
	if b.ActivityCount == ^uint32(0) {
		return gameerr.Wrap(gameerr.ErrOverflow, "activity count")
	}
	b.LastActivity = now
	b.ActivityCount++
	return nil
}

// Accrue adds amount to the pending rewards.
//
// Postcondition: on error PendingRewards is unchanged.
func (b *Beast) Accrue(amount uint64) error {
	if b.PendingRewards > ^uint64(0)-amount {
		return gameerr.Wrap(gameerr.ErrOverflow, "pending rewards")
	}
	b.PendingRewards += amount
	return nil
}

// SettleRewards zeroes the pending rewards and restarts accrual at now.
// It does not count as an activity.
func (b *Beast) SettleRewards(now int64) {
	b.PendingRewards = 0
	b.LastActivity = now
}

// RecordBreeding stamps a breeding at now.
//
// Postcondition: on error b is unchanged.
func (b *Beast) RecordBreeding(now int64) error {
	if b.BreedingCount == ^uint8(0) {
		return gameerr.Wrap(gameerr.ErrOverflow, "breeding count")
	}
	b.LastBreeding = now
	b.BreedingCount++
	return nil
}

// UpgradeTrait raises core trait idx by one and recomputes rarity.
//
// Postcondition: on success Traits[idx] grew by one and RarityScore == traits.Rarity(Traits);
// Returns gameerr.ErrInvalidTraitIndex or gameerr.ErrTraitMaxReached without mutating.
func (b *Beast) UpgradeTrait(idx traits.Index) (old, next uint8, err error) {
	if !idx.Valid() {
		return 0, 0, gameerr.Wrap(gameerr.ErrInvalidTraitIndex, "index %d", idx)
	}
	old = b.Traits[idx]
	if old == traits.MaxValue {
		return old, old, gameerr.Wrap(gameerr.ErrTraitMaxReached, "%s", idx)
	}
	b.Traits[idx] = old + 1
	b.RarityScore = traits.Rarity(b.Traits)
	return old, old + 1, nil
}

// UnlockAbility stores abilityID in slot at level 1.
//
// Postcondition: Returns gameerr.ErrInvalidTraitIndex, gameerr.ErrInvalidAbility,
// or gameerr.ErrAbilityAlreadyUnlocked without mutating.
func (b *Beast) UnlockAbility(slot, abilityID uint8) error {
	if slot >= AbilitySlots {
		return gameerr.Wrap(gameerr.ErrInvalidTraitIndex, "slot %d", slot)
	}
	if abilityID == 0 {
		return gameerr.Wrap(gameerr.ErrInvalidAbility, "ability id 0 is reserved for locked slots")
	}
	if b.HasAbility(slot) {
		return gameerr.Wrap(gameerr.ErrAbilityAlreadyUnlocked, "slot %d", slot)
	}
	b.Abilities[slot] = abilityID
	b.AbilityLevels[slot] = 1
	return nil
}

// CheckAbilityUpgrade validates that slot may be upgraded and returns its current level.
func (b *Beast) CheckAbilityUpgrade(slot uint8) (uint8, error) {
	if slot >= AbilitySlots {
		return 0, gameerr.Wrap(gameerr.ErrInvalidTraitIndex, "slot %d", slot)
	}
	if !b.HasAbility(slot) {
		return 0, gameerr.Wrap(gameerr.ErrAbilityNotUnlocked, "slot %d", slot)
	}
	level := b.AbilityLevels[slot]
	if level >= MaxAbilityLevel {
		return level, gameerr.Wrap(gameerr.ErrAbilityMaxLevel, "slot %d", slot)
	}
	return level, nil
}

// UpgradeAbility raises the level of slot by one.
//
// Postcondition: on error b is unchanged.
func (b *Beast) UpgradeAbility(slot uint8) (uint8, error) {
	level, err := b.CheckAbilityUpgrade(slot)
	if err != nil {
		return 0, err
	}
	b.AbilityLevels[slot] = level + 1
	return level + 1, nil
}

// ResetCombatStats restores HP to max and energy to full.
func (b *Beast) ResetCombatStats() {
	b.Combat.Reset(b.MaxHP())
}

// Validate checks every structural invariant of the record.
//
// Postcondition: Returns nil iff reserved traits are zero, rarity matches the
// core traits, ability levels are in range, and combat stats are within bounds.
func (b *Beast) Validate() error {
	if err := ValidateMetadata(b.Name, b.MetadataURI); err != nil {
		return err
	}
	if !b.Traits.ReservedClear() {
		return gameerr.Wrap(gameerr.ErrInvalidTraitIndex, "reserved trait set on beast %s", b.ID)
	}
	if want := traits.Rarity(b.Traits); b.RarityScore != want {
		return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "rarity %d, want %d", b.RarityScore, want)
	}
	for i := 0; i < AbilitySlots; i++ {
		if b.AbilityLevels[i] > MaxAbilityLevel {
			return gameerr.Wrap(gameerr.ErrAbilityMaxLevel, "slot %d at level %d", i, b.AbilityLevels[i])
		}
	}
	return b.Combat.Validate(b.MaxHP())
}
