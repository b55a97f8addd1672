package config

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

// GameConfig is the rules snapshot every calculator and state transition reads.
// It is a plain value: callers pass it explicitly and mutate it only through
// Apply, which returns a new snapshot.
type GameConfig struct {
	// Authority is the only identity allowed to update the configuration.
	Authority uuid.UUID `mapstructure:"authority" yaml:"authority" json:"authority"`

	ActivityCooldown  int64 `mapstructure:"activity_cooldown" yaml:"activity_cooldown" json:"activity_cooldown"`
	BreedingCooldown  int64 `mapstructure:"breeding_cooldown" yaml:"breeding_cooldown" json:"breeding_cooldown"`
	CombatCooldown    int64 `mapstructure:"combat_cooldown" yaml:"combat_cooldown" json:"combat_cooldown"`
	CombatTurnTimeout int64 `mapstructure:"combat_turn_timeout" yaml:"combat_turn_timeout" json:"combat_turn_timeout"`

	MaxBreedingCount uint8 `mapstructure:"max_breeding_count" yaml:"max_breeding_count" json:"max_breeding_count"`

	UpgradeBaseCost      uint64 `mapstructure:"upgrade_base_cost" yaml:"upgrade_base_cost" json:"upgrade_base_cost"`
	UpgradeScalingFactor uint64 `mapstructure:"upgrade_scaling_factor" yaml:"upgrade_scaling_factor" json:"upgrade_scaling_factor"`
	BreedingBaseCost     uint64 `mapstructure:"breeding_base_cost" yaml:"breeding_base_cost" json:"breeding_base_cost"`
	GenerationMultiplier uint64 `mapstructure:"generation_multiplier" yaml:"generation_multiplier" json:"generation_multiplier"`
	RewardRate           uint64 `mapstructure:"reward_rate" yaml:"reward_rate" json:"reward_rate"`
	AbilityUnlockCost    uint64 `mapstructure:"ability_unlock_cost" yaml:"ability_unlock_cost" json:"ability_unlock_cost"`
	AbilityUpgradeCost   uint64 `mapstructure:"ability_upgrade_cost" yaml:"ability_upgrade_cost" json:"ability_upgrade_cost"`
	MinCombatWager       uint64 `mapstructure:"min_combat_wager" yaml:"min_combat_wager" json:"min_combat_wager"`
	MaxCombatWager       uint64 `mapstructure:"max_combat_wager" yaml:"max_combat_wager" json:"max_combat_wager"`

	// BurnPercentage is the share of every spend that is destroyed, 0-100.
	BurnPercentage uint8 `mapstructure:"burn_percentage" yaml:"burn_percentage" json:"burn_percentage"`
	// CombatWinnerPercentage is the share of the pot paid to a decisive winner, 0-100.
	CombatWinnerPercentage uint8 `mapstructure:"combat_winner_percentage" yaml:"combat_winner_percentage" json:"combat_winner_percentage"`

	// RarityThresholds are the ascending floors of Common..Legendary.
	RarityThresholds [5]uint64 `mapstructure:"rarity_thresholds" yaml:"rarity_thresholds" json:"rarity_thresholds"`

	// TotalMinted counts every beast created or bred.
	TotalMinted uint64 `mapstructure:"-" yaml:"total_minted" json:"total_minted"`
}

// DefaultGameConfig returns the stock rules.
//
// Postcondition: the returned value passes Validate.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		ActivityCooldown:       3600,
		BreedingCooldown:       7200,
		CombatCooldown:         300,
		CombatTurnTimeout:      300,
		MaxBreedingCount:       5,
		UpgradeBaseCost:        100,
		UpgradeScalingFactor:   10,
		BreedingBaseCost:       1000,
		GenerationMultiplier:   2,
		RewardRate:             10,
		AbilityUnlockCost:      500,
		AbilityUpgradeCost:     250,
		MinCombatWager:         100,
		MaxCombatWager:         1_000_000,
		BurnPercentage:         10,
		CombatWinnerPercentage: 90,
		RarityThresholds:       [5]uint64{400, 600, 800, 950, 1020},
	}
}

// Validate checks the invariants every calculator relies on.
//
// Postcondition: Returns nil, or an error matching gameerr.ErrInvalidBurnPercent
// or gameerr.ErrInvalidConfiguration that names the first offending field.
func (g GameConfig) Validate() error {
	if g.BurnPercentage > 100 {
		return gameerr.Wrap(gameerr.ErrInvalidBurnPercent, "burn_percentage=%d", g.BurnPercentage)
	}
	if g.CombatWinnerPercentage > 100 {
		return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "combat_winner_percentage=%d", g.CombatWinnerPercentage)
	}
	for _, c := range []struct {
		name string
		v    int64
	}{
		{"activity_cooldown", g.ActivityCooldown},
		{"breeding_cooldown", g.BreedingCooldown},
		{"combat_cooldown", g.CombatCooldown},
		{"combat_turn_timeout", g.CombatTurnTimeout},
	} {
		if c.v <= 0 {
			return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "%s must be > 0, got %d", c.name, c.v)
		}
	}
	for _, c := range []struct {
		name string
		v    uint64
	}{
		{"upgrade_base_cost", g.UpgradeBaseCost},
		{"upgrade_scaling_factor", g.UpgradeScalingFactor},
		{"breeding_base_cost", g.BreedingBaseCost},
		{"reward_rate", g.RewardRate},
	} {
		if c.v == 0 {
			return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "%s must be > 0", c.name)
		}
	}
	if g.MinCombatWager > g.MaxCombatWager {
		return gameerr.Wrap(gameerr.ErrInvalidConfiguration,
			"min_combat_wager %d exceeds max_combat_wager %d", g.MinCombatWager, g.MaxCombatWager)
	}
	for i := 1; i < len(g.RarityThresholds); i++ {
		if g.RarityThresholds[i] < g.RarityThresholds[i-1] {
			return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "rarity_thresholds must be ascending")
		}
	}
	return nil
}

// Patch is a partial configuration update. Nil fields are left unchanged.
type Patch struct {
	ActivityCooldown       *int64  `json:"activity_cooldown,omitempty"`
	BreedingCooldown       *int64  `json:"breeding_cooldown,omitempty"`
	CombatCooldown         *int64  `json:"combat_cooldown,omitempty"`
	CombatTurnTimeout      *int64  `json:"combat_turn_timeout,omitempty"`
	MaxBreedingCount       *uint8  `json:"max_breeding_count,omitempty"`
	UpgradeBaseCost        *uint64 `json:"upgrade_base_cost,omitempty"`
	UpgradeScalingFactor   *uint64 `json:"upgrade_scaling_factor,omitempty"`
	BreedingBaseCost       *uint64 `json:"breeding_base_cost,omitempty"`
	GenerationMultiplier   *uint64 `json:"generation_multiplier,omitempty"`
	RewardRate             *uint64 `json:"reward_rate,omitempty"`
	AbilityUnlockCost      *uint64 `json:"ability_unlock_cost,omitempty"`
	AbilityUpgradeCost     *uint64 `json:"ability_upgrade_cost,omitempty"`
	MinCombatWager         *uint64 `json:"min_combat_wager,omitempty"`
	MaxCombatWager         *uint64 `json:"max_combat_wager,omitempty"`
	BurnPercentage         *uint8  `json:"burn_percentage,omitempty"`
	CombatWinnerPercentage *uint8  `json:"combat_winner_percentage,omitempty"`
}

// Change records one parameter modified by Apply.
type Change struct {
	Parameter string `json:"parameter"`
	Old       string `json:"old_value"`
	New       string `json:"new_value"`
}

// Apply returns a copy of g with every non-nil field of p applied.
//
// Each provided field is validated on its own, then the merged snapshot is
// validated as a whole so that a patch cannot leave min_combat_wager above
// max_combat_wager.
//
// Postcondition: on error g is untouched and the returned snapshot is the zero value.
func (g GameConfig) Apply(p Patch) (GameConfig, []Change, error) {
	next := g
	var changes []Change

	setInt := func(name string, dst *int64, v *int64) error {
		if v == nil {
			return nil
		}
		if *v <= 0 {
			return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "%s must be > 0, got %d", name, *v)
		}
		changes = append(changes, Change{name, strconv.FormatInt(*dst, 10), strconv.FormatInt(*v, 10)})
		*dst = *v
		return nil
	}
	setUint := func(name string, dst *uint64, v *uint64, positive bool) error {
		if v == nil {
			return nil
		}
		if positive && *v == 0 {
			return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "%s must be > 0", name)
		}
		changes = append(changes, Change{name, strconv.FormatUint(*dst, 10), strconv.FormatUint(*v, 10)})
		*dst = *v
		return nil
	}
	setPct := func(name string, dst *uint8, v *uint8, sentinel error) error {
		if v == nil {
			return nil
		}
		if *v > 100 {
			return gameerr.Wrap(sentinel, "%s=%d", name, *v)
		}
		changes = append(changes, Change{name, fmt.Sprint(*dst), fmt.Sprint(*v)})
		*dst = *v
		return nil
	}

	steps := []func() error{
		func() error { return setInt("activity_cooldown", &next.ActivityCooldown, p.ActivityCooldown) },
		func() error { return setInt("breeding_cooldown", &next.BreedingCooldown, p.BreedingCooldown) },
		func() error { return setInt("combat_cooldown", &next.CombatCooldown, p.CombatCooldown) },
		func() error { return setInt("combat_turn_timeout", &next.CombatTurnTimeout, p.CombatTurnTimeout) },
		func() error {
			if p.MaxBreedingCount != nil {
				changes = append(changes, Change{"max_breeding_count", fmt.Sprint(next.MaxBreedingCount), fmt.Sprint(*p.MaxBreedingCount)})
				next.MaxBreedingCount = *p.MaxBreedingCount
			}
			return nil
		},
		func() error { return setUint("upgrade_base_cost", &next.UpgradeBaseCost, p.UpgradeBaseCost, true) },
		func() error {
			return setUint("upgrade_scaling_factor", &next.UpgradeScalingFactor, p.UpgradeScalingFactor, true)
		},
		func() error { return setUint("breeding_base_cost", &next.BreedingBaseCost, p.BreedingBaseCost, true) },
		func() error {
			return setUint("generation_multiplier", &next.GenerationMultiplier, p.GenerationMultiplier, false)
		},
		func() error { return setUint("reward_rate", &next.RewardRate, p.RewardRate, true) },
		func() error {
			return setUint("ability_unlock_cost", &next.AbilityUnlockCost, p.AbilityUnlockCost, false)
		},
		func() error {
			return setUint("ability_upgrade_cost", &next.AbilityUpgradeCost, p.AbilityUpgradeCost, false)
		},
		func() error { return setUint("min_combat_wager", &next.MinCombatWager, p.MinCombatWager, false) },
		func() error { return setUint("max_combat_wager", &next.MaxCombatWager, p.MaxCombatWager, false) },
		func() error {
			return setPct("burn_percentage", &next.BurnPercentage, p.BurnPercentage, gameerr.ErrInvalidBurnPercent)
		},
		func() error {
			return setPct("combat_winner_percentage", &next.CombatWinnerPercentage, p.CombatWinnerPercentage, gameerr.ErrInvalidConfiguration)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return GameConfig{}, nil, err
		}
	}
	if next.MinCombatWager > next.MaxCombatWager {
		return GameConfig{}, nil, gameerr.Wrap(gameerr.ErrInvalidConfiguration,
			"min_combat_wager %d exceeds max_combat_wager %d", next.MinCombatWager, next.MaxCombatWager)
	}
	return next, changes, nil
}
