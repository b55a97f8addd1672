package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultGameConfig_Valid(t *testing.T) {
	g := DefaultGameConfig()
	require.NoError(t, g.Validate())
	assert.Equal(t, int64(3600), g.ActivityCooldown)
	assert.Equal(t, int64(7200), g.BreedingCooldown)
	assert.Equal(t, uint8(5), g.MaxBreedingCount)
	assert.Equal(t, uint64(1_000_000), g.MaxCombatWager)
	assert.Equal(t, [5]uint64{400, 600, 800, 950, 1020}, g.RarityThresholds)
}

func TestGameConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *GameConfig)
		want   error
	}{
		{"burn over 100", func(g *GameConfig) { g.BurnPercentage = 101 }, gameerr.ErrInvalidBurnPercent},
		{"winner over 100", func(g *GameConfig) { g.CombatWinnerPercentage = 101 }, gameerr.ErrInvalidConfiguration},
		{"zero activity cooldown", func(g *GameConfig) { g.ActivityCooldown = 0 }, gameerr.ErrInvalidConfiguration},
		{"negative breeding cooldown", func(g *GameConfig) { g.BreedingCooldown = -1 }, gameerr.ErrInvalidConfiguration},
		{"zero turn timeout", func(g *GameConfig) { g.CombatTurnTimeout = 0 }, gameerr.ErrInvalidConfiguration},
		{"zero upgrade base", func(g *GameConfig) { g.UpgradeBaseCost = 0 }, gameerr.ErrInvalidConfiguration},
		{"zero scaling", func(g *GameConfig) { g.UpgradeScalingFactor = 0 }, gameerr.ErrInvalidConfiguration},
		{"zero breeding base", func(g *GameConfig) { g.BreedingBaseCost = 0 }, gameerr.ErrInvalidConfiguration},
		{"zero reward rate", func(g *GameConfig) { g.RewardRate = 0 }, gameerr.ErrInvalidConfiguration},
		{"inverted wagers", func(g *GameConfig) { g.MinCombatWager = g.MaxCombatWager + 1 }, gameerr.ErrInvalidConfiguration},
		{"descending thresholds", func(g *GameConfig) { g.RarityThresholds[2] = 1 }, gameerr.ErrInvalidConfiguration},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := DefaultGameConfig()
			tc.mutate(&g)
			assert.ErrorIs(t, g.Validate(), tc.want)
		})
	}
}

func TestApply_RecordsChanges(t *testing.T) {
	g := DefaultGameConfig()
	next, changes, err := g.Apply(Patch{
		BurnPercentage:   ptr(uint8(25)),
		ActivityCooldown: ptr(int64(60)),
		MaxBreedingCount: ptr(uint8(0)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(25), next.BurnPercentage)
	assert.Equal(t, int64(60), next.ActivityCooldown)
	assert.Equal(t, uint8(0), next.MaxBreedingCount)
	assert.Equal(t, uint8(10), g.BurnPercentage, "original snapshot untouched")
	assert.Equal(t, []Change{
		{"activity_cooldown", "3600", "60"},
		{"max_breeding_count", "5", "0"},
		{"burn_percentage", "10", "25"},
	}, changes)
}

func TestApply_EmptyPatch(t *testing.T) {
	g := DefaultGameConfig()
	next, changes, err := g.Apply(Patch{})
	require.NoError(t, err)
	assert.Equal(t, g, next)
	assert.Empty(t, changes)
}

func TestApply_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		want  error
	}{
		{"burn 101", Patch{BurnPercentage: ptr(uint8(101))}, gameerr.ErrInvalidBurnPercent},
		{"winner 150", Patch{CombatWinnerPercentage: ptr(uint8(150))}, gameerr.ErrInvalidConfiguration},
		{"zero cooldown", Patch{CombatCooldown: ptr(int64(0))}, gameerr.ErrInvalidConfiguration},
		{"zero base cost", Patch{UpgradeBaseCost: ptr(uint64(0))}, gameerr.ErrInvalidConfiguration},
		{"min above current max", Patch{MinCombatWager: ptr(uint64(2_000_000))}, gameerr.ErrInvalidConfiguration},
		{"max below min", Patch{MinCombatWager: ptr(uint64(500)), MaxCombatWager: ptr(uint64(400))}, gameerr.ErrInvalidConfiguration},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, changes, err := DefaultGameConfig().Apply(tc.patch)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, GameConfig{}, next)
			assert.Nil(t, changes)
		})
	}
}

func TestApply_ZeroAllowedWhereCostMayBeFree(t *testing.T) {
	next, _, err := DefaultGameConfig().Apply(Patch{
		AbilityUnlockCost:    ptr(uint64(0)),
		GenerationMultiplier: ptr(uint64(0)),
		MinCombatWager:       ptr(uint64(0)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), next.AbilityUnlockCost)
}

func TestPropertyApplyKeepsSnapshotValid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		burn := rapid.Uint8().Draw(rt, "burn")
		minWager := rapid.Uint64Range(0, 2_000_000).Draw(rt, "min")
		next, _, err := DefaultGameConfig().Apply(Patch{BurnPercentage: &burn, MinCombatWager: &minWager})
		if burn > 100 || minWager > 1_000_000 {
			assert.Error(rt, err)
			return
		}
		require.NoError(rt, err)
		assert.NoError(rt, next.Validate())
	})
}
