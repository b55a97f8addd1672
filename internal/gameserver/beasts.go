package gameserver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/cooldown"
	"github.com/cory-johannsen/zenbeasts/internal/game/economy"
	"github.com/cory-johannsen/zenbeasts/internal/game/entropy"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
	"github.com/cory-johannsen/zenbeasts/internal/game/traits"
)

// MaxActivityType is the highest accepted activity type.
const MaxActivityType = 2

// CreateBeastRequest mints a generation-0 beast.
type CreateBeastRequest struct {
	// ID is minted by the caller.
	ID    uuid.UUID
	Owner uuid.UUID
	Seed  uint64
	Name  string
	URI   string
}

// CreateBeast mints a beast with traits generated from the seed, the owner
// and the current time.
//
// Postcondition: the beast has full HP and energy and TotalMinted grew by one.
func (s *Service) CreateBeast(ctx context.Context, req CreateBeastRequest) (beast.Beast, error) {
	var b beast.Beast
	err := s.run(ctx, "create_beast", func(tx Tx, now int64) error {
		if err := beast.ValidateMetadata(req.Name, req.URI); err != nil {
			return err
		}
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		if cfg.TotalMinted == ^uint64(0) {
			return gameerr.Wrap(gameerr.ErrOverflow, "total minted")
		}
		t, rarity := traits.Generate(req.Seed, req.Owner, entropy.Int64Bytes(now))
		b = beast.New(req.ID, req.Owner, req.Name, req.URI, t, rarity, now)
		if err := tx.CreateBeast(ctx, b); err != nil {
			return err
		}
		cfg.TotalMinted++
		return tx.PutConfig(ctx, cfg)
	})
	if err != nil {
		return beast.Beast{}, err
	}
	s.logger.Info("beast minted",
		zap.String("beast", b.ID.String()),
		zap.String("owner", b.Owner.String()),
		zap.Uint8s("traits", b.Traits[:traits.Core]),
		zap.Uint64("rarity_score", b.RarityScore),
		zap.Uint8("generation", b.Generation),
		zap.Int64("timestamp", b.CreatedAt),
	)
	return b, nil
}

// ActivityResult reports the rewards accrued by one activity.
type ActivityResult struct {
	RewardsEarned  uint64 `json:"rewards_earned"`
	PendingRewards uint64 `json:"pending_rewards"`
	Timestamp      int64  `json:"timestamp"`
}

// PerformActivity records an activity of the given type and accrues the
// rewards earned since the previous one. The first activity earns nothing.
func (s *Service) PerformActivity(ctx context.Context, caller, id uuid.UUID, activityType uint8) (ActivityResult, error) {
	var res ActivityResult
	err := s.run(ctx, "perform_activity", func(tx Tx, now int64) error {
		if activityType > MaxActivityType {
			return gameerr.Wrap(gameerr.ErrInvalidActivityType, "type %d", activityType)
		}
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		b, err := tx.Beast(ctx, id)
		if err != nil {
			return err
		}
		if err := b.RequireOwner(caller); err != nil {
			return err
		}
		if !b.CanPerformActivity(now, cfg.ActivityCooldown) {
			return gameerr.Wrap(gameerr.ErrCooldownActive, "%ds remaining",
				cooldown.Remaining(now, b.LastActivity, cfg.ActivityCooldown))
		}
		earned, err := economy.AccruedRewards(now, b.LastActivity, cfg.RewardRate)
		if err != nil {
			return err
		}
		if err := b.Accrue(earned); err != nil {
			return err
		}
		if err := b.RecordActivity(now); err != nil {
			return err
		}
		res = ActivityResult{RewardsEarned: earned, PendingRewards: b.PendingRewards, Timestamp: now}
		return tx.PutBeast(ctx, b)
	})
	if err != nil {
		return ActivityResult{}, err
	}
	s.logger.Info("activity performed",
		zap.String("beast", id.String()),
		zap.Uint8("activity_type", activityType),
		zap.Int64("timestamp", res.Timestamp),
		zap.Uint64("rewards_earned", res.RewardsEarned),
	)
	return res, nil
}

// ClaimRewards pays the pending plus newly accrued rewards of a beast out of
// the treasury and restarts accrual. Claiming does not count as an activity.
//
// Postcondition: Returns gameerr.ErrNoRewards when nothing is owed and
// gameerr.ErrInsufficientTreasury when the treasury cannot pay.
func (s *Service) ClaimRewards(ctx context.Context, caller, id uuid.UUID) (uint64, error) {
	var total uint64
	err := s.run(ctx, "claim_rewards", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		b, err := tx.Beast(ctx, id)
		if err != nil {
			return err
		}
		if err := b.RequireOwner(caller); err != nil {
			return err
		}
		accrued, err := economy.AccruedRewards(now, b.LastActivity, cfg.RewardRate)
		if err != nil {
			return err
		}
		if err := b.Accrue(accrued); err != nil {
			return err
		}
		total = b.PendingRewards
		if total == 0 {
			return gameerr.ErrNoRewards
		}
		treasury, err := tx.Balance(ctx, ledger.Treasury)
		if err != nil {
			return err
		}
		if treasury < total {
			return gameerr.Wrap(gameerr.ErrInsufficientTreasury, "treasury %d, claim %d", treasury, total)
		}
		if err := execute(ctx, tx, ledger.Transfer(ledger.Treasury, ledger.Wallet(caller), total)); err != nil {
			return err
		}
		b.SettleRewards(now)
		return tx.PutBeast(ctx, b)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("rewards claimed",
		zap.String("beast", id.String()),
		zap.String("recipient", caller.String()),
		zap.Uint64("amount", total),
	)
	return total, nil
}

// UpgradeResult describes one trait upgrade.
type UpgradeResult struct {
	Index     traits.Index `json:"trait_index"`
	OldValue  uint8        `json:"old_value"`
	NewValue  uint8        `json:"new_value"`
	CostPaid  uint64       `json:"cost_paid"`
	Burned    uint64       `json:"burned"`
	NewRarity uint64       `json:"new_rarity"`
}

// UpgradeTrait raises one core trait by one point for a scaling token cost,
// part burned and the rest sent to the treasury.
func (s *Service) UpgradeTrait(ctx context.Context, caller, id uuid.UUID, index uint8) (UpgradeResult, error) {
	var res UpgradeResult
	err := s.run(ctx, "upgrade_trait", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		b, err := tx.Beast(ctx, id)
		if err != nil {
			return err
		}
		if err := b.RequireOwner(caller); err != nil {
			return err
		}
		idx := traits.Index(index)
		if !idx.Valid() {
			return gameerr.Wrap(gameerr.ErrInvalidTraitIndex, "index %d", index)
		}
		cost, err := economy.TraitUpgradeCost(cfg.UpgradeBaseCost, cfg.UpgradeScalingFactor, b.Traits[idx])
		if err != nil {
			return err
		}
		wallet := ledger.Wallet(caller)
		if err := requireFunds(ctx, tx, wallet, cost); err != nil {
			return err
		}
		burn, toTreasury, err := economy.BurnSplit(cost, cfg.BurnPercentage)
		if err != nil {
			return err
		}
		old, next, err := b.UpgradeTrait(idx)
		if err != nil {
			return err
		}
		if err := execute(ctx, tx, ledger.Spend(wallet, burn, toTreasury)...); err != nil {
			return err
		}
		res = UpgradeResult{Index: idx, OldValue: old, NewValue: next, CostPaid: cost, Burned: burn, NewRarity: b.RarityScore}
		return tx.PutBeast(ctx, b)
	})
	if err != nil {
		return UpgradeResult{}, err
	}
	s.logger.Info("trait upgraded",
		zap.String("beast", id.String()),
		zap.Stringer("trait", res.Index),
		zap.Uint8("old_value", res.OldValue),
		zap.Uint8("new_value", res.NewValue),
		zap.Uint64("cost_paid", res.CostPaid),
		zap.Uint64("new_rarity", res.NewRarity),
	)
	return res, nil
}

// BreedRequest breeds two parents held by Caller into a new beast.
type BreedRequest struct {
	Caller  uuid.UUID
	ParentA uuid.UUID
	ParentB uuid.UUID
	// ChildID is minted by the caller.
	ChildID uuid.UUID
	Seed    uint64
	Name    string
	URI     string
	// Amount is what the caller offers to pay; it must cover the breeding
	// cost and is spent in full.
	Amount uint64
}

// BreedBeasts creates a child whose traits inherit from both parents.
//
// Postcondition: both parents are stamped with a breeding; the child is one
// generation past the older parent (saturating) and TotalMinted grew by one.
func (s *Service) BreedBeasts(ctx context.Context, req BreedRequest) (beast.Beast, error) {
	var child beast.Beast
	err := s.run(ctx, "breed_beasts", func(tx Tx, now int64) error {
		if err := beast.ValidateMetadata(req.Name, req.URI); err != nil {
			return err
		}
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		a, err := tx.Beast(ctx, req.ParentA)
		if err != nil {
			return err
		}
		b, err := tx.Beast(ctx, req.ParentB)
		if err != nil {
			return err
		}
		if err := a.RequireOwner(req.Caller); err != nil {
			return err
		}
		if err := b.RequireOwner(req.Caller); err != nil {
			return err
		}
		if a.ID == b.ID {
			return gameerr.Wrap(gameerr.ErrInvalidParents, "parent %s given twice", a.ID)
		}
		for _, p := range []*beast.Beast{&a, &b} {
			if !p.CanBreed(now, cfg.BreedingCooldown) {
				return gameerr.Wrap(gameerr.ErrBreedingCooldownActive, "beast %s: %ds remaining",
					p.ID, cooldown.Remaining(now, p.LastBreeding, cfg.BreedingCooldown))
			}
		}
		for _, p := range []*beast.Beast{&a, &b} {
			if !p.BreedingAvailable(cfg.MaxBreedingCount) {
				return gameerr.Wrap(gameerr.ErrMaxBreedingReached, "beast %s", p.ID)
			}
		}
		cost, err := economy.BreedingCost(cfg.BreedingBaseCost, cfg.GenerationMultiplier, a.Generation, b.Generation)
		if err != nil {
			return err
		}
		if req.Amount < cost {
			return gameerr.Wrap(gameerr.ErrInsufficientFunds, "offered %d, cost %d", req.Amount, cost)
		}
		wallet := ledger.Wallet(req.Caller)
		if err := requireFunds(ctx, tx, wallet, req.Amount); err != nil {
			return err
		}
		burn, toTreasury, err := economy.BurnSplit(req.Amount, cfg.BurnPercentage)
		if err != nil {
			return err
		}
		if cfg.TotalMinted == ^uint64(0) {
			return gameerr.Wrap(gameerr.ErrOverflow, "total minted")
		}
		if err := a.RecordBreeding(now); err != nil {
			return err
		}
		if err := b.RecordBreeding(now); err != nil {
			return err
		}

		t, rarity := traits.Breed(req.Seed^uint64(now), a.Traits, b.Traits)
		child = beast.New(req.ChildID, req.Caller, req.Name, req.URI, t, rarity, now)
		child.Parents = [2]uuid.UUID{a.ID, b.ID}
		child.Generation = max(a.Generation, b.Generation)
		if child.Generation < ^uint8(0) {
			child.Generation++
		}

		if err := execute(ctx, tx, ledger.Spend(wallet, burn, toTreasury)...); err != nil {
			return err
		}
		if err := tx.CreateBeast(ctx, child); err != nil {
			return err
		}
		if err := tx.PutBeast(ctx, a); err != nil {
			return err
		}
		if err := tx.PutBeast(ctx, b); err != nil {
			return err
		}
		cfg.TotalMinted++
		return tx.PutConfig(ctx, cfg)
	})
	if err != nil {
		return beast.Beast{}, err
	}
	s.logger.Info("beast bred",
		zap.String("parent_a", req.ParentA.String()),
		zap.String("parent_b", req.ParentB.String()),
		zap.String("offspring", child.ID.String()),
		zap.Uint8("generation", child.Generation),
		zap.Uint64("cost_paid", req.Amount),
		zap.Uint64("rarity_score", child.RarityScore),
	)
	return child, nil
}

// AbilityResult describes an ability unlock or upgrade.
type AbilityResult struct {
	Slot      uint8  `json:"trait_index"`
	AbilityID uint8  `json:"ability_id"`
	OldLevel  uint8  `json:"old_level"`
	NewLevel  uint8  `json:"new_level"`
	CostPaid  uint64 `json:"cost_paid"`
	Timestamp int64  `json:"timestamp"`
}

// UnlockAbility stores abilityID in a slot at level 1. Half the flat cost is
// burned and the rest goes to the treasury.
func (s *Service) UnlockAbility(ctx context.Context, caller, id uuid.UUID, slot, abilityID uint8) (AbilityResult, error) {
	var res AbilityResult
	err := s.run(ctx, "unlock_ability", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		b, err := tx.Beast(ctx, id)
		if err != nil {
			return err
		}
		if err := b.RequireOwner(caller); err != nil {
			return err
		}
		if err := b.UnlockAbility(slot, abilityID); err != nil {
			return err
		}
		cost, err := economy.AbilityUnlockCost(cfg.AbilityUnlockCost, false)
		if err != nil {
			return err
		}
		wallet := ledger.Wallet(caller)
		if err := requireFunds(ctx, tx, wallet, cost); err != nil {
			return err
		}
		burn, toTreasury := economy.AbilitySplit(cost)
		if err := execute(ctx, tx, ledger.Spend(wallet, burn, toTreasury)...); err != nil {
			return err
		}
		res = AbilityResult{Slot: slot, AbilityID: abilityID, NewLevel: 1, CostPaid: cost, Timestamp: now}
		return tx.PutBeast(ctx, b)
	})
	if err != nil {
		return AbilityResult{}, err
	}
	s.logger.Info("ability unlocked",
		zap.String("beast", id.String()),
		zap.Uint8("trait_index", slot),
		zap.Uint8("ability_id", abilityID),
		zap.Uint64("cost_paid", res.CostPaid),
		zap.Int64("timestamp", res.Timestamp),
	)
	return res, nil
}

// UpgradeAbility raises the level of an unlocked ability by one for
// AbilityUpgradeCost × current level, split like an unlock.
func (s *Service) UpgradeAbility(ctx context.Context, caller, id uuid.UUID, slot uint8) (AbilityResult, error) {
	var res AbilityResult
	err := s.run(ctx, "upgrade_ability", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		b, err := tx.Beast(ctx, id)
		if err != nil {
			return err
		}
		if err := b.RequireOwner(caller); err != nil {
			return err
		}
		level, err := b.CheckAbilityUpgrade(slot)
		if err != nil {
			return err
		}
		cost, err := economy.AbilityUpgradeCost(cfg.AbilityUpgradeCost, level)
		if err != nil {
			return err
		}
		wallet := ledger.Wallet(caller)
		if err := requireFunds(ctx, tx, wallet, cost); err != nil {
			return err
		}
		burn, toTreasury := economy.AbilitySplit(cost)
		next, err := b.UpgradeAbility(slot)
		if err != nil {
			return err
		}
		if err := execute(ctx, tx, ledger.Spend(wallet, burn, toTreasury)...); err != nil {
			return err
		}
		res = AbilityResult{Slot: slot, AbilityID: b.Abilities[slot], OldLevel: level, NewLevel: next, CostPaid: cost, Timestamp: now}
		return tx.PutBeast(ctx, b)
	})
	if err != nil {
		return AbilityResult{}, err
	}
	s.logger.Info("ability upgraded",
		zap.String("beast", id.String()),
		zap.Uint8("trait_index", slot),
		zap.Uint8("old_level", res.OldLevel),
		zap.Uint8("new_level", res.NewLevel),
		zap.Uint64("cost_paid", res.CostPaid),
	)
	return res, nil
}

// TransferBeast hands a beast to newOwner. Every other field is kept,
// including an in-progress combat; a running session still pays the owner
// recorded when it began.
func (s *Service) TransferBeast(ctx context.Context, caller, id, newOwner uuid.UUID) (beast.Beast, error) {
	var b beast.Beast
	var from uuid.UUID
	err := s.run(ctx, "transfer_beast", func(tx Tx, now int64) error {
		var err error
		if b, err = tx.Beast(ctx, id); err != nil {
			return err
		}
		if err := b.RequireOwner(caller); err != nil {
			return err
		}
		if newOwner == b.Owner {
			return gameerr.Wrap(gameerr.ErrOwnerUnchanged, "beast %s", id)
		}
		from = b.Owner
		b.Owner = newOwner
		return tx.PutBeast(ctx, b)
	})
	if err != nil {
		return beast.Beast{}, err
	}
	s.logger.Info("beast transferred",
		zap.String("beast", id.String()),
		zap.String("from", from.String()),
		zap.String("to", newOwner.String()),
	)
	return b, nil
}
