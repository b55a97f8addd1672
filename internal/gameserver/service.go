// Package gameserver executes zenbeasts operations against a Store. Each
// operation reads the clock once, loads what it needs inside one transaction,
// validates every precondition through the pure rules packages, and only then
// moves tokens and writes records.
package gameserver

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
	"github.com/cory-johannsen/zenbeasts/internal/game/cooldown"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
	"github.com/cory-johannsen/zenbeasts/internal/game/traits"
)

// Service is the transaction handler for every zenbeasts operation.
// It is safe for concurrent use when its Store is.
type Service struct {
	store  Store
	clock  Clock
	logger *zap.Logger
}

// NewService creates a Service.
//
// Precondition: store, clock, and logger must be non-nil.
// Postcondition: Returns a ready Service.
func NewService(store Store, clock Clock, logger *zap.Logger) *Service {
	return &Service{store: store, clock: clock, logger: logger}
}

// run executes fn atomically with the operation time read once.
func (s *Service) run(ctx context.Context, op string, fn func(tx Tx, now int64) error) error {
	now := s.clock.Now()
	err := s.store.Atomically(ctx, func(tx Tx) error { return fn(tx, now) })
	if err != nil {
		s.logger.Debug("operation rejected",
			zap.String("op", op),
			zap.String("code", gameerr.CodeOf(err)),
			zap.Error(err),
		)
	}
	return err
}

// Initialize stores the first rules snapshot with authority as its administrator.
//
// Precondition: cfg passes Validate.
// Postcondition: Returns gameerr.ErrAlreadyInitialized if a snapshot exists.
func (s *Service) Initialize(ctx context.Context, authority uuid.UUID, cfg config.GameConfig) (config.GameConfig, error) {
	cfg.Authority = authority
	cfg.TotalMinted = 0
	err := s.run(ctx, "initialize", func(tx Tx, now int64) error {
		if _, err := tx.Config(ctx); err == nil {
			return gameerr.ErrAlreadyInitialized
		} else if !errors.Is(err, gameerr.ErrNotInitialized) {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return tx.CreateConfig(ctx, cfg)
	})
	if err != nil {
		return config.GameConfig{}, err
	}
	s.logger.Info("config initialized",
		zap.String("authority", authority.String()),
		zap.Uint8("burn_percentage", cfg.BurnPercentage),
		zap.Uint8("combat_winner_percentage", cfg.CombatWinnerPercentage),
	)
	return cfg, nil
}

// UpdateConfig applies patch on behalf of caller.
//
// Precondition: caller must be the stored authority.
// Postcondition: Returns the new snapshot and one Change per modified parameter.
func (s *Service) UpdateConfig(ctx context.Context, caller uuid.UUID, patch config.Patch) (config.GameConfig, []config.Change, error) {
	var (
		next    config.GameConfig
		changes []config.Change
	)
	err := s.run(ctx, "update_config", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		if caller != cfg.Authority {
			return gameerr.Wrap(gameerr.ErrUnauthorized, "caller %s", caller)
		}
		if next, changes, err = cfg.Apply(patch); err != nil {
			return err
		}
		return tx.PutConfig(ctx, next)
	})
	if err != nil {
		return config.GameConfig{}, nil, err
	}
	for _, c := range changes {
		s.logger.Info("config updated",
			zap.String("parameter", c.Parameter),
			zap.String("old_value", c.Old),
			zap.String("new_value", c.New),
			zap.String("authority", caller.String()),
		)
	}
	return next, changes, nil
}

// Fund credits amount to account out of thin air. It stands in for the
// external token mint and is restricted to the authority.
func (s *Service) Fund(ctx context.Context, caller uuid.UUID, account ledger.Account, amount uint64) error {
	err := s.run(ctx, "fund", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		if caller != cfg.Authority {
			return gameerr.Wrap(gameerr.ErrUnauthorized, "caller %s", caller)
		}
		return tx.Credit(ctx, account, amount)
	})
	if err != nil {
		return err
	}
	s.logger.Info("account funded",
		zap.String("account", string(account)),
		zap.Uint64("amount", amount),
	)
	return nil
}

// Config returns the current rules snapshot.
func (s *Service) Config(ctx context.Context) (config.GameConfig, error) {
	var cfg config.GameConfig
	err := s.store.Atomically(ctx, func(tx Tx) error {
		var err error
		cfg, err = tx.Config(ctx)
		return err
	})
	return cfg, err
}

// Beast returns a beast by id.
func (s *Service) Beast(ctx context.Context, id uuid.UUID) (beast.Beast, error) {
	var b beast.Beast
	err := s.store.Atomically(ctx, func(tx Tx) error {
		var err error
		b, err = tx.Beast(ctx, id)
		return err
	})
	return b, err
}

// BeastsByOwner lists the beasts held by owner.
func (s *Service) BeastsByOwner(ctx context.Context, owner uuid.UUID) ([]beast.Beast, error) {
	var out []beast.Beast
	err := s.store.Atomically(ctx, func(tx Tx) error {
		var err error
		out, err = tx.BeastsByOwner(ctx, owner)
		return err
	})
	return out, err
}

// Session returns a combat session by id.
func (s *Service) Session(ctx context.Context, id uint64) (combat.Session, error) {
	var sess combat.Session
	err := s.store.Atomically(ctx, func(tx Tx) error {
		var err error
		sess, err = tx.Session(ctx, id)
		return err
	})
	return sess, err
}

// Balance returns the token balance of account.
func (s *Service) Balance(ctx context.Context, account ledger.Account) (uint64, error) {
	var bal uint64
	err := s.store.Atomically(ctx, func(tx Tx) error {
		var err error
		bal, err = tx.Balance(ctx, account)
		return err
	})
	return bal, err
}

// Supply summarizes token supply and beast issuance.
type Supply struct {
	// Burned is the total ever removed from supply.
	Burned      uint64 `json:"burned"`
	Treasury    uint64 `json:"treasury"`
	TotalMinted uint64 `json:"total_minted"`
}

// Supply returns the burned total, the treasury balance, and the minted count.
func (s *Service) Supply(ctx context.Context) (Supply, error) {
	var out Supply
	err := s.store.Atomically(ctx, func(tx Tx) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		if out.Burned, err = tx.Burned(ctx); err != nil {
			return err
		}
		if out.Treasury, err = tx.Balance(ctx, ledger.Treasury); err != nil {
			return err
		}
		out.TotalMinted = cfg.TotalMinted
		return nil
	})
	return out, err
}

// RarityTier returns the tier of a beast under the current thresholds.
func (s *Service) RarityTier(ctx context.Context, id uuid.UUID) (traits.Tier, error) {
	var tier traits.Tier
	err := s.store.Atomically(ctx, func(tx Tx) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		b, err := tx.Beast(ctx, id)
		if err != nil {
			return err
		}
		tier = traits.TierFor(b.RarityScore, cfg.RarityThresholds)
		return nil
	})
	return tier, err
}

// CooldownStatus reports every cooldown of one beast at one instant.
type CooldownStatus struct {
	Now               int64 `json:"now"`
	ActivityReady     bool  `json:"activity_ready"`
	ActivityRemaining int64 `json:"activity_remaining"`
	BreedingReady     bool  `json:"breeding_ready"`
	BreedingRemaining int64 `json:"breeding_remaining"`
	BreedingsLeft     uint8 `json:"breedings_left"`
	CombatReady       bool  `json:"combat_ready"`
	CombatRemaining   int64 `json:"combat_remaining"`
	InCombat          bool  `json:"in_combat"`
}

// CooldownStatus returns the cooldown view of a beast at the current time.
func (s *Service) CooldownStatus(ctx context.Context, id uuid.UUID) (CooldownStatus, error) {
	var st CooldownStatus
	now := s.clock.Now()
	err := s.store.Atomically(ctx, func(tx Tx) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		b, err := tx.Beast(ctx, id)
		if err != nil {
			return err
		}
		st = CooldownStatus{
			Now:               now,
			ActivityReady:     b.CanPerformActivity(now, cfg.ActivityCooldown),
			ActivityRemaining: cooldown.Remaining(now, b.LastActivity, cfg.ActivityCooldown),
			BreedingReady:     b.CanBreed(now, cfg.BreedingCooldown) && b.BreedingAvailable(cfg.MaxBreedingCount),
			BreedingRemaining: cooldown.Remaining(now, b.LastBreeding, cfg.BreedingCooldown),
			CombatReady:       b.CanEnterCombat(now, cfg.CombatCooldown),
			CombatRemaining:   cooldown.Remaining(now, b.Combat.LastCombat, cfg.CombatCooldown),
			InCombat:          b.Combat.InCombat,
		}
		if b.BreedingAvailable(cfg.MaxBreedingCount) {
			st.BreedingsLeft = cfg.MaxBreedingCount - b.BreedingCount
		}
		return nil
	})
	return st, err
}

// requireFunds returns gameerr.ErrInsufficientFunds unless a holds amount.
func requireFunds(ctx context.Context, tx Tx, a ledger.Account, amount uint64) error {
	bal, err := tx.Balance(ctx, a)
	if err != nil {
		return err
	}
	if bal < amount {
		return gameerr.Wrap(gameerr.ErrInsufficientFunds, "balance %d, need %d", bal, amount)
	}
	return nil
}
