package gameserver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
)

// loadPair loads the two beasts of a session.
func loadPair(ctx context.Context, tx Tx, s combat.Session) (beast.Beast, beast.Beast, error) {
	ch, err := tx.Beast(ctx, s.Challenger)
	if err != nil {
		return beast.Beast{}, beast.Beast{}, err
	}
	op, err := tx.Beast(ctx, s.Opponent)
	if err != nil {
		return beast.Beast{}, beast.Beast{}, err
	}
	return ch, op, nil
}

func putPair(ctx context.Context, tx Tx, ch, op beast.Beast) error {
	if err := tx.PutBeast(ctx, ch); err != nil {
		return err
	}
	return tx.PutBeast(ctx, op)
}

// InitiateCombat opens a wagered session between the caller's beast and an
// opponent, escrowing the caller's wager.
func (s *Service) InitiateCombat(ctx context.Context, caller, challengerID, opponentID uuid.UUID, wager uint64) (combat.Session, error) {
	var sess combat.Session
	err := s.run(ctx, "initiate_combat", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		ch, err := tx.Beast(ctx, challengerID)
		if err != nil {
			return err
		}
		op := ch
		if opponentID != challengerID {
			if op, err = tx.Beast(ctx, opponentID); err != nil {
				return err
			}
		}
		balance, err := tx.Balance(ctx, ledger.Wallet(caller))
		if err != nil {
			return err
		}
		id, err := tx.NextSessionID(ctx)
		if err != nil {
			return err
		}
		var escrow ledger.Movement
		sess, escrow, err = combat.Initiate(combat.Challenge{
			SessionID: id,
			Caller:    caller,
			Wager:     wager,
			Balance:   balance,
			Now:       now,
		}, &ch, &op, cfg)
		if err != nil {
			return err
		}
		if err := execute(ctx, tx, escrow); err != nil {
			return err
		}
		if err := putPair(ctx, tx, ch, op); err != nil {
			return err
		}
		return tx.PutSession(ctx, sess)
	})
	if err != nil {
		return combat.Session{}, err
	}
	s.logger.Info("combat initiated",
		zap.Uint64("session", sess.ID),
		zap.String("challenger", sess.Challenger.String()),
		zap.String("opponent", sess.Opponent.String()),
		zap.Uint64("wager", sess.WagerAmount),
		zap.Uint64("combat_seed", sess.CombatSeed),
	)
	return sess, nil
}

// ExecuteCombatTurn plays the caller's turn with the ability in slot. The
// opponent's wager is escrowed on its first turn.
func (s *Service) ExecuteCombatTurn(ctx context.Context, caller uuid.UUID, sessionID uint64, slot uint8) (combat.TurnResult, error) {
	var res combat.TurnResult
	err := s.run(ctx, "execute_combat_turn", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		sess, err := tx.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		ch, op, err := loadPair(ctx, tx, sess)
		if err != nil {
			return err
		}
		balance, err := tx.Balance(ctx, ledger.Wallet(caller))
		if err != nil {
			return err
		}
		res, err = sess.ExecuteTurn(combat.Turn{Actor: caller, AbilityIndex: slot, Balance: balance, Now: now}, &ch, &op, cfg)
		if err != nil {
			return err
		}
		if res.Stake != nil {
			if err := execute(ctx, tx, *res.Stake); err != nil {
				return err
			}
		}
		if err := tx.AppendTurn(ctx, sess.ID, res.Record(now)); err != nil {
			return err
		}
		if err := putPair(ctx, tx, ch, op); err != nil {
			return err
		}
		return tx.PutSession(ctx, sess)
	})
	if err != nil {
		return combat.TurnResult{}, err
	}
	s.logger.Info("combat turn",
		zap.Uint64("session", sessionID),
		zap.Uint8("turn", res.Turn),
		zap.Stringer("side", res.Side),
		zap.Stringer("ability", res.Ability),
		zap.Uint16("effect", res.Effect),
		zap.Uint8("energy_cost", res.EnergyCost),
		zap.Stringer("status", res.Status),
	)
	return res, nil
}

// ResolveCombat settles a finished session: the winner's owner receives the
// configured share of the pot and the rest is burned, or on a Draw every
// stake is refunded.
func (s *Service) ResolveCombat(ctx context.Context, caller uuid.UUID, sessionID uint64) (combat.Settlement, error) {
	var st combat.Settlement
	err := s.run(ctx, "resolve_combat", func(tx Tx, now int64) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		sess, err := tx.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		ch, op, err := loadPair(ctx, tx, sess)
		if err != nil {
			return err
		}
		if st, err = sess.Resolve(caller, &ch, &op, cfg); err != nil {
			return err
		}
		if err := execute(ctx, tx, st.Movements...); err != nil {
			return err
		}
		if err := putPair(ctx, tx, ch, op); err != nil {
			return err
		}
		return tx.PutSession(ctx, sess)
	})
	if err != nil {
		return combat.Settlement{}, err
	}
	s.logger.Info("combat resolved",
		zap.Uint64("session", sessionID),
		zap.Stringer("status", st.Status),
		zap.String("winner", st.Winner.String()),
		zap.Uint64("pot", st.Pot),
		zap.Uint64("payout", st.Payout),
		zap.Uint64("burned", st.Burned),
	)
	return st, nil
}

// Transcript returns the recorded turns of a session for independent replay.
func (s *Service) Transcript(ctx context.Context, sessionID uint64) (combat.Transcript, error) {
	var tr combat.Transcript
	err := s.store.Atomically(ctx, func(tx Tx) error {
		sess, err := tx.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		turns, err := tx.Turns(ctx, sessionID)
		if err != nil {
			return err
		}
		tr = combat.NewTranscript(sess, turns)
		return nil
	})
	return tr, err
}

// StaleSessions lists active sessions whose turn timeout has passed. Such a
// session can no longer advance; its wagers stay in escrow.
func (s *Service) StaleSessions(ctx context.Context) ([]combat.Session, error) {
	now := s.clock.Now()
	var out []combat.Session
	err := s.store.Atomically(ctx, func(tx Tx) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		active, err := tx.ActiveSessions(ctx)
		if err != nil {
			return err
		}
		for _, sess := range active {
			if sess.TimedOut(now, cfg.CombatTurnTimeout) {
				out = append(out, sess)
			}
		}
		return nil
	})
	return out, err
}
