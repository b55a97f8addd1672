// Package memory provides an in-process Store for development and tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
	"github.com/cory-johannsen/zenbeasts/internal/gameserver"
)

type state struct {
	cfg         *config.GameConfig
	beasts      map[uuid.UUID]beast.Beast
	sessions    map[uint64]combat.Session
	turns       map[uint64][]combat.TurnRecord
	balances    map[ledger.Account]uint64
	burned      uint64
	lastSession uint64
}

func (s *state) clone() *state {
	c := &state{
		beasts:      maps.Clone(s.beasts),
		sessions:    maps.Clone(s.sessions),
		turns:       make(map[uint64][]combat.TurnRecord, len(s.turns)),
		balances:    maps.Clone(s.balances),
		burned:      s.burned,
		lastSession: s.lastSession,
	}
	if s.cfg != nil {
		cfg := *s.cfg
		c.cfg = &cfg
	}
	for id, recs := range s.turns {
		c.turns[id] = append([]combat.TurnRecord(nil), recs...)
	}
	return c
}

// Store keeps every record in memory. Operations are serialized under one
// mutex and run against a copy that replaces the live state only on success.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ gameserver.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{st: &state{
		beasts:   make(map[uuid.UUID]beast.Beast),
		sessions: make(map[uint64]combat.Session),
		turns:    make(map[uint64][]combat.TurnRecord),
		balances: make(map[ledger.Account]uint64),
	}}
}

// Atomically runs fn against a private copy of the state and commits it when
// fn returns nil.
func (s *Store) Atomically(ctx context.Context, fn func(tx gameserver.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type tx struct {
	st *state
}

func (t *tx) Config(_ context.Context) (config.GameConfig, error) {
	if t.st.cfg == nil {
		return config.GameConfig{}, gameerr.ErrNotInitialized
	}
	return *t.st.cfg, nil
}

func (t *tx) CreateConfig(_ context.Context, cfg config.GameConfig) error {
	if t.st.cfg != nil {
		return gameerr.ErrAlreadyInitialized
	}
	t.st.cfg = &cfg
	return nil
}

func (t *tx) PutConfig(_ context.Context, cfg config.GameConfig) error {
	t.st.cfg = &cfg
	return nil
}

func (t *tx) Beast(_ context.Context, id uuid.UUID) (beast.Beast, error) {
	b, ok := t.st.beasts[id]
	if !ok {
		return beast.Beast{}, gameerr.Wrap(gameerr.ErrBeastNotFound, "beast %s", id)
	}
	return b, nil
}

func (t *tx) CreateBeast(_ context.Context, b beast.Beast) error {
	if _, ok := t.st.beasts[b.ID]; ok {
		return gameerr.Wrap(gameerr.ErrBeastExists, "beast %s", b.ID)
	}
	t.st.beasts[b.ID] = b
	return nil
}

func (t *tx) PutBeast(_ context.Context, b beast.Beast) error {
	if _, ok := t.st.beasts[b.ID]; !ok {
		return gameerr.Wrap(gameerr.ErrBeastNotFound, "beast %s", b.ID)
	}
	t.st.beasts[b.ID] = b
	return nil
}

func (t *tx) BeastsByOwner(_ context.Context, owner uuid.UUID) ([]beast.Beast, error) {
	var out []beast.Beast
	for _, b := range t.st.beasts {
		if b.Owner == owner {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (t *tx) NextSessionID(_ context.Context) (uint64, error) {
	if t.st.lastSession == ^uint64(0) {
		return 0, gameerr.Wrap(gameerr.ErrOverflow, "session id")
	}
	t.st.lastSession++
	return t.st.lastSession, nil
}

func (t *tx) Session(_ context.Context, id uint64) (combat.Session, error) {
	s, ok := t.st.sessions[id]
	if !ok {
		return combat.Session{}, gameerr.Wrap(gameerr.ErrSessionNotFound, "session %d", id)
	}
	return s, nil
}

func (t *tx) PutSession(_ context.Context, s combat.Session) error {
	t.st.sessions[s.ID] = s
	return nil
}

func (t *tx) ActiveSessions(_ context.Context) ([]combat.Session, error) {
	var out []combat.Session
	for _, s := range t.st.sessions {
		if s.Status == combat.Active {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) AppendTurn(_ context.Context, sessionID uint64, rec combat.TurnRecord) error {
	if _, ok := t.st.sessions[sessionID]; !ok {
		return gameerr.Wrap(gameerr.ErrSessionNotFound, "session %d", sessionID)
	}
	t.st.turns[sessionID] = append(t.st.turns[sessionID], rec)
	return nil
}

func (t *tx) Turns(_ context.Context, sessionID uint64) ([]combat.TurnRecord, error) {
	if _, ok := t.st.sessions[sessionID]; !ok {
		return nil, gameerr.Wrap(gameerr.ErrSessionNotFound, "session %d", sessionID)
	}
	return append([]combat.TurnRecord(nil), t.st.turns[sessionID]...), nil
}

func (t *tx) Balance(_ context.Context, a ledger.Account) (uint64, error) {
	return t.st.balances[a], nil
}

func (t *tx) Debit(_ context.Context, a ledger.Account, amount uint64) error {
	bal := t.st.balances[a]
	if bal < amount {
		if a == ledger.Treasury {
			return gameerr.Wrap(gameerr.ErrInsufficientTreasury, "treasury %d, need %d", bal, amount)
		}
		return gameerr.Wrap(gameerr.ErrInsufficientFunds, "%s holds %d, need %d", a, bal, amount)
	}
	t.st.balances[a] = bal - amount
	return nil
}

func (t *tx) Credit(_ context.Context, a ledger.Account, amount uint64) error {
	bal := t.st.balances[a]
	if bal > ^uint64(0)-amount {
		return gameerr.Wrap(gameerr.ErrOverflow, "balance of %s", a)
	}
	t.st.balances[a] = bal + amount
	return nil
}

func (t *tx) Burn(_ context.Context, amount uint64) error {
	if t.st.burned > ^uint64(0)-amount {
		return gameerr.Wrap(gameerr.ErrOverflow, "burned total")
	}
	t.st.burned += amount
	return nil
}

func (t *tx) Burned(_ context.Context) (uint64, error) {
	return t.st.burned, nil
}
