package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/zenbeasts/internal/api"
	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
	"github.com/cory-johannsen/zenbeasts/internal/game/traits"
	"github.com/cory-johannsen/zenbeasts/internal/gameserver"
	"github.com/cory-johannsen/zenbeasts/internal/storage/memory"
	"github.com/cory-johannsen/zenbeasts/internal/testutil"
)

const (
	start     int64  = 1_000_000
	fixedSeed uint64 = 42
)

var (
	authority = uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa")
	alice     = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	bob       = uuid.MustParse("22222222-2222-4222-8222-222222222222")
)

type env struct {
	store *memory.Store
	clk   *gameserver.ManualClock
	c     *testutil.APIClient
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{store: memory.New(), clk: gameserver.NewManualClock(start)}
	logger := zaptest.NewLogger(t)
	svc := gameserver.NewService(e.store, e.clk, logger)
	seeds := gameserver.SeedFunc(func() (uint64, error) { return fixedSeed, nil })
	srv := httptest.NewServer(api.NewServer(svc, logger, api.WithSeeds(seeds)).Routes())
	t.Cleanup(srv.Close)
	e.c = testutil.NewAPIClient(t, srv.URL)
	return e
}

// ready initializes the default rules and funds alice and bob.
func (e *env) ready(t *testing.T) {
	t.Helper()
	resp := e.c.Post(authority, "/api/v1/admin/initialize", nil)
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	for _, who := range []uuid.UUID{alice, bob} {
		resp = e.c.Post(authority, "/api/v1/admin/fund", api.FundRequest{
			Account: string(ledger.Wallet(who)),
			Amount:  100_000,
		})
		require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	}
}

func errorBody(t *testing.T, resp testutil.Response) api.ErrorBody {
	t.Helper()
	var body api.ErrorBody
	resp.Decode(t, &body)
	return body
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{gameerr.ErrNameTooLong, http.StatusBadRequest},
		{gameerr.ErrNotOwner, http.StatusForbidden},
		{gameerr.Wrap(gameerr.ErrCooldownActive, "beast %d", 1), http.StatusConflict},
		{gameerr.ErrOverflow, http.StatusUnprocessableEntity},
		{gameerr.ErrInsufficientFunds, http.StatusPaymentRequired},
		{gameerr.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, api.StatusFor(tc.err), tc.err.Error())
	}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	resp := e.c.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestHealth_FailingCheck(t *testing.T) {
	logger := zaptest.NewLogger(t)
	svc := gameserver.NewService(memory.New(), gameserver.NewManualClock(start), logger)
	check := func(context.Context) error { return errors.New("database unreachable") }
	srv := httptest.NewServer(api.NewServer(svc, logger, api.WithHealthCheck(check)).Routes())
	t.Cleanup(srv.Close)

	resp := testutil.NewAPIClient(t, srv.URL).Get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Contains(t, string(resp.Body), "unavailable")
}

func TestMutationsRequireAccount(t *testing.T) {
	e := newEnv(t)
	resp := e.c.Post(uuid.Nil, "/api/v1/beasts", api.CreateBeastRequest{Name: "Ember"})
	require.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "missing_account", errorBody(t, resp).Code)
}

func TestErrorsCarryCodeAndKind(t *testing.T) {
	e := newEnv(t)

	resp := e.c.Get("/api/v1/config")
	require.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "not_initialized", errorBody(t, resp).Code)

	e.ready(t)

	resp = e.c.Post(authority, "/api/v1/admin/initialize", nil)
	require.Equal(t, http.StatusConflict, resp.Status)
	body := errorBody(t, resp)
	assert.Equal(t, "already_initialized", body.Code)
	assert.Equal(t, gameerr.KindState.String(), body.Kind)
	assert.NotEmpty(t, body.RequestID)

	resp = e.c.Post(alice, "/api/v1/admin/fund", api.FundRequest{Account: string(ledger.Treasury), Amount: 1})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = e.c.Post(authority, "/api/v1/admin/fund", api.FundRequest{Account: "bank:1", Amount: 1})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "invalid_account", errorBody(t, resp).Code)

	resp = e.c.Get("/api/v1/beasts/" + uuid.NewString())
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = e.c.Get("/api/v1/beasts/not-a-uuid")
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "bad_request", errorBody(t, resp).Code)

	resp = e.c.Post(alice, "/api/v1/beasts", map[string]any{"name": "Ember", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.Status, "unknown fields are rejected")

	resp = e.c.Get("/api/v1/combats/7")
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestUpdateConfigReportsChanges(t *testing.T) {
	e := newEnv(t)
	e.ready(t)

	burn := uint8(25)
	resp := e.c.Do(alice, http.MethodPatch, "/api/v1/admin/config", config.Patch{BurnPercentage: &burn})
	require.Equal(t, http.StatusForbidden, resp.Status)

	resp = e.c.Do(authority, http.MethodPatch, "/api/v1/admin/config", config.Patch{BurnPercentage: &burn})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	var out api.UpdateConfigResponse
	resp.Decode(t, &out)
	assert.Equal(t, burn, out.Config.BurnPercentage)
	assert.Equal(t, []config.Change{{Parameter: "burn_percentage", Old: "10", New: "25"}}, out.Changes)
}

func TestBeastLifecycle(t *testing.T) {
	e := newEnv(t)
	e.ready(t)

	seed := fixedSeed
	resp := e.c.Post(alice, "/api/v1/beasts", api.CreateBeastRequest{Seed: &seed, Name: "Ember", URI: "ipfs://ember"})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var b beast.Beast
	resp.Decode(t, &b)
	assert.Equal(t, alice, b.Owner)
	assert.Equal(t, traits.Rarity(b.Traits), b.RarityScore)
	path := "/api/v1/beasts/" + b.ID.String()

	var listed []beast.Beast
	e.c.Get("/api/v1/accounts/"+alice.String()+"/beasts").Decode(t, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, b.ID, listed[0].ID)

	resp = e.c.Post(bob, path+"/abilities/0", api.UnlockAbilityRequest{AbilityID: 1})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = e.c.Post(alice, path+"/abilities/0", api.UnlockAbilityRequest{AbilityID: 1})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))

	var bal api.BalanceResponse
	e.c.Get("/api/v1/accounts/"+alice.String()+"/balance").Decode(t, &bal)
	assert.Equal(t, uint64(100_000-500), bal.Balance)

	resp = e.c.Post(alice, path+"/activities", api.ActivityRequest{Type: 0})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	resp = e.c.Post(alice, path+"/activities", api.ActivityRequest{Type: 0})
	assert.Equal(t, http.StatusConflict, resp.Status, "activity cooldown")

	var cd gameserver.CooldownStatus
	e.c.Get(path+"/cooldowns").Decode(t, &cd)
	assert.False(t, cd.ActivityReady)
	assert.Equal(t, int64(3600), cd.ActivityRemaining)

	var tier api.TierResponse
	e.c.Get(path+"/tier").Decode(t, &tier)
	assert.Equal(t, b.ID, tier.BeastID)
	assert.NotEmpty(t, tier.Tier)

	resp = e.c.Post(alice, path+"/traits/9/upgrade", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = e.c.Post(alice, path+"/transfer", api.TransferRequest{NewOwner: bob})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	var moved beast.Beast
	e.c.Get(path).Decode(t, &moved)
	assert.Equal(t, bob, moved.Owner)
}

func TestSupply(t *testing.T) {
	e := newEnv(t)
	resp := e.c.Get("/api/v1/supply")
	assert.Equal(t, http.StatusConflict, resp.Status)

	e.ready(t)
	seed := fixedSeed
	resp = e.c.Post(alice, "/api/v1/beasts", api.CreateBeastRequest{Seed: &seed, Name: "Ember"})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var b beast.Beast
	resp.Decode(t, &b)
	resp = e.c.Post(alice, "/api/v1/beasts/"+b.ID.String()+"/abilities/0", api.UnlockAbilityRequest{AbilityID: 1})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))

	resp = e.c.Get("/api/v1/supply")
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	var sup gameserver.Supply
	resp.Decode(t, &sup)
	assert.Equal(t, gameserver.Supply{Burned: 250, Treasury: 250, TotalMinted: 1}, sup)
}

// seed stores a beast with exact traits and one unlocked ability per slot.
func (e *env) seed(t *testing.T, owner uuid.UUID, v traits.Vector, levels [4]uint8) beast.Beast {
	t.Helper()
	b := beast.New(uuid.New(), owner, "seeded", "", v, traits.Rarity(v), e.clk.Now())
	for slot, lvl := range levels {
		if lvl > 0 {
			b.Abilities[slot] = uint8(slot) + 1
			b.AbilityLevels[slot] = lvl
		}
	}
	ctx := context.Background()
	require.NoError(t, e.store.Atomically(ctx, func(tx gameserver.Tx) error {
		return tx.CreateBeast(ctx, b)
	}))
	return b
}

func TestOmittedSeedIsDrawnByServer(t *testing.T) {
	e := newEnv(t)
	e.ready(t)

	seed := fixedSeed
	var picked, drawn beast.Beast
	resp := e.c.Post(alice, "/api/v1/beasts", api.CreateBeastRequest{Seed: &seed, Name: "Picked"})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	resp.Decode(t, &picked)
	resp = e.c.Post(alice, "/api/v1/beasts", api.CreateBeastRequest{Name: "Drawn"})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	resp.Decode(t, &drawn)
	assert.Equal(t, picked.Traits, drawn.Traits, "same seed, owner and time")
	assert.NotEqual(t, picked.ID, drawn.ID)

	resp = e.c.Post(alice, "/api/v1/breedings", api.BreedRequest{
		ParentA: picked.ID,
		ParentB: drawn.ID,
		Name:    "Kit",
		Amount:  5000,
	})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var child beast.Beast
	resp.Decode(t, &child)
	assert.Equal(t, alice, child.Owner)
	assert.Equal(t, uint8(1), child.Generation)
	assert.ElementsMatch(t, []uuid.UUID{picked.ID, drawn.ID}, child.Parents[:])

	var bal api.BalanceResponse
	e.c.Get("/api/v1/accounts/"+alice.String()+"/balance").Decode(t, &bal)
	assert.Equal(t, uint64(100_000-5000), bal.Balance)
}

func TestCombatOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.ready(t)
	strength, wisdom := uint8(traits.Strength), uint8(traits.Wisdom)
	ch := e.seed(t, alice, traits.Vector{255, 0, 1, 100}, [4]uint8{10, 0, 1, 0})
	op := e.seed(t, bob, traits.Vector{0, 0, 1, 10}, [4]uint8{0, 0, 1, 0})

	resp := e.c.Post(alice, "/api/v1/combats", api.InitiateRequest{Challenger: ch.ID, Opponent: op.ID, Wager: 1000})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var sess combat.Session
	resp.Decode(t, &sess)
	path := fmt.Sprintf("/api/v1/combats/%d", sess.ID)

	turn := func(who uuid.UUID, slot uint8) combat.TurnResult {
		t.Helper()
		e.clk.Advance(1)
		resp := e.c.Post(who, path+"/turns", api.TurnRequest{AbilityIndex: slot})
		require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
		var res combat.TurnResult
		resp.Decode(t, &res)
		return res
	}

	resp = e.c.Post(bob, path+"/turns", api.TurnRequest{AbilityIndex: wisdom})
	assert.Equal(t, http.StatusConflict, resp.Status, "out of turn")

	turn(alice, wisdom)
	assert.NotNil(t, turn(bob, wisdom).Stake)
	assert.Equal(t, combat.ChallengerWon, turn(alice, strength).Status)

	resp = e.c.Post(alice, path+"/resolve", nil)
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	var st combat.Settlement
	resp.Decode(t, &st)
	assert.Equal(t, ch.ID, st.Winner)
	assert.Equal(t, uint64(1800), st.Payout)

	resp = e.c.Post(alice, path+"/resolve", nil)
	assert.Equal(t, http.StatusConflict, resp.Status)

	var tr combat.Transcript
	e.c.Get(path+"/transcript").Decode(t, &tr)
	require.Len(t, tr.Turns, 3)
	assert.Equal(t, combat.ChallengerWon, tr.Status)

	var stale []combat.Session
	e.c.Get("/api/v1/combats/stale").Decode(t, &stale)
	assert.Empty(t, stale)
}
