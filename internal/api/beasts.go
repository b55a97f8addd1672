package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/game/beast"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
	"github.com/cory-johannsen/zenbeasts/internal/gameserver"
)

// CreateBeastRequest mints a beast for the caller. A nil Seed is drawn by
// the server.
type CreateBeastRequest struct {
	Seed *uint64 `json:"seed,omitempty"`
	Name string  `json:"name"`
	URI  string  `json:"metadata_uri"`
}

func (s *Server) handleCreateBeast(w http.ResponseWriter, r *http.Request) {
	var req CreateBeastRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	seed, err := s.seed(req.Seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.CreateBeast(r.Context(), gameserver.CreateBeastRequest{
		ID:    uuid.New(),
		Owner: caller(r),
		Seed:  seed,
		Name:  req.Name,
		URI:   req.URI,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBeast(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.Beast(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCooldowns(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.CooldownStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// TierResponse reports the rarity tier of a beast.
type TierResponse struct {
	BeastID uuid.UUID `json:"beast_id"`
	Tier    string    `json:"tier"`
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tier, err := s.svc.RarityTier(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TierResponse{BeastID: id, Tier: tier.String()})
}

func (s *Server) handleOwnerBeasts(w http.ResponseWriter, r *http.Request) {
	owner, err := pathUUID(r, "owner")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.svc.BeastsByOwner(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []beast.Beast{}
	}
	writeJSON(w, http.StatusOK, list)
}

// BalanceResponse reports a wallet balance.
type BalanceResponse struct {
	Account ledger.Account `json:"account"`
	Balance uint64         `json:"balance"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := pathUUID(r, "owner")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	acct := ledger.Wallet(owner)
	bal, err := s.svc.Balance(r.Context(), acct)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Account: acct, Balance: bal})
}

// ActivityRequest selects the activity to perform.
type ActivityRequest struct {
	Type uint8 `json:"activity_type"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req ActivityRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.PerformActivity(r.Context(), caller(r), id, req.Type)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ClaimResponse reports a reward payout.
type ClaimResponse struct {
	Amount uint64 `json:"amount"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	paid, err := s.svc.ClaimRewards(r.Context(), caller(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{Amount: paid})
}

func (s *Server) handleUpgradeTrait(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	idx, err := pathUint(r, "index", 8)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.UpgradeTrait(r.Context(), caller(r), id, uint8(idx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UnlockAbilityRequest picks the ability stored in a slot.
type UnlockAbilityRequest struct {
	AbilityID uint8 `json:"ability_id"`
}

func (s *Server) handleUnlockAbility(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	slot, err := pathUint(r, "slot", 8)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req UnlockAbilityRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.UnlockAbility(r.Context(), caller(r), id, uint8(slot), req.AbilityID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpgradeAbility(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	slot, err := pathUint(r, "slot", 8)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.UpgradeAbility(r.Context(), caller(r), id, uint8(slot))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TransferRequest names the new owner.
type TransferRequest struct {
	NewOwner uuid.UUID `json:"new_owner"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "beastID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req TransferRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.TransferBeast(r.Context(), caller(r), id, req.NewOwner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// BreedRequest breeds two of the caller's beasts.
type BreedRequest struct {
	ParentA uuid.UUID `json:"parent_a"`
	ParentB uuid.UUID `json:"parent_b"`
	Seed    *uint64   `json:"seed,omitempty"`
	Name    string    `json:"name"`
	URI     string    `json:"metadata_uri"`
	Amount  uint64    `json:"amount"`
}

func (s *Server) handleBreed(w http.ResponseWriter, r *http.Request) {
	var req BreedRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	seed, err := s.seed(req.Seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	child, err := s.svc.BreedBeasts(r.Context(), gameserver.BreedRequest{
		Caller:  caller(r),
		ParentA: req.ParentA,
		ParentB: req.ParentB,
		ChildID: uuid.New(),
		Seed:    seed,
		Name:    req.Name,
		URI:     req.URI,
		Amount:  req.Amount,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}
