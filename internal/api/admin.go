package api

import (
	"net/http"

	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/ledger"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.Config(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	sup, err := s.svc.Supply(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

// handleInitialize stores the default rules with the body's overrides and the
// caller as authority. The body is optional.
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var patch config.Patch
	if err := decode(r, &patch, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg, _, err := config.DefaultGameConfig().Apply(patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg, err = s.svc.Initialize(r.Context(), caller(r), cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// UpdateConfigResponse carries the new snapshot and what changed.
type UpdateConfigResponse struct {
	Config  config.GameConfig `json:"config"`
	Changes []config.Change   `json:"changes"`
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch config.Patch
	if err := decode(r, &patch, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg, changes, err := s.svc.UpdateConfig(r.Context(), caller(r), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if changes == nil {
		changes = []config.Change{}
	}
	writeJSON(w, http.StatusOK, UpdateConfigResponse{Config: cfg, Changes: changes})
}

// FundRequest credits tokens to an account.
type FundRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	var req FundRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	acct, err := ledger.ParseAccount(req.Account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Fund(r.Context(), caller(r), acct, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	bal, err := s.svc.Balance(r.Context(), acct)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Account: acct, Balance: bal})
}
