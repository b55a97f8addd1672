package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
)

// InitiateRequest opens a session between the caller's beast and an opponent.
type InitiateRequest struct {
	Challenger uuid.UUID `json:"challenger"`
	Opponent   uuid.UUID `json:"opponent"`
	Wager      uint64    `json:"wager"`
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.svc.InitiateCombat(r.Context(), caller(r), req.Challenger, req.Opponent, req.Wager)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "sessionID", 64)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.svc.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// TurnRequest picks the ability slot to use.
type TurnRequest struct {
	AbilityIndex uint8 `json:"ability_index"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "sessionID", 64)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req TurnRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.ExecuteCombatTurn(r.Context(), caller(r), id, req.AbilityIndex)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "sessionID", 64)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.ResolveCombat(r.Context(), caller(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "sessionID", 64)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tr, err := s.svc.Transcript(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (s *Server) handleStaleSessions(w http.ResponseWriter, r *http.Request) {
	stale, err := s.svc.StaleSessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if stale == nil {
		stale = []combat.Session{}
	}
	writeJSON(w, http.StatusOK, stale)
}
