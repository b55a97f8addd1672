// Package api exposes the zenbeasts operations as a JSON HTTP API.
//
// The caller of every operation is the account named by the X-Account-ID
// header. Authenticating that header is the job of whatever fronts the API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/gameserver"
)

// Server handles HTTP requests.
type Server struct {
	svc     *gameserver.Service
	seeds   gameserver.SeedSource
	check   func(context.Context) error
	logger  *zap.Logger
	started time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithSeeds replaces the source of seeds for requests that omit one.
func WithSeeds(src gameserver.SeedSource) Option {
	return func(s *Server) { s.seeds = src }
}

// WithHealthCheck makes /health report 503 while check fails.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) { s.check = check }
}

// NewServer creates a Server over svc. Seeds default to crypto/rand.
//
// Precondition: svc and logger must be non-nil.
func NewServer(svc *gameserver.Service, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{svc: svc, seeds: gameserver.CryptoSeeds{}, logger: logger, started: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// seed returns *picked, or a fresh seed when the request left it out.
func (s *Server) seed(picked *uint64) (uint64, error) {
	if picked != nil {
		return *picked, nil
	}
	return s.seeds.Seed()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Get("/supply", s.handleSupply)
		r.Get("/beasts/{beastID}", s.handleGetBeast)
		r.Get("/beasts/{beastID}/cooldowns", s.handleCooldowns)
		r.Get("/beasts/{beastID}/tier", s.handleTier)
		r.Get("/accounts/{owner}/beasts", s.handleOwnerBeasts)
		r.Get("/accounts/{owner}/balance", s.handleBalance)
		r.Get("/combats/stale", s.handleStaleSessions)
		r.Get("/combats/{sessionID}", s.handleGetSession)
		r.Get("/combats/{sessionID}/transcript", s.handleTranscript)

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)

			r.Post("/admin/initialize", s.handleInitialize)
			r.Patch("/admin/config", s.handleUpdateConfig)
			r.Post("/admin/fund", s.handleFund)

			r.Post("/beasts", s.handleCreateBeast)
			r.Post("/beasts/{beastID}/activities", s.handleActivity)
			r.Post("/beasts/{beastID}/rewards/claim", s.handleClaim)
			r.Post("/beasts/{beastID}/traits/{index}/upgrade", s.handleUpgradeTrait)
			r.Post("/beasts/{beastID}/abilities/{slot}", s.handleUnlockAbility)
			r.Post("/beasts/{beastID}/abilities/{slot}/upgrade", s.handleUpgradeAbility)
			r.Post("/beasts/{beastID}/transfer", s.handleTransfer)
			r.Post("/breedings", s.handleBreed)

			r.Post("/combats", s.handleInitiate)
			r.Post("/combats/{sessionID}/turns", s.handleTurn)
			r.Post("/combats/{sessionID}/resolve", s.handleResolve)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.check != nil {
		if err := s.check(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Code      string `json:"code"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// errBadRequest marks a malformed body or path parameter.
var errBadRequest = errors.New("bad request")

// StatusFor maps an error to its HTTP status by kind.
func StatusFor(err error) int {
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest
	}
	switch gameerr.KindOf(err) {
	case gameerr.KindValidation:
		return http.StatusBadRequest
	case gameerr.KindAuthorization:
		return http.StatusForbidden
	case gameerr.KindState:
		return http.StatusConflict
	case gameerr.KindArithmetic:
		return http.StatusUnprocessableEntity
	case gameerr.KindInsufficientResource:
		return http.StatusPaymentRequired
	case gameerr.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err. Internal errors are logged and their text hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := ErrorBody{
		Code:      gameerr.CodeOf(err),
		Kind:      gameerr.KindOf(err).String(),
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	}
	if errors.Is(err, errBadRequest) {
		body.Code, body.Kind = "bad_request", "validation"
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", body.RequestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		body.Message = "internal error"
	}
	writeJSON(w, status, body)
}
