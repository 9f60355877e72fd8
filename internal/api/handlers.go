// Package api provides the HTTP surface for the casino engine. It is a thin
// adapter: all game and money decisions live in the casino package.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mejz/casino/internal/auth"
	"github.com/mejz/casino/internal/casino"
	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/game"
	"github.com/mejz/casino/internal/ledger"
	"github.com/mejz/casino/internal/rng"
	"github.com/sirupsen/logrus"
)

// Handler contains all HTTP handlers.
type Handler struct {
	auth    *auth.Service
	casino  *casino.Coordinator
	ledger  ledger.Provider
	rng     *rng.Service
	metrics http.Handler
	log     *logrus.Entry
}

// New creates the API handler. metricsHandler serves /metrics and may be nil
// to disable the endpoint.
func New(authSvc *auth.Service, coordinator *casino.Coordinator, provider ledger.Provider,
	rngSvc *rng.Service, metricsHandler http.Handler, log *logrus.Logger) *Handler {
	return &Handler{
		auth:    authSvc,
		casino:  coordinator,
		ledger:  provider,
		rng:     rngSvc,
		metrics: metricsHandler,
		log:     log.WithField("component", "api"),
	}
}

// Response helpers

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// respondCasinoError maps coordinator errors onto HTTP statuses. A Rejection
// is a normal validation outcome, not a server fault.
func respondCasinoError(w http.ResponseWriter, err error) {
	var rej *casino.Rejection
	switch {
	case errors.As(err, &rej):
		respondError(w, http.StatusUnprocessableEntity, string(rej.Reason), rej.Message)
	case errors.Is(err, casino.ErrNoActiveSession):
		respondError(w, http.StatusNotFound, "NO_ACTIVE_SESSION", "No active game session")
	case errors.Is(err, casino.ErrGameNotSettled):
		respondError(w, http.StatusConflict, "GAME_NOT_SETTLED", "Game is not settled yet")
	case errors.Is(err, casino.ErrWrongGame):
		respondError(w, http.StatusConflict, "WRONG_GAME", "Action does not apply to the active game")
	case errors.Is(err, game.ErrActionNotAllowed):
		respondError(w, http.StatusConflict, "ACTION_NOT_ALLOWED", "Action is not allowed in the current state")
	case errors.Is(err, casino.ErrWithdrawFailed):
		respondError(w, http.StatusBadGateway, "LEDGER_FAILURE", "Bet withdrawal failed")
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// Auth handlers

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new player account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	id, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ledger.ErrPlayerExists) {
			respondError(w, http.StatusConflict, "PLAYER_EXISTS", "Username already taken")
			return
		}
		respondError(w, http.StatusBadRequest, "REGISTRATION_FAILED", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"player_id": id.String()})
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
			return
		}
		h.log.WithError(err).Error("login failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Wallet handlers

// GetBalance returns the player's current balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	player := playerFrom(r)
	balance := h.ledger.Balance(r.Context(), player)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"balance":   balance,
		"formatted": h.ledger.Format(balance),
	})
}

// Game handlers

type betRequest struct {
	Bet float64 `json:"bet"`
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request,
	start func(player uuid.UUID, bet domain.Money) (*casino.Snapshot, error)) {
	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	bet := domain.MoneyFromFloat(req.Bet)
	if !bet.IsPositive() {
		respondError(w, http.StatusBadRequest, "INVALID_BET", "Bet must be positive")
		return
	}

	snap, err := start(playerFrom(r), bet)
	if err != nil {
		respondCasinoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// StartSlots starts a slot machine spin.
func (h *Handler) StartSlots(w http.ResponseWriter, r *http.Request) {
	h.startGame(w, r, func(player uuid.UUID, bet domain.Money) (*casino.Snapshot, error) {
		return h.casino.StartSlots(r.Context(), player, bet)
	})
}

// StartDice starts a dice round.
func (h *Handler) StartDice(w http.ResponseWriter, r *http.Request) {
	h.startGame(w, r, func(player uuid.UUID, bet domain.Money) (*casino.Snapshot, error) {
		return h.casino.StartDice(r.Context(), player, bet)
	})
}

// StartBlackjack starts a blackjack round.
func (h *Handler) StartBlackjack(w http.ResponseWriter, r *http.Request) {
	h.startGame(w, r, func(player uuid.UUID, bet domain.Money) (*casino.Snapshot, error) {
		return h.casino.StartBlackjack(r.Context(), player, bet)
	})
}

// Hit deals another card in the player's blackjack round.
func (h *Handler) Hit(w http.ResponseWriter, r *http.Request) {
	snap, err := h.casino.Hit(r.Context(), playerFrom(r))
	if err != nil {
		respondCasinoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Stand ends the player's blackjack turn.
func (h *Handler) Stand(w http.ResponseWriter, r *http.Request) {
	snap, err := h.casino.Stand(r.Context(), playerFrom(r))
	if err != nil {
		respondCasinoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Finish settles the player's game and credits the payout.
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	snap, err := h.casino.Finish(r.Context(), playerFrom(r))
	if err != nil {
		respondCasinoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetSession returns the player's current session snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap := h.casino.Snapshot(playerFrom(r))
	if snap == nil {
		respondError(w, http.StatusNotFound, "NO_ACTIVE_SESSION", "No active game session")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Admin handlers

// SetGameEnabled toggles a game's availability at runtime.
func (h *Handler) SetGameEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := gameKindFrom(r)
		if !ok {
			respondError(w, http.StatusNotFound, "UNKNOWN_GAME", "Unknown game")
			return
		}
		h.casino.SetGameEnabled(kind, enabled)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"game":    kind,
			"enabled": enabled,
		})
	}
}

// Operational handlers

// HealthCheck reports service liveness plus an RNG self-check.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health, err := h.rng.HealthCheck()
	if err != nil || !health.Healthy {
		respondError(w, http.StatusServiceUnavailable, "RNG_UNHEALTHY", "RNG health check failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_sessions": h.casino.ActiveSessions(),
		"rng_chi_square":  health.ChiSquare,
	})
}

// ServerInfo describes the service.
func (h *Handler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"name":    "casino",
		"version": "1.0.0",
	})
}
