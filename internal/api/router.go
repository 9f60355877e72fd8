package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router.
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(h.RecoveryMiddleware)
	r.Use(CORSMiddleware)
	r.Use(h.LoggingMiddleware)

	// Public routes
	r.HandleFunc("/", h.ServerInfo).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Auth routes (public)
	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", h.Register).Methods("POST")
	authRoutes.HandleFunc("/login", h.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(h.AuthMiddleware)

	protected.HandleFunc("/wallet/balance", h.GetBalance).Methods("GET")

	protected.HandleFunc("/games/slots", h.StartSlots).Methods("POST")
	protected.HandleFunc("/games/dice", h.StartDice).Methods("POST")
	protected.HandleFunc("/games/blackjack", h.StartBlackjack).Methods("POST")
	protected.HandleFunc("/games/blackjack/hit", h.Hit).Methods("POST")
	protected.HandleFunc("/games/blackjack/stand", h.Stand).Methods("POST")
	protected.HandleFunc("/games/finish", h.Finish).Methods("POST")
	protected.HandleFunc("/games/session", h.GetSession).Methods("GET")

	protected.HandleFunc("/admin/games/{game}/enable", h.SetGameEnabled(true)).Methods("POST")
	protected.HandleFunc("/admin/games/{game}/disable", h.SetGameEnabled(false)).Methods("POST")

	// WebSocket: closing the socket mid-game triggers the refund path.
	protected.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(NotFoundHandler)
	return r
}

// NotFoundHandler handles 404 errors.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}
