package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/chessrooms/internal/api/handler"
	"github.com/mcoot/chessrooms/internal/api/middleware"
	"github.com/mcoot/chessrooms/internal/api/response"
	sharedmw "github.com/mcoot/chessrooms/internal/middleware"
	"github.com/mcoot/chessrooms/internal/realtime"
	"github.com/mcoot/chessrooms/internal/services/account"
	"github.com/mcoot/chessrooms/internal/services/connection"
	"github.com/mcoot/chessrooms/internal/services/engine"
	"github.com/mcoot/chessrooms/internal/services/keyexchange"
	"github.com/mcoot/chessrooms/internal/services/room"
	"github.com/mcoot/chessrooms/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	Sessions      *session.Registry
	KeyExchange   *keyexchange.Service
	Accounts      *account.Service
	Engine        engine.MoveFinder
	Rooms         *room.Manager
	Connections   *connection.Registry
	Realtime      *realtime.Handler
	Cookie        handler.CookieConfig
	AllowedOrigin string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.Sessions, cfg.KeyExchange, cfg.Cookie)
	accountHandler := handler.NewAccountHandler(cfg.Accounts, cfg.KeyExchange)
	engineHandler := handler.NewEngineHandler(cfg.Engine, cfg.Logger)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(sharedmw.Logging(cfg.Logger))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler(cfg.Rooms, cfg.Connections)).Methods(http.MethodGet)

	// Open routes
	r.HandleFunc("/", helloHandler).Methods(http.MethodGet)
	r.HandleFunc("/establish-connection", sessionHandler.Establish).Methods(http.MethodGet)
	r.HandleFunc("/logout", sessionHandler.Logout).Methods(http.MethodGet)
	r.HandleFunc("/bestmove", engineHandler.BestMove).Methods(http.MethodPost)
	r.HandleFunc("/ws", cfg.Realtime.ServeWS).Methods(http.MethodGet)

	// Routes that need an established session
	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.RequireSession(cfg.Sessions))
	protected.HandleFunc("/get-aes-key", sessionHandler.AESKey).Methods(http.MethodPost)
	protected.HandleFunc("/register", accountHandler.Register).Methods(http.MethodPost)
	protected.HandleFunc("/login", accountHandler.Login).Methods(http.MethodPost)
	protected.HandleFunc("/games", accountHandler.RecordGame).Methods(http.MethodPost)

	return middleware.CORS(cfg.AllowedOrigin)(r)
}

func helloHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Message{Message: "Hello, world!"})
}

func healthHandler(rooms *room.Manager, connections *connection.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status:      "ok",
			Rooms:       rooms.Count(),
			Connections: connections.Count(),
		})
	}
}
