package server

import (
	"context"
	"cryptochat/auth"
	"cryptochat/infrastructure/http/handlers"
	"cryptochat/infrastructure/http/middleware"
	"cryptochat/repositories"
	"cryptochat/services"
	"cryptochat/storage"
	"log/slog"
	"net/http"
	"time"
)

type Config struct {
	Address        string
	CORSOrigins    []string
	MaxAvatarBytes int
}

// Dependencies are the services and infrastructure the routes are bound to.
type Dependencies struct {
	Auth       services.IAuthService
	Profiles   services.IProfileService
	Chat       services.IChatService
	Ledger     services.ILedgerService
	Tokens     *auth.TokenManager
	Objects    storage.IObjectStore
	Pinger     repositories.Pinger
	Monitor    handlers.ProcessStatsProvider
	Censorship handlers.ModerationStatsProvider
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
	log   *slog.Logger
}

// NewHandler wires every route and the middleware chain.
func NewHandler(cfg Config, deps Dependencies, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	protect := handlers.Protect(middleware.Authenticate(deps.Tokens, log))

	handlers.NewHealthHandler(time.Now(), deps.Pinger, deps.Monitor, deps.Censorship, log).Register(mux)
	handlers.NewObjectHandler(deps.Objects, log).Register(mux)
	handlers.NewAuthHandler(deps.Auth, log).Register(mux)
	handlers.NewProfileHandler(deps.Profiles, cfg.MaxAvatarBytes, log).Register(mux, protect)
	handlers.NewConversationHandler(deps.Chat, log).Register(mux, protect)
	handlers.NewCreditHandler(deps.Ledger, log).Register(mux, protect)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, mux))
}

func New(cfg Config, deps Dependencies, log *slog.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           NewHandler(cfg, deps, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer, log: log}
}

// Start begins serving HTTP traffic. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "address", s.inner.Addr)
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
