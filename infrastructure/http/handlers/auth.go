package handlers

import (
	"cryptochat/infrastructure/http/respond"
	"cryptochat/services"
	"log/slog"
	"net/http"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler owns the register and login endpoints.
type AuthHandler struct {
	auth services.IAuthService
	log  *slog.Logger
}

func NewAuthHandler(auth services.IAuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	session, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusCreated, "user created successfully", session)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "login successful", session)
}
