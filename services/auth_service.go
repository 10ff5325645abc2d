package services

import (
	"context"
	"cryptochat/auth"
	"cryptochat/contract"
	"cryptochat/domain"
	"cryptochat/domain/event"
	cerrors "cryptochat/errors"
	"cryptochat/repositories"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var defaultRoles = []string{"user"}

type IAuthService interface {
	Register(ctx context.Context, email, password, username string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
}

// Session is what a client keeps after signing in. Signing out is
// dropping the token.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Profile   domain.Profile `json:"profile"`
}

type AuthService struct {
	users    repositories.IUserRepository
	profiles repositories.IProfileRepository
	tokens   *auth.TokenManager
	events   contract.IEventPublisher
	log      *slog.Logger
}

func NewAuthService(
	users repositories.IUserRepository,
	profiles repositories.IProfileRepository,
	tokens *auth.TokenManager,
	events contract.IEventPublisher,
	log *slog.Logger,
) *AuthService {
	return &AuthService{users: users, profiles: profiles, tokens: tokens, events: events, log: log}
}

func (a *AuthService) Register(ctx context.Context, email, password, username string) (Session, error) {
	req := auth.RegisterRequest{Email: strings.TrimSpace(email), Password: password, Username: strings.TrimSpace(username)}
	if err := auth.ValidateRegister(req); err != nil {
		return Session{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, logFailure(a.log, "Hash password", err)
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	user := repositories.User{
		ID:           id,
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        defaultRoles,
		CreatedAt:    now,
	}
	profile := domain.Profile{
		ID:        id,
		Username:  req.Username,
		Credits:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.users.CreateUser(ctx, user, profile); err != nil {
		return Session{}, logFailure(a.log, "Create user", err, "username", req.Username)
	}
	a.log.Info("User registered", "profile_id", id, "username", req.Username)

	if err := a.events.Publish(ctx, event.ProfileChanged{Profile: profile, At: now}); err != nil {
		a.log.Warn("Profile change not indexed", "profile_id", id, "error", err)
	}
	return a.session(user, profile)
}

// Login never tells an unknown email apart from a wrong password.
func (a *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := a.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, cerrors.ErrUserNotFound) {
			return Session{}, cerrors.ErrInvalidCredentials
		}
		return Session{}, logFailure(a.log, "Get user", err)
	}

	ok, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return Session{}, logFailure(a.log, "Compare password", err, "user_id", user.ID)
	}
	if !ok {
		return Session{}, cerrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := a.profiles.TouchLastSeen(ctx, user.ID, now); err != nil {
		return Session{}, logFailure(a.log, "Touch profile", err, "user_id", user.ID)
	}
	profile, err := a.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		return Session{}, logFailure(a.log, "Get profile", err, "user_id", user.ID)
	}
	return a.session(user, profile)
}

func (a *AuthService) session(user repositories.User, profile domain.Profile) (Session, error) {
	token, expiresAt, err := a.tokens.Generate(user.ID, user.Roles)
	if err != nil {
		return Session{}, logFailure(a.log, "Generate token", fmt.Errorf("%w: %w", cerrors.ErrTokenGeneration, err), "user_id", user.ID)
	}
	return Session{Token: token, ExpiresAt: expiresAt, Profile: profile}, nil
}
