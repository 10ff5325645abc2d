package handlers

import (
	"cryptochat/auth"
	cerrors "cryptochat/errors"
	"cryptochat/infrastructure/http/respond"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

const maxJSONBody = 1 << 20

// Protect wraps the handlers that require an authenticated user.
type Protect func(http.Handler) http.Handler

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", cerrors.ErrInvalidRequest)
	}
	return nil
}

// currentUser returns the id stored by the authentication middleware.
func currentUser(w http.ResponseWriter, log *slog.Logger, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFrom(r.Context())
	if !ok {
		respond.Error(w, log, http.StatusUnauthorized, "missing bearer token")
	}
	return id, ok
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cerrors.ErrProfileNotFound),
		errors.Is(err, cerrors.ErrConversationNotFound),
		errors.Is(err, cerrors.ErrUserNotFound),
		errors.Is(err, cerrors.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, cerrors.ErrInvalidRequest),
		errors.Is(err, cerrors.ErrInvalidPassword),
		errors.Is(err, cerrors.ErrSelfConversation),
		errors.Is(err, cerrors.ErrEmptyMessage),
		errors.Is(err, cerrors.ErrMessageTooLong),
		errors.Is(err, cerrors.ErrInvalidCursor),
		errors.Is(err, cerrors.ErrUnsupportedAvatar),
		errors.Is(err, cerrors.ErrInvalidAmount),
		errors.Is(err, cerrors.ErrInvalidTransactionType),
		errors.Is(err, cerrors.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, cerrors.ErrAvatarTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, cerrors.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, cerrors.ErrUserAlreadyExists),
		errors.Is(err, cerrors.ErrUsernameTaken),
		errors.Is(err, cerrors.ErrInsufficientCredits):
		return http.StatusConflict
	case errors.Is(err, cerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps domain errors to statuses. Unexpected errors were already
// logged by the services; the client only gets a transient message.
func writeError(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	status := statusFor(err)
	if status != http.StatusInternalServerError {
		respond.Error(w, log, status, err.Error())
		return
	}
	log.Debug("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	message := "something went wrong, please try again"
	if errors.Is(err, cerrors.ErrStartConversation) {
		message = cerrors.ErrStartConversation.Error()
	}
	respond.Error(w, log, status, message)
}
