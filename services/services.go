package services

import (
	cerrors "cryptochat/errors"
	"errors"
	"log/slog"
)

// expected lists the errors that belong to the normal flow: they are
// reported to the caller and never logged as failures.
var expected = []error{
	cerrors.ErrInvalidCredentials,
	cerrors.ErrInvalidPassword,
	cerrors.ErrInvalidRequest,
	cerrors.ErrUserAlreadyExists,
	cerrors.ErrUsernameTaken,
	cerrors.ErrUserNotFound,
	cerrors.ErrProfileNotFound,
	cerrors.ErrUnsupportedAvatar,
	cerrors.ErrAvatarTooLarge,
	cerrors.ErrConversationNotFound,
	cerrors.ErrSelfConversation,
	cerrors.ErrNotParticipant,
	cerrors.ErrEmptyMessage,
	cerrors.ErrMessageTooLong,
	cerrors.ErrInvalidCursor,
	cerrors.ErrInvalidAmount,
	cerrors.ErrInvalidTransactionType,
	cerrors.ErrInsufficientCredits,
}

func isExpected(err error) bool {
	for _, e := range expected {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// logFailure logs unexpected errors once, at the service boundary, and
// returns err unchanged.
func logFailure(log *slog.Logger, op string, err error, attrs ...any) error {
	if err != nil && !isExpected(err) {
		log.Error(op+" failed", append(attrs, "error", err)...)
	}
	return err
}
