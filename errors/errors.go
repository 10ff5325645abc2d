package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidRequest     = fmt.Errorf("invalid request")
	ErrTokenGeneration    = fmt.Errorf("failed to generate token")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUsernameTaken      = fmt.Errorf("username already taken")

	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrProfileNotFound   = fmt.Errorf("profile not found")
	ErrUnsupportedAvatar = fmt.Errorf("unsupported avatar format")
	ErrAvatarTooLarge    = fmt.Errorf("avatar exceeds maximum size")

	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrStartConversation    = fmt.Errorf("failed to start conversation")
	ErrSelfConversation     = fmt.Errorf("cannot start a conversation with yourself")
	ErrNotParticipant       = fmt.Errorf("profile is not a participant of the conversation")
	ErrEmptyMessage         = fmt.Errorf("message content is empty")
	ErrMessageTooLong       = fmt.Errorf("message content is too long")
	ErrInvalidCursor        = fmt.Errorf("invalid pagination cursor")

	ErrInvalidAmount          = fmt.Errorf("credit amount must not be zero")
	ErrInvalidTransactionType = fmt.Errorf("unknown transaction type")
	ErrInsufficientCredits    = fmt.Errorf("insufficient credits")

	ErrObjectNotFound = fmt.Errorf("object not found")
	ErrInvalidPath    = fmt.Errorf("invalid object path")
)
