package auth

import (
	"context"
	cerrors "cryptochat/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPassw0rdIsTooStrong!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password
	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)

	// Corrupted hash
	_, err = ComparePassword(password, "$bcrypt$whatever")
	req.Error(err)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{"Valid request", RegisterRequest{"test@example.com", "ComplexPass123!", "satoshi_n"}, nil},
		{"Invalid email", RegisterRequest{"notanemail", "ComplexPass123!", "satoshi"}, cerrors.ErrInvalidRequest},
		{"Password too short", RegisterRequest{"test@example.com", "Short1!", "satoshi"}, cerrors.ErrInvalidRequest},
		{"Missing digit", RegisterRequest{"test@example.com", "NoDigitPass!", "satoshi"}, cerrors.ErrInvalidPassword},
		{"Missing special char", RegisterRequest{"test@example.com", "NoSpecialChar123", "satoshi"}, cerrors.ErrInvalidPassword},
		{"Missing uppercase", RegisterRequest{"test@example.com", "nouppercase123!", "satoshi"}, cerrors.ErrInvalidPassword},
		{"Password too long (edge case)", RegisterRequest{"test@example.com", strings.Repeat("a", 73), "satoshi"}, cerrors.ErrInvalidRequest},
		{"Username too short", RegisterRequest{"test@example.com", "ComplexPass123!", "sa"}, cerrors.ErrInvalidRequest},
		{"Username with spaces", RegisterRequest{"test@example.com", "ComplexPass123!", "satoshi n"}, cerrors.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr != nil {
				req.ErrorIs(err, tt.wantErr)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenManager_Generate_And_Validate(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", "cryptochat", time.Hour)

	token, expiresAt, err := manager.Generate("user-1", []string{"user"})
	req.NoError(err)
	req.WithinDuration(time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal([]string{"user"}, claims.Roles)

	ctx := WithClaims(context.Background(), claims)
	id, ok := UserIDFrom(ctx)
	req.True(ok)
	req.Equal("user-1", id)
}

func TestTokenManager_Rejects_Foreign_Tokens(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", "cryptochat", time.Hour)

	// Signed with another secret
	token, _, err := NewTokenManager("other-secret", "cryptochat", time.Hour).Generate("user-1", nil)
	req.NoError(err)
	_, err = manager.Validate(token)
	req.Error(err)

	// Issued by someone else
	token, _, err = NewTokenManager("test-secret", "elsewhere", time.Hour).Generate("user-1", nil)
	req.NoError(err)
	_, err = manager.Validate(token)
	req.Error(err)

	// Expired
	token, _, err = NewTokenManager("test-secret", "cryptochat", -time.Minute).Generate("user-1", nil)
	req.NoError(err)
	_, err = manager.Validate(token)
	req.Error(err)

	_, ok := UserIDFrom(context.Background())
	req.False(ok)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
