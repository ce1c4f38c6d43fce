package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-server/internal/auth"
	"github.com/Tomlord1122/todo-server/internal/domain"
	"github.com/Tomlord1122/todo-server/internal/repository"
)

func newTestAuthService(t *testing.T) (AuthService, *auth.Sessions) {
	t.Helper()
	sessions := auth.NewSessions("0123456789abcdef0123456789abcdef", time.Hour, false)
	svc, err := NewAuthService(repository.NewMemoryStore().Users(), sessions)
	require.NoError(t, err)
	return svc, sessions
}

func TestSignupAndLogin(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupRequest{Email: "  Alice@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.ID)

	resp, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)

	id, err := sessions.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: user.ID, Email: "alice@example.com"}, id)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   SignupRequest
		field string
	}{
		{"missing email", SignupRequest{Password: "password123"}, "Email"},
		{"bad email", SignupRequest{Email: "not-an-email", Password: "password123"}, "Email"},
		{"display name", SignupRequest{Email: "Alice <a@example.com>", Password: "password123"}, "Email"},
		{"short password", SignupRequest{Email: "a@example.com", Password: "short"}, "Password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, SignupRequest{Email: "A@example.com", Password: "password456"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
