package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rkuzmin/streamhub/internal/database"
)

func setupAuth(t *testing.T) *Service {
	t.Helper()

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "auth.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewService(
		database.NewUserRepository(db),
		NewTokenIssuer("test-secret", time.Hour),
	)
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "alice", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEqual(t, "correct horse battery", user.PasswordHash, "password must be hashed")

	loggedIn, token, err := svc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
	require.NotEmpty(t, token)

	uid, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@example.com", "bob", "a long password")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "bob", "wrong password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "a long password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RegisterValidation(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		username string
		password string
		wantErr  error
	}{
		{"MissingEmail", "", "user", "a long password", ErrInvalidInput},
		{"BadEmail", "not-an-email", "user", "a long password", ErrInvalidInput},
		{"MissingUsername", "a@b.com", "", "a long password", ErrInvalidInput},
		{"ShortPassword", "a@b.com", "user", "short", ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.username, tt.password)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_RegisterRejectsDuplicates(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol@example.com", "carol", "a long password")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "carol@example.com", "other", "a long password")
	require.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, "other@example.com", "carol", "a long password")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestTokenIssuer_RejectsTampering(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.Generate("user-1")
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Validate(token + "x")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)

	token, err := issuer.Generate("user-1")
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserIDContext(t *testing.T) {
	ctx := context.Background()

	_, ok := UserIDFrom(ctx)
	require.False(t, ok)

	ctx = WithUserID(ctx, "user-42")
	uid, ok := UserIDFrom(ctx)
	require.True(t, ok)
	require.Equal(t, "user-42", uid)
}
