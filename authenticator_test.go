package users_test

import (
	"context"
	"testing"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var authTestConfig = users.SimpleConfig{
	SigningKey: "test-signing-key",
	TokenTTL:   time.Hour,
	Issuer:     "test-issuer",
}

func TestAuther_Login(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	hash, err := users.HashPassword("correct-horse-1A")
	require.NoError(t, err)

	newAccount := func() *users.User {
		account := testUser()
		account.PasswordHash = hash
		return account
	}

	t.Run("valid credentials return a token", func(t *testing.T) {
		repo := newFakeRepoManager()
		mails := &captureDispatcher{}

		account := newAccount()
		repo.users.On("GetByUsername", ctx, "alice").Return(account, nil)
		repo.users.On("GetByID", ctx, account.ID).Return(account, nil)
		repo.users.On("TrackSuccessfulLogin", ctx, account, now).Return(nil)

		auther := users.NewAuthenticator(repo, authTestConfig).
			WithLogger(testLogger{}).
			WithMailDispatcher(mails).
			WithClock(func() time.Time { return now })

		result, err := auther.Login(ctx, "alice", "correct-horse-1A")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.False(t, result.MustChangePassword)

		claims, err := auther.TokenService().Validate(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.ElementsMatch(t, []string{"USER", "ADMIN"}, claims.Roles)

		sent := mails.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, account.Email, sent[0].To)
		assert.Equal(t, "Login Notification", sent[0].Subject)

		repo.users.AssertExpectations(t)
	})

	t.Run("unknown username fails authentication", func(t *testing.T) {
		repo := newFakeRepoManager()
		repo.users.On("GetByUsername", ctx, "ghost").Return(nil, users.ErrUserNotFound)

		auther := users.NewAuthenticator(repo, authTestConfig).WithLogger(testLogger{})

		_, err := auther.Login(ctx, "ghost", "whatever")
		assert.ErrorIs(t, err, users.ErrAuthenticationFailed)
	})

	t.Run("wrong password fails authentication", func(t *testing.T) {
		repo := newFakeRepoManager()
		account := newAccount()
		repo.users.On("GetByUsername", ctx, "alice").Return(account, nil)

		auther := users.NewAuthenticator(repo, authTestConfig).WithLogger(testLogger{})

		_, err := auther.Login(ctx, "alice", "wrong-password")
		assert.ErrorIs(t, err, users.ErrAuthenticationFailed)
		repo.users.AssertNotCalled(t, "TrackSuccessfulLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("disabled account is rejected after credential check", func(t *testing.T) {
		repo := newFakeRepoManager()
		account := newAccount()
		account.Enabled = false
		repo.users.On("GetByUsername", ctx, "alice").Return(account, nil)
		repo.users.On("GetByID", ctx, account.ID).Return(account, nil)

		auther := users.NewAuthenticator(repo, authTestConfig).WithLogger(testLogger{})

		_, err := auther.Login(ctx, "alice", "correct-horse-1A")
		assert.ErrorIs(t, err, users.ErrUserDisabled)
		repo.users.AssertNotCalled(t, "TrackSuccessfulLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("must change flag is surfaced in the result", func(t *testing.T) {
		repo := newFakeRepoManager()
		account := newAccount()
		account.PasswordNeedsChange = true
		repo.users.On("GetByUsername", ctx, "alice").Return(account, nil)
		repo.users.On("GetByID", ctx, account.ID).Return(account, nil)
		repo.users.On("TrackSuccessfulLogin", ctx, account, mock.Anything).Return(nil)

		auther := users.NewAuthenticator(repo, authTestConfig).WithLogger(testLogger{})

		result, err := auther.Login(ctx, "alice", "correct-horse-1A")
		require.NoError(t, err)
		assert.True(t, result.MustChangePassword)
	})
}
