package users_test

import (
	"context"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChangePasswordHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("flagged account gets the new password", func(t *testing.T) {
		repo := newFakeRepoManager()
		mails := &captureDispatcher{}

		account := testUser()
		account.PasswordNeedsChange = true
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(account, nil)
		repo.users.On("UpdatePasswordTx", mock.Anything, mock.Anything, account.ID, mock.MatchedBy(func(hash string) bool {
			return users.ComparePasswordAndHash("FreshSecret7", hash) == nil
		}), true).Return(nil)

		handler := users.NewChangePasswordHandler(repo).
			WithLogger(testLogger{}).
			WithMailDispatcher(mails)

		err := handler.Execute(ctx, users.ChangePasswordMessage{
			Username:        "alice",
			Password:        "FreshSecret7",
			ConfirmPassword: "FreshSecret7",
		})
		require.NoError(t, err)

		sent := mails.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "Password Changed", sent[0].Subject)
		repo.users.AssertExpectations(t)
	})

	t.Run("unflagged account is a no-op", func(t *testing.T) {
		repo := newFakeRepoManager()
		account := testUser()
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(account, nil)

		handler := users.NewChangePasswordHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, users.ChangePasswordMessage{
			Username:        "alice",
			Password:        "FreshSecret7",
			ConfirmPassword: "FreshSecret7",
		})
		require.NoError(t, err)
		repo.users.AssertNotCalled(t, "UpdatePasswordTx",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mismatched confirmation is rejected before any lookup", func(t *testing.T) {
		repo := newFakeRepoManager()

		handler := users.NewChangePasswordHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, users.ChangePasswordMessage{
			Username:        "alice",
			Password:        "FreshSecret7",
			ConfirmPassword: "Other77777",
		})
		assert.ErrorIs(t, err, users.ErrPasswordMismatch)
		repo.users.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
	})

	t.Run("unknown account fails", func(t *testing.T) {
		repo := newFakeRepoManager()
		repo.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, users.ErrUserNotFound)

		handler := users.NewChangePasswordHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, users.ChangePasswordMessage{
			Username:        "ghost",
			Password:        "FreshSecret7",
			ConfirmPassword: "FreshSecret7",
		})
		assert.ErrorIs(t, err, users.ErrUserNotFound)
	})

	t.Run("weak replacement is rejected for a flagged account", func(t *testing.T) {
		repo := newFakeRepoManager()
		account := testUser()
		account.PasswordNeedsChange = true
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(account, nil)

		handler := users.NewChangePasswordHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, users.ChangePasswordMessage{
			Username:        "alice",
			Password:        "alllowercase",
			ConfirmPassword: "alllowercase",
		})
		assert.ErrorIs(t, err, users.ErrWeakPassword)
	})
}
