package users_test

import (
	"context"
	"testing"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVerificationIssuer_RequestCode(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("issues a code and mails it", func(t *testing.T) {
		repo := newFakeRepoManager()
		mails := &captureDispatcher{}

		account := testUser()
		repo.users.On("GetByEmailTx", ctx, mock.Anything, account.Email).Return(account, nil)
		repo.verifications.On("DeleteByEmailTx", ctx, mock.Anything, account.Email).Return(nil)
		repo.verifications.On("CreateTx", ctx, mock.Anything, mock.MatchedBy(func(v *users.Verification) bool {
			return v.Email == account.Email &&
				v.Code == "482913" &&
				v.ExpiresAt.Equal(now.Add(5*time.Minute))
		})).Return(&users.Verification{
			ID:        uuid.New(),
			Email:     account.Email,
			Code:      "482913",
			ExpiresAt: now.Add(5 * time.Minute),
		}, nil)

		issuer := users.NewVerificationIssuer(repo, users.SimpleConfig{}).
			WithLogger(testLogger{}).
			WithCodeSource(fixedCodeSource{code: "482913"}).
			WithMailDispatcher(mails).
			WithClock(func() time.Time { return now })

		require.NoError(t, issuer.RequestCode(ctx, account.Email))

		sent := mails.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, account.Email, sent[0].To)
		assert.Equal(t, "Password Reset Code", sent[0].Subject)
		assert.Contains(t, sent[0].Body, "482913")
		assert.Contains(t, sent[0].Body, "5 minutes")

		repo.verifications.AssertExpectations(t)
	})

	t.Run("unknown email succeeds without issuing", func(t *testing.T) {
		repo := newFakeRepoManager()
		mails := &captureDispatcher{}

		repo.users.On("GetByEmailTx", ctx, mock.Anything, "ghost@example.com").
			Return(nil, users.ErrUserNotFound)

		issuer := users.NewVerificationIssuer(repo, users.SimpleConfig{}).
			WithLogger(testLogger{}).
			WithMailDispatcher(mails)

		require.NoError(t, issuer.RequestCode(ctx, "ghost@example.com"))
		assert.Empty(t, mails.sent())
		repo.verifications.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVerificationIssuer_ValidateCode(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	email := "alice@example.com"
	userID := uuid.New()

	newIssuer := func(repo *fakeRepoManager, mails *captureDispatcher) *users.VerificationIssuer {
		return users.NewVerificationIssuer(repo, users.SimpleConfig{}).
			WithLogger(testLogger{}).
			WithCodeSource(fixedCodeSource{code: "775031"}).
			WithMailDispatcher(mails).
			WithClock(func() time.Time { return now })
	}

	t.Run("live code is returned unconsumed", func(t *testing.T) {
		repo := newFakeRepoManager()
		mails := &captureDispatcher{}

		record := &users.Verification{
			ID:        uuid.New(),
			UserID:    &userID,
			Email:     email,
			Code:      "482913",
			ExpiresAt: now.Add(2 * time.Minute),
		}
		repo.verifications.On("GetByEmailAndCodeTx", ctx, mock.Anything, email, "482913").
			Return(record, nil)

		got, err := newIssuer(repo, mails).ValidateCode(ctx, email, "482913")
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)

		// Validation alone neither deletes nor replaces anything.
		repo.verifications.AssertNotCalled(t, "DeleteTx", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, mails.sent())
	})

	t.Run("unknown pair fails with ErrCodeNotFound", func(t *testing.T) {
		repo := newFakeRepoManager()
		repo.verifications.On("GetByEmailAndCodeTx", ctx, mock.Anything, email, "000000").
			Return(nil, users.ErrCodeNotFound)

		_, err := newIssuer(repo, &captureDispatcher{}).ValidateCode(ctx, email, "000000")
		assert.ErrorIs(t, err, users.ErrCodeNotFound)
	})

	t.Run("expired code is replaced and the replacement mailed", func(t *testing.T) {
		repo := newFakeRepoManager()
		mails := &captureDispatcher{}

		expired := &users.Verification{
			ID:        uuid.New(),
			UserID:    &userID,
			Email:     email,
			Code:      "482913",
			ExpiresAt: now.Add(-time.Minute),
		}
		repo.verifications.On("GetByEmailAndCodeTx", ctx, mock.Anything, email, "482913").
			Return(expired, nil)
		repo.verifications.On("DeleteTx", ctx, mock.Anything, expired).Return(nil)
		repo.verifications.On("DeleteByEmailTx", ctx, mock.Anything, email).Return(nil)
		repo.verifications.On("CreateTx", ctx, mock.Anything, mock.MatchedBy(func(v *users.Verification) bool {
			return v.Email == email && v.Code == "775031" && v.UserID != nil && *v.UserID == userID
		})).Return(&users.Verification{
			ID:        uuid.New(),
			UserID:    &userID,
			Email:     email,
			Code:      "775031",
			ExpiresAt: now.Add(5 * time.Minute),
		}, nil)

		_, err := newIssuer(repo, mails).ValidateCode(ctx, email, "482913")
		assert.ErrorIs(t, err, users.ErrCodeExpired)

		sent := mails.sent()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].Body, "775031")

		repo.verifications.AssertExpectations(t)
	})
}
