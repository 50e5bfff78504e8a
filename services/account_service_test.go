package services

import (
	"context"
	"testing"
	"time"

	"loopr_server/apperrors"
	"loopr_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAccounts() (*AccountService, *SessionService) {
	now := time.Now()
	sessions, _ := newTestSessions(&now)
	return &AccountService{
		Dynamo:   &DynamoService{Client: newFakeDynamo()},
		Table:    "accounts",
		Sessions: sessions,
		Cost:     bcrypt.MinCost,
	}, sessions
}

func TestSignUpThenLogin(t *testing.T) {
	accounts, sessions := newTestAccounts()
	ctx := context.Background()

	created, err := accounts.SignUp(ctx, "  Jane@Example.com ", "birdie42")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.NotEmpty(t, created.UserID)

	loggedIn, err := accounts.Login(ctx, "jane@example.com", "birdie42")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, loggedIn.UserID)

	current, err := sessions.CurrentSession(ctx, models.Credentials{AccessToken: loggedIn.AccessToken})
	require.NoError(t, err)
	assert.Equal(t, created.UserID, current.UserID)
}

func TestSignUpValidation(t *testing.T) {
	accounts, _ := newTestAccounts()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"missing email", "", "birdie42", "email"},
		{"malformed email", "jane@", "birdie42", "email"},
		{"display name form", "Jane <jane@example.com>", "birdie42", "email"},
		{"short password", "jane@example.com", "abc", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.SignUp(ctx, tt.email, tt.password)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.KindInvalidInput, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	accounts, _ := newTestAccounts()
	ctx := context.Background()

	_, err := accounts.SignUp(ctx, "jane@example.com", "birdie42")
	require.NoError(t, err)

	_, err = accounts.SignUp(ctx, "JANE@example.com", "eagle123")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	accounts, _ := newTestAccounts()
	ctx := context.Background()

	_, err := accounts.SignUp(ctx, "jane@example.com", "birdie42")
	require.NoError(t, err)

	_, wrongPassword := accounts.Login(ctx, "jane@example.com", "bogey")
	_, unknownEmail := accounts.Login(ctx, "nobody@example.com", "birdie42")

	assert.ErrorIs(t, wrongPassword, apperrors.ErrNotAuthenticated)
	assert.ErrorIs(t, unknownEmail, apperrors.ErrNotAuthenticated)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestSignOutRevokesRefresh(t *testing.T) {
	accounts, sessions := newTestAccounts()
	ctx := context.Background()

	session, err := accounts.SignUp(ctx, "jane@example.com", "birdie42")
	require.NoError(t, err)

	require.NoError(t, accounts.SignOut(ctx, session.RefreshToken))
	_, err = sessions.RefreshSession(ctx, models.Credentials{RefreshToken: session.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}
