package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamshare/backend/internal/apperror"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/internal/models"
)

func TestRegistration_SubmitCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("password mismatch never reaches the provider", func(t *testing.T) {
		provider := &fakeProvider{}
		accounts := newMemoryAccounts()
		reg := NewRegistration(provider, accounts)

		outcome, err := reg.SubmitCredentials(ctx, "a@team.io", "secret1", "secret2", models.UserRoleTeacher)
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, "Passwords do not match!", err.Error())
		assert.Equal(t, RouteNone, outcome.Route)
		assert.Equal(t, 0, provider.createCalls)
		assert.Equal(t, 0, accounts.puts)
	})

	t.Run("success writes the account and routes to login", func(t *testing.T) {
		provider := &fakeProvider{}
		accounts := newMemoryAccounts()
		reg := NewRegistration(provider, accounts)

		outcome, err := reg.SubmitCredentials(ctx, "lead@team.io", "secret1", "secret1", models.UserRoleTeamLeader)
		require.NoError(t, err)
		assert.Equal(t, RouteLogin, outcome.Route)
		assert.Equal(t, "Registration successful! Redirecting to login...", outcome.Message)

		account, err := accounts.Get(ctx, "uid-lead@team.io")
		require.NoError(t, err)
		assert.Equal(t, models.UserRoleTeamLeader, account.Role)
	})

	t.Run("empty role falls back to teacher", func(t *testing.T) {
		accounts := newMemoryAccounts()
		reg := NewRegistration(&fakeProvider{}, accounts)

		_, err := reg.SubmitCredentials(ctx, "t@team.io", "secret1", "secret1", "")
		require.NoError(t, err)
		account, err := accounts.Get(ctx, "uid-t@team.io")
		require.NoError(t, err)
		assert.Equal(t, models.UserRoleTeacher, account.Role)
	})

	t.Run("invalid role is rejected locally", func(t *testing.T) {
		provider := &fakeProvider{}
		reg := NewRegistration(provider, newMemoryAccounts())

		_, err := reg.SubmitCredentials(ctx, "t@team.io", "secret1", "secret1", "admin")
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, 0, provider.createCalls)
	})

	t.Run("provider error is surfaced verbatim with no account write", func(t *testing.T) {
		provider := &fakeProvider{createErr: identity.ErrEmailInUse}
		accounts := newMemoryAccounts()
		reg := NewRegistration(provider, accounts)

		outcome, err := reg.SubmitCredentials(ctx, "dup@team.io", "secret1", "secret1", models.UserRoleTeacher)
		require.ErrorIs(t, err, apperror.ErrAuth)
		require.ErrorIs(t, err, identity.ErrEmailInUse)
		assert.Equal(t, "email already in use", err.Error())
		assert.Equal(t, RouteNone, outcome.Route)
		assert.Equal(t, 0, accounts.puts)
	})

	t.Run("account write failure is a store error", func(t *testing.T) {
		accounts := newMemoryAccounts()
		accounts.putErr = errors.New("connection refused")
		reg := NewRegistration(&fakeProvider{}, accounts)

		_, err := reg.SubmitCredentials(ctx, "a@team.io", "secret1", "secret1", models.UserRoleTeacher)
		require.ErrorIs(t, err, apperror.ErrStore)
	})
}

func TestRegistration_FederatedExistingAccount(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{federated: identity.Identity{ID: "uid-g", Email: "g@team.io", Provider: models.AuthProviderGoogle}}
	accounts := newMemoryAccounts()
	accounts.accounts["uid-g"] = models.UserAccount{ID: "uid-g", Email: "g@team.io", Role: models.UserRoleTeamMember}
	reg := NewRegistration(provider, accounts)

	outcome, err := reg.SignInWithFederatedProvider(ctx, "google", "code")
	require.NoError(t, err)
	assert.Equal(t, RouteDashboard, outcome.Route)
	assert.Equal(t, StateIdle, outcome.State)
	assert.Equal(t, "Google Sign-In successful! Redirecting to dashboard...", outcome.Message)
	assert.Equal(t, StateIdle, reg.State())
	_, pending := reg.Pending()
	assert.False(t, pending)
	assert.Equal(t, 0, accounts.puts)
}

func TestRegistration_FederatedNewIdentityAwaitsRole(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{federated: identity.Identity{ID: "uid-h", Email: "h@team.io", Provider: models.AuthProviderGitHub}}
	accounts := newMemoryAccounts()
	reg := NewRegistration(provider, accounts)

	outcome, err := reg.SignInWithFederatedProvider(ctx, "github", "code")
	require.NoError(t, err)
	assert.Equal(t, RouteNone, outcome.Route)
	assert.Equal(t, StateAwaitingRole, outcome.State)
	assert.Equal(t, StateAwaitingRole, reg.State())
	assert.Equal(t, 0, accounts.puts, "no account is written before a role is chosen")

	held, ok := reg.Pending()
	require.True(t, ok)
	assert.Equal(t, "uid-h", held.ID)

	_, err = reg.CompleteFederatedOnboarding(ctx, "superuser")
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, StateAwaitingRole, reg.State())
	assert.Equal(t, 0, accounts.puts)

	outcome, err = reg.CompleteFederatedOnboarding(ctx, models.UserRoleTeamMember)
	require.NoError(t, err)
	assert.Equal(t, RouteDashboard, outcome.Route)
	assert.Equal(t, "GitHub Registration successful! Redirecting to dashboard...", outcome.Message)
	assert.Equal(t, StateIdle, reg.State())

	account, err := accounts.Get(ctx, "uid-h")
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleTeamMember, account.Role)
}

func TestRegistration_CompleteWithoutHeldIdentityIsNoop(t *testing.T) {
	accounts := newMemoryAccounts()
	reg := NewRegistration(&fakeProvider{}, accounts)

	outcome, err := reg.CompleteFederatedOnboarding(context.Background(), models.UserRoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, RouteNone, outcome.Route)
	assert.Equal(t, StateIdle, outcome.State)
	assert.Equal(t, 0, accounts.puts)
}

func TestRegistration_FederatedProviderFailure(t *testing.T) {
	provider := &fakeProvider{federatedErr: errors.New("popup closed by user")}
	reg := NewRegistration(provider, newMemoryAccounts())

	outcome, err := reg.SignInWithFederatedProvider(context.Background(), "google", "code")
	require.ErrorIs(t, err, apperror.ErrAuth)
	assert.Equal(t, "popup closed by user", err.Error())
	assert.Equal(t, StateIdle, outcome.State)
}
