package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teamshare/backend/internal/apperror"
	"github.com/teamshare/backend/internal/docstore"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/internal/models"
	"github.com/teamshare/backend/pkg/logger"
)

type Route string

const (
	RouteNone      Route = ""
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
)

type RegistrationState string

const (
	StateIdle         RegistrationState = "idle"
	StateAwaitingRole RegistrationState = "awaiting_role"
)

// Outcome tells the caller where to send the user next.
type Outcome struct {
	Route    Route              `json:"route"`
	State    RegistrationState  `json:"state"`
	Message  string             `json:"message,omitempty"`
	Identity *identity.Identity `json:"identity,omitempty"`
}

// Registration drives account creation for one client. Federated sign-in for an
// identity with no account record parks that identity until a role is chosen.
type Registration struct {
	provider identity.Provider
	accounts docstore.Accounts

	mu      sync.Mutex
	state   RegistrationState
	pending *identity.Identity
}

func NewRegistration(provider identity.Provider, accounts docstore.Accounts) *Registration {
	return &Registration{
		provider: provider,
		accounts: accounts,
		state:    StateIdle,
	}
}

func (r *Registration) State() RegistrationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pending returns the federated identity waiting for a role, if any.
func (r *Registration) Pending() (identity.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return identity.Identity{}, false
	}
	return *r.pending, true
}

func (r *Registration) SubmitCredentials(ctx context.Context, email, password, confirmPassword string, role models.UserRole) (Outcome, error) {
	const op = "registration.submit"

	if password != confirmPassword {
		return r.idle(), apperror.Validation(op, "Passwords do not match!")
	}
	role, err := resolveRole(op, role)
	if err != nil {
		return r.idle(), err
	}

	id, err := r.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return r.idle(), apperror.Auth(op, err)
	}

	account := &models.UserAccount{ID: id.ID, Email: id.Email, Role: role}
	if err := r.accounts.Put(ctx, account); err != nil {
		logger.ErrorWithUser(id.ID, "account_record_write_failed", err, map[string]interface{}{
			"role": role,
		})
		return r.idle(), apperror.Store(op, "Account created but saving your role failed. Please try again.", err)
	}

	logger.InfoWithUser(id.ID, "user_registered", map[string]interface{}{
		"email": id.Email,
		"role":  role,
	})
	return Outcome{
		Route:    RouteLogin,
		State:    r.State(),
		Message:  "Registration successful! Redirecting to login...",
		Identity: &id,
	}, nil
}

func (r *Registration) SignInWithFederatedProvider(ctx context.Context, provider, code string) (Outcome, error) {
	const op = "registration.federated"

	id, err := r.provider.FederatedSignIn(ctx, provider, code)
	if err != nil {
		return r.idle(), apperror.Auth(op, err)
	}

	_, err = r.accounts.Get(ctx, id.ID)
	switch {
	case err == nil:
		r.mu.Lock()
		r.state = StateIdle
		r.pending = nil
		r.mu.Unlock()
		return Outcome{
			Route:    RouteDashboard,
			State:    StateIdle,
			Message:  fmt.Sprintf("%s Sign-In successful! Redirecting to dashboard...", providerLabel(id.Provider)),
			Identity: &id,
		}, nil
	case errors.Is(err, docstore.ErrNotFound):
		r.mu.Lock()
		r.state = StateAwaitingRole
		r.pending = &id
		r.mu.Unlock()
		return Outcome{Route: RouteNone, State: StateAwaitingRole, Identity: &id}, nil
	default:
		return r.idle(), apperror.Store(op, "Failed to load your account. Please try again.", err)
	}
}

// CompleteFederatedOnboarding writes the account for the held identity. With no
// held identity it does nothing.
func (r *Registration) CompleteFederatedOnboarding(ctx context.Context, role models.UserRole) (Outcome, error) {
	const op = "registration.onboarding"

	r.mu.Lock()
	if r.state != StateAwaitingRole || r.pending == nil {
		r.mu.Unlock()
		return Outcome{Route: RouteNone, State: StateIdle}, nil
	}
	id := *r.pending
	r.mu.Unlock()

	role, err := resolveRole(op, role)
	if err != nil {
		return Outcome{Route: RouteNone, State: StateAwaitingRole, Identity: &id}, err
	}

	account := &models.UserAccount{ID: id.ID, Email: id.Email, Role: role}
	if err := r.accounts.Put(ctx, account); err != nil {
		return Outcome{Route: RouteNone, State: StateAwaitingRole, Identity: &id},
			apperror.Store(op, "Failed to save your role. Please try again.", err)
	}

	r.mu.Lock()
	r.state = StateIdle
	r.pending = nil
	r.mu.Unlock()

	logger.InfoWithUser(id.ID, "federated_user_onboarded", map[string]interface{}{
		"email":    id.Email,
		"provider": id.Provider,
		"role":     role,
	})
	return Outcome{
		Route:    RouteDashboard,
		State:    StateIdle,
		Message:  fmt.Sprintf("%s Registration successful! Redirecting to dashboard...", providerLabel(id.Provider)),
		Identity: &id,
	}, nil
}

func (r *Registration) idle() Outcome {
	return Outcome{Route: RouteNone, State: r.State()}
}

func resolveRole(op string, role models.UserRole) (models.UserRole, error) {
	if role == "" {
		return models.DefaultUserRole, nil
	}
	if !role.Valid() {
		return "", apperror.Validation(op, fmt.Sprintf("invalid role %q", role))
	}
	return role, nil
}

func providerLabel(provider models.AuthProvider) string {
	switch provider {
	case models.AuthProviderGoogle:
		return "Google"
	case models.AuthProviderGitHub:
		return "GitHub"
	default:
		return "Password"
	}
}
