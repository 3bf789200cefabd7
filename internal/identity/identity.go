// Package identity is the authentication service: password accounts,
// federated sign-in through OAuth providers and the current-session stream.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/teamshare/backend/internal/models"
	"github.com/teamshare/backend/pkg/logger"
	"github.com/teamshare/backend/pkg/utils"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrFederatedNoEmail   = errors.New("identity provider did not return an email address")
)

// Identity is the authenticated principal. ID keys the user's account record.
type Identity struct {
	ID       string              `json:"id"`
	Email    string              `json:"email"`
	Provider models.AuthProvider `json:"provider"`
}

type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	FederatedSignIn(ctx context.Context, provider, code string) (Identity, error)
}

type Service struct {
	DB         *gorm.DB
	Federation Federation
}

func NewService(db *gorm.DB, federation Federation) *Service {
	return &Service{DB: db, Federation: federation}
}

func (s *Service) CreateAccount(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return Identity{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return Identity{}, ErrWeakPassword
	}

	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Credential{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return Identity{}, err
	}
	if count > 0 {
		return Identity{}, ErrEmailInUse
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return Identity{}, err
	}

	credential := models.Credential{
		Email:        email,
		PasswordHash: hash,
		Provider:     models.AuthProviderPassword,
	}
	// A concurrent registration can win between the count and the insert.
	if err := db.Create(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Identity{}, ErrEmailInUse
		}
		return Identity{}, err
	}

	logger.InfoWithUser(credential.ID.String(), "account_created", map[string]interface{}{
		"email":    email,
		"provider": credential.Provider,
	})
	return identityOf(&credential), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Identity, error) {
	var credential models.Credential
	if err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}

	if credential.PasswordHash == "" || !utils.CheckPassword(password, credential.PasswordHash) {
		logger.Warn("sign_in_failed", map[string]interface{}{
			"email": credential.Email,
		})
		return Identity{}, ErrInvalidCredentials
	}

	return identityOf(&credential), nil
}

// FederatedSignIn exchanges an authorization code with the named provider. A
// credential is matched by provider subject first, then by email; an unknown
// principal gets a new credential.
func (s *Service) FederatedSignIn(ctx context.Context, provider, code string) (Identity, error) {
	if s.Federation == nil {
		return Identity{}, ErrFederationDisabled
	}

	profile, err := s.Federation.Exchange(ctx, provider, code)
	if err != nil {
		return Identity{}, err
	}
	if profile.Email == "" {
		return Identity{}, ErrFederatedNoEmail
	}
	profile.Email = normalizeEmail(profile.Email)

	var credential models.Credential
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("provider = ? AND provider_subject = ?", profile.Provider, profile.Subject).First(&credential).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("email = ?", profile.Email).First(&credential).Error
		if err == nil {
			if credential.ProviderSubject != nil {
				return nil
			}
			if err := tx.Model(&credential).Updates(map[string]interface{}{
				"provider":         profile.Provider,
				"provider_subject": profile.Subject,
			}).Error; err != nil {
				return err
			}
			subject := profile.Subject
			credential.Provider = profile.Provider
			credential.ProviderSubject = &subject
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		subject := profile.Subject
		credential = models.Credential{
			Email:           profile.Email,
			Provider:        profile.Provider,
			ProviderSubject: &subject,
		}
		return tx.Create(&credential).Error
	})
	if err != nil {
		return Identity{}, err
	}

	logger.InfoWithUser(credential.ID.String(), "federated_sign_in", map[string]interface{}{
		"email":    credential.Email,
		"provider": profile.Provider,
	})
	return identityOf(&credential), nil
}

// AuthCodeURL returns the provider's consent page for state.
func (s *Service) AuthCodeURL(provider, state string) (string, error) {
	if s.Federation == nil {
		return "", ErrFederationDisabled
	}
	return s.Federation.AuthCodeURL(provider, state)
}

// Lookup resolves an identity id issued earlier.
func (s *Service) Lookup(ctx context.Context, id string) (Identity, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	var credential models.Credential
	if err := s.DB.WithContext(ctx).First(&credential, "id = ?", parsed).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	return identityOf(&credential), nil
}

func identityOf(credential *models.Credential) Identity {
	return Identity{
		ID:       credential.ID.String(),
		Email:    credential.Email,
		Provider: credential.Provider,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
