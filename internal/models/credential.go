package models

type AuthProvider string

const (
	AuthProviderPassword AuthProvider = "password"
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderGitHub   AuthProvider = "github"
)

// Credential is owned by the identity service. Federated credentials carry no
// password hash and are looked up by provider subject.
type Credential struct {
	BaseModel
	Email           string       `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash    string       `json:"-" gorm:"type:text"`
	Provider        AuthProvider `json:"provider" gorm:"type:varchar(20);not null;default:'password';uniqueIndex:idx_provider_subject"`
	ProviderSubject *string      `json:"-" gorm:"type:varchar(255);uniqueIndex:idx_provider_subject"`
}

func (Credential) TableName() string {
	return "credentials"
}
