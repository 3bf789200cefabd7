// Package docstore persists the keyed records the application reads and writes:
// user accounts and per-team file metadata.
package docstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/teamshare/backend/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("docstore: record not found")

// Accounts stores user-role records keyed by identity id.
type Accounts interface {
	Put(ctx context.Context, account *models.UserAccount) error
	Get(ctx context.Context, id string) (*models.UserAccount, error)
}

// Files stores file metadata scoped by team.
type Files interface {
	Create(ctx context.Context, record *models.FileRecord) error
	Get(ctx context.Context, teamID string, id uuid.UUID) (*models.FileRecord, error)
	ListByTeam(ctx context.Context, teamID string) ([]models.FileRecord, error)
	Delete(ctx context.Context, teamID string, id uuid.UUID) error
}

type GormAccounts struct {
	DB *gorm.DB
}

func NewGormAccounts(db *gorm.DB) *GormAccounts {
	return &GormAccounts{DB: db}
}

// Put creates or replaces the account with the same id.
func (s *GormAccounts) Put(ctx context.Context, account *models.UserAccount) error {
	return s.DB.WithContext(ctx).Save(account).Error
}

func (s *GormAccounts) Get(ctx context.Context, id string) (*models.UserAccount, error) {
	var account models.UserAccount
	if err := s.DB.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

type GormFiles struct {
	DB *gorm.DB
}

func NewGormFiles(db *gorm.DB) *GormFiles {
	return &GormFiles{DB: db}
}

// Create inserts record and reloads it so UploadedAt carries the value the
// database assigned.
func (s *GormFiles) Create(ctx context.Context, record *models.FileRecord) error {
	db := s.DB.WithContext(ctx)
	if err := db.Create(record).Error; err != nil {
		return err
	}
	return db.First(record, "id = ?", record.ID).Error
}

func (s *GormFiles) Get(ctx context.Context, teamID string, id uuid.UUID) (*models.FileRecord, error) {
	var record models.FileRecord
	if err := s.DB.WithContext(ctx).First(&record, "team_id = ? AND id = ?", teamID, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByTeam returns the team's records newest first. created_at breaks ties
// between records stamped within the same database clock tick.
func (s *GormFiles) ListByTeam(ctx context.Context, teamID string) ([]models.FileRecord, error) {
	records := make([]models.FileRecord, 0)
	err := s.DB.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("uploaded_at DESC").
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (s *GormFiles) Delete(ctx context.Context, teamID string, id uuid.UUID) error {
	result := s.DB.WithContext(ctx).Where("team_id = ? AND id = ?", teamID, id).Delete(&models.FileRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
