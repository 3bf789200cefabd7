package models

import "time"

// UnknownMimeType is stored when the uploaded file carries no content type.
const UnknownMimeType = "unknown"

// FileRecord is the metadata of one shared file. It is only written once the blob
// at StoragePath exists. UploadedAt is resolved by the database on insert.
type FileRecord struct {
	BaseModel
	TeamID      string    `json:"teamID" gorm:"type:varchar(128);not null;index:idx_team_uploaded,priority:1"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	MimeType    string    `json:"type" gorm:"type:varchar(255);not null;default:'unknown'"`
	SizeBytes   int64     `json:"size" gorm:"not null;default:0"`
	UploaderID  string    `json:"uploadedBy" gorm:"type:varchar(64);not null;index"`
	UploadedAt  time.Time `json:"uploadedAt" gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_team_uploaded,priority:2"`
	DownloadURL string    `json:"downloadURL" gorm:"type:text;not null"`
	StoragePath string    `json:"storageRef" gorm:"type:text;not null"`
}

func (FileRecord) TableName() string {
	return "file_records"
}

