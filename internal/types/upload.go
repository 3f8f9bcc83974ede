package types

import (
	"time"

	"github.com/google/uuid"
)

// Upload is the record of a file a student uploaded. Storage, extraction and
// expiry are handled by external collaborators; this row only anchors
// attachment references and admin counts.
type Upload struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	FileName   string    `gorm:"column:file_name" json:"file_name"`
	FilePath   string    `gorm:"not null;column:file_path" json:"file_path"`
	FileType   string    `gorm:"column:file_type" json:"file_type"`
	UploadedAt time.Time `gorm:"not null;column:uploaded_at" json:"uploaded_at"`
}

func (Upload) TableName() string {
	return "upload"
}
