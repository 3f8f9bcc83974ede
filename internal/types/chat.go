package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Chat is one conversation thread. Messages holds the JSON text of a Turn
// list; older rows may carry other encodings, which the history codec in
// internal/services normalizes on read.
type Chat struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Messages  datatypes.JSON `gorm:"type:jsonb;column:messages" json:"messages"`
	Summary   string         `gorm:"column:summary" json:"summary"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Chat) TableName() string {
	return "chat"
}
