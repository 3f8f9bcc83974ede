package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UniversityID      string         `gorm:"uniqueIndex;not null;column:university_id" json:"university_id"`
	Name              string         `gorm:"not null;column:name" json:"name"`
	College           string         `gorm:"column:college" json:"college"`
	Password          string         `gorm:"not null;column:password" json:"-"`
	Schedule          datatypes.JSON `gorm:"type:jsonb;column:schedule" json:"schedule"`
	PersonalInfo      datatypes.JSON `gorm:"type:jsonb;column:personal_info" json:"personal_info"`
	PreferredLanguage string         `gorm:"column:preferred_language;default:ar" json:"preferred_language"`
	IsAdmin           bool           `gorm:"column:is_admin;default:false" json:"is_admin"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
