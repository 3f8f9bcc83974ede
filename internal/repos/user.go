package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByUniversityID(ctx context.Context, tx *gorm.DB, universityID string) (*types.User, error)
	UniversityIDExists(ctx context.Context, tx *gorm.DB, universityID string) (bool, error)
	Save(ctx context.Context, tx *gorm.DB, user *types.User) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	if err := ur.conn(tx).WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	var user types.User
	err := ur.conn(tx).WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) GetByUniversityID(ctx context.Context, tx *gorm.DB, universityID string) (*types.User, error) {
	var user types.User
	err := ur.conn(tx).WithContext(ctx).
		Where("university_id = ?", universityID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) UniversityIDExists(ctx context.Context, tx *gorm.DB, universityID string) (bool, error) {
	var count int64
	err := ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("university_id = ?", universityID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) Save(ctx context.Context, tx *gorm.DB, user *types.User) error {
	return ur.conn(tx).WithContext(ctx).Save(user).Error
}

func (ur *userRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := ur.conn(tx).WithContext(ctx).Model(&types.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
