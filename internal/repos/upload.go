package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/types"
)

type UploadRepo interface {
	Create(ctx context.Context, tx *gorm.DB, upload *types.Upload) (*types.Upload, error)
	ListForOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Upload, error)
	RecentPaths(ctx context.Context, tx *gorm.DB, limit int) ([]string, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type uploadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadRepo(db *gorm.DB, baseLog *logger.Logger) UploadRepo {
	return &uploadRepo{db: db, log: baseLog.With("repo", "UploadRepo")}
}

func (ur *uploadRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *uploadRepo) Create(ctx context.Context, tx *gorm.DB, upload *types.Upload) (*types.Upload, error) {
	if err := ur.conn(tx).WithContext(ctx).Create(upload).Error; err != nil {
		return nil, err
	}
	return upload, nil
}

func (ur *uploadRepo) ListForOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Upload, error) {
	var uploads []*types.Upload
	err := ur.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Find(&uploads).Error
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

func (ur *uploadRepo) RecentPaths(ctx context.Context, tx *gorm.DB, limit int) ([]string, error) {
	var paths []string
	err := ur.conn(tx).WithContext(ctx).
		Model(&types.Upload{}).
		Distinct("file_path").
		Order("file_path").
		Limit(limit).
		Pluck("file_path", &paths).Error
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (ur *uploadRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := ur.conn(tx).WithContext(ctx).Model(&types.Upload{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
