package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/types"
)

type ChatRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error)
	GetForOwner(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, error)
	ListForOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chat, error)
	Save(ctx context.Context, tx *gorm.DB, chat *types.Chat) error
	DeleteForOwner(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (int64, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{db: db, log: baseLog.With("repo", "ChatRepo")}
}

func (cr *chatRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return cr.db
}

func (cr *chatRepo) Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error) {
	if err := cr.conn(tx).WithContext(ctx).Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

func (cr *chatRepo) GetForOwner(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, error) {
	var chat types.Chat
	err := cr.conn(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (cr *chatRepo) ListForOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chat, error) {
	var chats []*types.Chat
	err := cr.conn(tx).WithContext(ctx).
		Select("id", "summary", "created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (cr *chatRepo) Save(ctx context.Context, tx *gorm.DB, chat *types.Chat) error {
	return cr.conn(tx).WithContext(ctx).Save(chat).Error
}

func (cr *chatRepo) DeleteForOwner(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (int64, error) {
	res := cr.conn(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		Delete(&types.Chat{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (cr *chatRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := cr.conn(tx).WithContext(ctx).Model(&types.Chat{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
