package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/repos"
	"github.com/daleelapp/daleel-backend/internal/types"
)

type UploadInput struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	FileType string `json:"fileType"`
}

// UploadService tracks upload records only. Extraction happens before the
// chat request is made; the extracted text arrives inline on attachment
// references.
type UploadService interface {
	RegisterUpload(ctx context.Context, userID uuid.UUID, input UploadInput) (*types.Upload, error)
	ListUploads(ctx context.Context, userID uuid.UUID) ([]*types.Upload, error)
}

type uploadService struct {
	db         *gorm.DB
	log        *logger.Logger
	uploadRepo repos.UploadRepo
}

func NewUploadService(db *gorm.DB, log *logger.Logger, uploadRepo repos.UploadRepo) UploadService {
	return &uploadService{db: db, log: log.With("service", "UploadService"), uploadRepo: uploadRepo}
}

func (us *uploadService) RegisterUpload(ctx context.Context, userID uuid.UUID, input UploadInput) (*types.Upload, error) {
	fileName := strings.TrimSpace(input.FileName)
	filePath := strings.TrimSpace(input.FilePath)
	if fileName == "" || filePath == "" {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("fileName and filePath are required"))
	}
	upload := &types.Upload{
		ID:         uuid.New(),
		UserID:     userID,
		FileName:   fileName,
		FilePath:   filePath,
		FileType:   strings.TrimSpace(input.FileType),
		UploadedAt: time.Now(),
	}
	created, err := us.uploadRepo.Create(ctx, nil, upload)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return created, nil
}

func (us *uploadService) ListUploads(ctx context.Context, userID uuid.UUID) ([]*types.Upload, error) {
	uploads, err := us.uploadRepo.ListForOwner(ctx, nil, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return uploads, nil
}
