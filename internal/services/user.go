package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/repos"
	"github.com/daleelapp/daleel-backend/internal/types"
)

type ProfileUpdate struct {
	Name         *string          `json:"name"`
	College      *string          `json:"college"`
	PersonalInfo *json.RawMessage `json:"personalInfo"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*types.User, error)
	UpdateSchedule(ctx context.Context, userID uuid.UUID, schedule json.RawMessage) (*types.User, error)
	UpdateLanguage(ctx context.Context, userID uuid.UUID, language string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{db: db, log: log.With("service", "UserService"), userRepo: userRepo}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return us.load(ctx, userID)
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*types.User, error) {
	user, err := us.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("name cannot be empty"))
		}
		user.Name = name
	}
	if update.College != nil {
		user.College = strings.TrimSpace(*update.College)
	}
	if update.PersonalInfo != nil {
		if len(*update.PersonalInfo) > 0 && !json.Valid(*update.PersonalInfo) {
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("personalInfo must be valid JSON"))
		}
		user.PersonalInfo = datatypes.JSON(*update.PersonalInfo)
	}
	if err := us.userRepo.Save(ctx, nil, user); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return user, nil
}

func (us *userService) UpdateSchedule(ctx context.Context, userID uuid.UUID, schedule json.RawMessage) (*types.User, error) {
	if len(schedule) > 0 && !json.Valid(schedule) {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("schedule must be valid JSON"))
	}
	user, err := us.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Schedule = datatypes.JSON(schedule)
	if err := us.userRepo.Save(ctx, nil, user); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return user, nil
}

func (us *userService) UpdateLanguage(ctx context.Context, userID uuid.UUID, language string) (*types.User, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language != LangArabic && language != LangEnglish {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("preferred language must be ar or en"))
	}
	user, err := us.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PreferredLanguage = language
	if err := us.userRepo.Save(ctx, nil, user); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return user, nil
}

func (us *userService) load(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, errors.New("user not found"))
		}
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return user, nil
}
