package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/repos"
	"github.com/daleelapp/daleel-backend/internal/requestdata"
	"github.com/daleelapp/daleel-backend/internal/types"
)

type RegisterInput struct {
	UniversityID string `json:"universityId"`
	Name         string `json:"name"`
	College      string `json:"college"`
	Password     string `json:"password"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, universityID, password string) (string, *types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error) {
	universityID := strings.TrimSpace(input.UniversityID)
	name := strings.TrimSpace(input.Name)
	password := input.Password
	if universityID == "" || name == "" || password == "" {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("universityId, name and password are required"))
	}

	exists, err := as.userRepo.UniversityIDExists(ctx, nil, universityID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	if exists {
		return nil, apierr.New(http.StatusConflict, apierr.CodeConflict, errors.New("university id already registered"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("failed to hash password: %w", err))
	}

	user := &types.User{
		ID:                uuid.New(),
		UniversityID:      universityID,
		Name:              name,
		College:           strings.TrimSpace(input.College),
		Password:          string(hashed),
		PreferredLanguage: LangArabic,
	}
	if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("failed to create user: %w", err))
	}
	as.log.Info("Registered user", "universityID", universityID)
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, universityID, password string) (string, *types.User, error) {
	universityID = strings.TrimSpace(universityID)
	if universityID == "" || password == "" {
		return "", nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("universityId and password are required"))
	}

	user, err := as.userRepo.GetByUniversityID(ctx, nil, universityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apierr.New(http.StatusUnauthorized, apierr.CodeAuth, errors.New("invalid credentials"))
		}
		return "", nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apierr.New(http.StatusUnauthorized, apierr.CodeAuth, errors.New("invalid credentials"))
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return "", nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return token, user, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": time.Now().Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, errors.New("invalid token subject")
	}

	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return ctx, errors.New("user no longer exists")
	}

	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		IsAdmin:     user.IsAdmin,
	}), nil
}
