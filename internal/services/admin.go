package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/clients/redis"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/repos"
)

const (
	overviewCacheKey = "admin:overview"
	overviewCacheTTL = 30 * time.Second
	recentFilesLimit = 100
)

type Overview struct {
	Users   int64 `json:"users"`
	Chats   int64 `json:"chats"`
	Uploads int64 `json:"uploads"`
}

type AdminService interface {
	Overview(ctx context.Context) (*Overview, error)
	RecentFiles(ctx context.Context) ([]string, error)
}

type adminService struct {
	db         *gorm.DB
	log        *logger.Logger
	userRepo   repos.UserRepo
	chatRepo   repos.ChatRepo
	uploadRepo repos.UploadRepo
	cache      *redis.Cache
}

func NewAdminService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, chatRepo repos.ChatRepo, uploadRepo repos.UploadRepo, cache *redis.Cache) AdminService {
	return &adminService{
		db:         db,
		log:        log.With("service", "AdminService"),
		userRepo:   userRepo,
		chatRepo:   chatRepo,
		uploadRepo: uploadRepo,
		cache:      cache,
	}
}

func (as *adminService) Overview(ctx context.Context) (*Overview, error) {
	if cached := as.cache.Get(ctx, overviewCacheKey); cached != "" {
		var overview Overview
		if err := json.Unmarshal([]byte(cached), &overview); err == nil {
			return &overview, nil
		}
		as.log.Warn("Discarding unreadable cached overview")
	}

	var overview Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := as.userRepo.Count(gctx, nil)
		overview.Users = count
		return err
	})
	g.Go(func() error {
		count, err := as.chatRepo.Count(gctx, nil)
		overview.Chats = count
		return err
	})
	g.Go(func() error {
		count, err := as.uploadRepo.Count(gctx, nil)
		overview.Uploads = count
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}

	if encoded, err := json.Marshal(&overview); err == nil {
		as.cache.Set(ctx, overviewCacheKey, string(encoded), overviewCacheTTL)
	}
	return &overview, nil
}

func (as *adminService) RecentFiles(ctx context.Context) ([]string, error) {
	paths, err := as.uploadRepo.RecentPaths(ctx, nil, recentFilesLimit)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return paths, nil
}
