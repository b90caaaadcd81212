package service

import (
	"go.uber.org/zap"

	"berkeleyfind/backend/config"
	"berkeleyfind/backend/internal/repository"
	"berkeleyfind/backend/pkg/asset"
	"berkeleyfind/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Session    SessionService
	Roles      RoleResolver
	Onboarding OnboardingService
	Profile    ProfileService
	StudyTimes StudyTimesService
	Auth       AuthService
	Admin      AdminService
}

// NewService 创建 Service 聚合
//
// blacklist 可为 nil（Redis 不可用时登出仅依赖 Token 自然过期）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	assets asset.Store,
	logger *zap.Logger,
) *Service {
	sessions := NewSessionService(repo, logger)
	return &Service{
		Session:    sessions,
		Roles:      NewRoleResolver(repo, logger),
		Onboarding: NewOnboardingService(sessions),
		Profile:    NewProfileService(repo, sessions, assets, cfg.Asset.Folder, logger),
		StudyTimes: NewStudyTimesService(sessions, logger),
		Auth:       NewAuthService(repo, jwtMgr, blacklist, logger),
		Admin:      NewAdminService(repo, logger),
	}
}
