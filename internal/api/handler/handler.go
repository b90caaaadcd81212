package handler

import (
	"go.uber.org/zap"

	"berkeleyfind/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Actions    *ActionsHandler
	Onboarding *OnboardingHandler
	Auth       *AuthHandler
	Admin      *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Actions:    NewActionsHandler(svc.Profile, svc.StudyTimes, logger),
		Onboarding: NewOnboardingHandler(svc.Onboarding),
		Auth:       NewAuthHandler(svc.Auth),
		Admin:      NewAdminHandler(svc.Admin),
	}
}
