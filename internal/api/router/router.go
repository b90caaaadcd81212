package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"berkeleyfind/backend/config"
	"berkeleyfind/backend/internal/api/handler"
	"berkeleyfind/backend/internal/api/middleware"
	"berkeleyfind/backend/internal/dto"
	"berkeleyfind/backend/internal/model"
	"berkeleyfind/backend/pkg/jwt"
	"berkeleyfind/backend/pkg/redis"
	"berkeleyfind/backend/pkg/response"
)

// 速率限制：认证接口按 IP，资料接口按用户
const (
	authRateLimit    = 10
	actionsRateLimit = 60
	rateLimitWindow  = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：黑名单与限流降级放行；roles 用于管理员路由按数据库实时校验角色
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, roles middleware.RoleResolver, logger *zap.Logger) (*gin.Engine, error) {
	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})

	requireAuth := middleware.JWTAuth(jwtMgr, rdb, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块
		auth := v1.Group("/auth")
		{
			limited := auth.Group("", middleware.RateLimit(rdb, authRateLimit, rateLimitWindow))
			limited.POST("/register", h.Auth.Register)
			limited.POST("/login", h.Auth.Login)
			auth.POST("/logout", requireAuth, h.Auth.Logout)
		}

		// 引导页面守卫（可匿名访问）
		v1.GET("/onboarding/pages/:page", middleware.OptionalJWTAuth(jwtMgr, rdb, logger), h.Onboarding.ResolvePage)

		// 资料修改 Action
		actions := v1.Group("/actions", requireAuth, middleware.RateLimit(rdb, actionsRateLimit, rateLimitWindow))
		{
			actions.GET("/basic-info", h.Actions.GetBasicInfo)
			actions.POST("/basic-info", h.Actions.SaveBasicInfo)
			actions.POST("/courses", h.Actions.SaveCourses)
			actions.POST("/study-preferences", h.Actions.SaveStudyPreferences)
			actions.POST("/study-times", h.Actions.SaveStudyTimes)
			actions.POST("/study-times/import", h.Actions.ImportStudyTimes)
		}

		// 管理员
		admin := v1.Group("/admin", requireAuth, middleware.RoleAuth(roles, model.RoleAdmin))
		{
			admin.POST("/roles", h.Admin.ChangeRole)
			admin.GET("/users/export", h.Admin.ExportUsers)
		}
	}

	return r, nil
}
